// Package testutil holds small shared test helpers.
package testutil

import "testing"

// Given, When, and Then wrap t.Run with a scenario prefix so a test's
// output reads as a behavior description. They carry no other state.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
