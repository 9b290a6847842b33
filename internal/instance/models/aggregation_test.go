package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(f float64) *float64 { return &f }

func TestAggregate(t *testing.T) {
	t.Run("empty input yields zeros with nil averages", func(t *testing.T) {
		agg := Aggregate(nil)
		assert.Equal(t, 0, agg.TotalInstances)
		assert.Equal(t, 0.0, agg.TotalHoursLogged)
		assert.Nil(t, agg.AvgSROI, "no divide-by-zero on empty input")
		assert.Nil(t, agg.AvgVIS)
	})

	t.Run("sums counters across instances", func(t *testing.T) {
		agg := Aggregate([]ProgramInstance{
			{Status: StatusActive, EnrolledVolunteers: 10, TotalSessionsHeld: 12, TotalHoursLogged: 30, CreditsConsumed: 40, LearnersServed: 8},
			{Status: StatusCompleted, EnrolledVolunteers: 5, TotalSessionsHeld: 20, TotalHoursLogged: 50.5, CreditsConsumed: 60, LearnersServed: 12},
			{Status: StatusPlanned, EnrolledVolunteers: 0},
		})
		assert.Equal(t, 3, agg.TotalInstances)
		assert.Equal(t, 1, agg.ActiveInstances)
		assert.Equal(t, 1, agg.CompletedInstances)
		assert.Equal(t, 15, agg.EnrolledVolunteers)
		assert.Equal(t, 32, agg.TotalSessionsHeld)
		assert.InDelta(t, 80.5, agg.TotalHoursLogged, 1e-9)
		assert.InDelta(t, 100.0, agg.CreditsConsumed, 1e-9)
		assert.Equal(t, 20, agg.LearnersServed)
	})

	t.Run("averages only over instances with scores", func(t *testing.T) {
		agg := Aggregate([]ProgramInstance{
			{SROIScore: fptr(3.0), AverageVISScore: fptr(0.8)},
			{SROIScore: fptr(5.0)},
			{}, // no metrics rollup yet
		})
		require.NotNil(t, agg.AvgSROI)
		assert.InDelta(t, 4.0, *agg.AvgSROI, 1e-9)
		require.NotNil(t, agg.AvgVIS)
		assert.InDelta(t, 0.8, *agg.AvgVIS, 1e-9)
	})

	t.Run("aggregation is deterministic", func(t *testing.T) {
		in := []ProgramInstance{
			{Status: StatusActive, TotalHoursLogged: 12.25, SROIScore: fptr(2.5)},
			{Status: StatusPaused, TotalHoursLogged: 7.75},
		}
		assert.Equal(t, Aggregate(in), Aggregate(in))
	})
}
