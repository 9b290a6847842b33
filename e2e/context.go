// Package e2e drives the running server over HTTP with godog. Point
// E2E_BASE_URL at a server wired to a disposable database and run
// `go test ./...` inside this module.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext carries shared state between steps: the HTTP client, the
// last response, and identifiers captured from earlier steps.
type TestContext struct {
	baseURL     string
	accessToken string
	client      *http.Client

	lastStatus int
	lastBody   map[string]interface{}

	// vars holds identifiers captured during the scenario, keyed by
	// the name a step assigned (for example "campaign_id").
	vars map[string]string
}

// NewTestContext builds a context from the environment.
func NewTestContext() *TestContext {
	return &TestContext{
		baseURL:     envOr("E2E_BASE_URL", "http://localhost:8080"),
		accessToken: os.Getenv("E2E_ACCESS_TOKEN"),
		client:      &http.Client{Timeout: 30 * time.Second},
		vars:        map[string]string{},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// POST sends a JSON body and records the response.
func (tc *TestContext) POST(path string, body interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(http.MethodPost, tc.baseURL+tc.Expand(path), reader)
	if err != nil {
		return err
	}
	return tc.do(req)
}

// GET records the response for a path.
func (tc *TestContext) GET(path string) error {
	req, err := http.NewRequest(http.MethodGet, tc.baseURL+tc.Expand(path), nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	req.Header.Set("Content-Type", "application/json")
	if tc.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.accessToken)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err == nil {
		tc.lastBody = decoded
	}
	return nil
}

// LastStatus returns the status code of the last response.
func (tc *TestContext) LastStatus() int { return tc.lastStatus }

// ResponseField walks a dot-separated path into the last JSON response.
func (tc *TestContext) ResponseField(field string) (interface{}, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("no JSON body in last response")
	}
	var current interface{} = tc.lastBody
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		current, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not present in response", field)
		}
	}
	return current, nil
}

// Capture stores a response field under a scenario variable name.
func (tc *TestContext) Capture(name, field string) error {
	value, err := tc.ResponseField(field)
	if err != nil {
		return err
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %q is not a string", field)
	}
	tc.vars[name] = s
	return nil
}

// Expand substitutes {name} placeholders with captured variables.
func (tc *TestContext) Expand(s string) string {
	for name, value := range tc.vars {
		s = strings.ReplaceAll(s, "{"+name+"}", value)
	}
	return s
}
