package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancraft/internal/assertion"
	"plancraft/internal/testplan"
	"plancraft/internal/wizard"
)

const validPlanDraft = `name: Checkout Flow
selectedTests:
  - id: 5
    name: Cart Suite
    type: ui
`

// executeCommand runs the root command with args against configDir and
// returns stdout.
func executeCommand(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", configDir, "--log-level", "error"}, args...))
	t.Cleanup(func() {
		configPath, logLevel, outputFormat, metricsAddr = "", "", "table", ""
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// apiConfigDir writes a config pointing at srv.
func apiConfigDir(t *testing.T, srv *httptest.Server) string {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "api:\n  baseURL: "+srv.URL+"\n  auth:\n    token: secret\n")
	return dir
}

func TestAssertionComparisonsCommand(t *testing.T) {
	out, err := executeCommand(t, t.TempDir(), "assertion", "comparisons", "header")
	require.NoError(t, err)
	assert.Contains(t, out, "header")
	assert.Contains(t, out, "contains")

	out, err = executeCommand(t, t.TempDir(), "assertion", "comparisons", "-o", "json")
	require.NoError(t, err)
	var rows []comparisonRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, len(assertion.Sources))

	_, err = executeCommand(t, t.TempDir(), "assertion", "comparisons", "cookie")
	assert.Error(t, err)
}

func TestAssertionRepairCommand(t *testing.T) {
	out, err := executeCommand(t, t.TempDir(), "assertion", "repair", "status_code",
		"--source", "header", "--property", "Content-Type", "--comparison", "contains", "--target", "json", "-o", "json")
	require.NoError(t, err)

	var doc struct {
		Before assertion.Wire `json:"before"`
		After  assertion.Wire `json:"after"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, assertion.SourceHeader, doc.Before.Source)
	assert.Equal(t, assertion.SourceStatusCode, doc.After.Source)
	assert.Empty(t, doc.After.Property)
	assert.True(t, assertion.IsLegal(doc.After.Source, doc.After.Comparison))
}

func TestPlanValidateCommand(t *testing.T) {
	dir := t.TempDir()

	valid := writeFile(t, dir, "valid.yaml", validPlanDraft)
	out, err := executeCommand(t, dir, "plan", "validate", "-f", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	invalid := writeFile(t, dir, "invalid.yaml", "name: \"\"\npageLoadTimeout: 0\ncolour: red\n")
	out, err = executeCommand(t, dir, "plan", "validate", "-f", invalid)
	require.ErrorIs(t, err, errInvalidDraft)
	assert.Equal(t, ExitCodeInvalidDraft, getExitCode(err))
	assert.Contains(t, out, "step 1")
	assert.Contains(t, out, testplan.FieldName)
	assert.Contains(t, out, "colour")

	_, err = executeCommand(t, dir, "plan", "validate", "-f", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errInvalidDraft)
}

func TestPlanPayloadCommand(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "plan.yaml", validPlanDraft)

	out, err := executeCommand(t, dir, "plan", "payload", "-f", file, "-o", "json")
	require.NoError(t, err)

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &wire))
	assert.Equal(t, "Checkout Flow", wire["name"])
	assert.Equal(t, []interface{}{map[string]interface{}{"id": float64(5), "type": "ui"}}, wire["selectedTests"])
}

func TestSchedulePayloadCommand(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "schedule.yaml", `testPlanId: 12
name: Nightly regression
browsers: [chrome]
recipients: [qa@example.com]
frequency: weekly
weeklyDay: friday
weeklyTime: "18:30"
`)

	out, err := executeCommand(t, dir, "schedule", "payload", "-f", file, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "testPlanId: \"12\"")
	assert.Contains(t, out, "30 18 * * 5")
}

func TestPlanCreateCommand(t *testing.T) {
	var created map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/test-suites":
			_, _ = io.WriteString(w, `[{"id": 5, "name": "Cart Suite", "type": "ui"}]`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/test-plans":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id": 42}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := apiConfigDir(t, srv)
	file := writeFile(t, dir, "plan.yaml", validPlanDraft)

	out, err := executeCommand(t, dir, "plan", "create", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Created test plan 42")
	assert.Equal(t, "Checkout Flow", created["name"])
}

func TestPlanCreateRejectedByService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `[{"id": 5, "name": "Cart Suite"}]`)
			return
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message": "name already taken"}`)
	}))
	defer srv.Close()

	dir := apiConfigDir(t, srv)
	file := writeFile(t, dir, "plan.yaml", validPlanDraft)

	_, err := executeCommand(t, dir, "plan", "create", "-f", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name already taken")
	assert.Equal(t, ExitCodeAPIError, getExitCode(err))
}

func TestPlanEditCommand(t *testing.T) {
	seed := wizard.New(testplan.Definition())
	ctx := context.Background()
	require.NoError(t, seed.Dispatch(ctx, wizard.SetField{Name: testplan.FieldName, Value: "Checkout Flow"}))
	require.NoError(t, seed.Dispatch(ctx, wizard.SetField{
		Name:  testplan.FieldSelectedTests,
		Value: []interface{}{map[string]interface{}{"id": 5, "name": "Cart Suite", "type": "ui"}},
	}))
	payload, err := seed.Preview()
	require.NoError(t, err)
	entity, err := json.Marshal(testplan.Entity{ID: "7", Payload: payload.(testplan.Payload)})
	require.NoError(t, err)

	var updated map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/test-plans/7":
			_, _ = w.Write(entity)
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/test-suites":
			_, _ = io.WriteString(w, `[{"id": 5, "name": "Cart Suite", "type": "ui"}]`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/test-plans/7":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := apiConfigDir(t, srv)
	file := writeFile(t, dir, "changes.yaml", "name: Checkout Flow v2\n")

	out, err := executeCommand(t, dir, "plan", "edit", "7", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Updated test plan 7")
	assert.Equal(t, "Checkout Flow v2", updated["name"])
	assert.Equal(t, []interface{}{map[string]interface{}{"id": float64(5), "type": "ui"}}, updated["selectedTests"])
}

func TestHistoryCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/test-plans/12/runs", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id": "r1", "status": "passed", "startedAt": "2026-10-01T12:00:00Z", "durationMs": 90000},
			{"id": "r2", "status": "failed", "startedAt": "2026-10-02T12:00:00Z", "durationMs": 30000},
			{"id": "r3", "status": "running", "startedAt": "2026-10-03T12:00:00Z"}
		]`)
	}))
	defer srv.Close()

	dir := apiConfigDir(t, srv)
	out, err := executeCommand(t, dir, "history", "12", "-o", "json")
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &doc))
	assert.Equal(t, "12", doc["planId"])
	assert.Equal(t, float64(2), doc["total"])
	assert.Equal(t, float64(50), doc["passRate"])
}

func TestInvalidConfigIsReported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "api:\n  baseURL: not a url\n")
	file := writeFile(t, dir, "plan.yaml", validPlanDraft)

	_, err := executeCommand(t, dir, "plan", "validate", "-f", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.baseURL")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := executeCommand(t, t.TempDir(), "assertion", "comparisons", "-o", "xml")
	assert.Error(t, err)
}
