// Package draftfile reads wizard drafts from YAML or JSON files, applies
// them to an engine, and watches them for changes.
//
// A draft file is a flat mapping from field name to value:
//
//	name: Checkout Flow
//	testLab: cloud
//	pageLoadTimeout: 30
//	machineConfigs:
//	  - os: windows
//	    osVersion: "11"
//	    browser: chrome
//
// Keys are the wizard's field names. Values are coerced the same way the
// interactive wizard coerces typed input.
package draftfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"sigs.k8s.io/yaml"

	"plancraft/internal/wizard"
	"plancraft/pkg/logging"
)

// Load reads path as YAML (JSON is valid YAML) into a field map. An empty
// file yields an empty map.
func Load(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes draft file content.
func Parse(data []byte) (map[string]interface{}, error) {
	if strings.TrimSpace(string(data)) == "" {
		return map[string]interface{}{}, nil
	}
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse draft: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(jsonData, &out); err != nil {
		return nil, fmt.Errorf("draft must be a mapping of field names to values: %w", err)
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}

// Apply sets every field in values on eng, in step order. Unknown keys and
// values that cannot be coerced are collected and returned together; the
// remaining fields are still applied.
func Apply(ctx context.Context, eng *wizard.Engine, values map[string]interface{}) error {
	var errs []error

	known := map[string]bool{}
	for _, name := range eng.Definition().Steps.FieldNames() {
		known[name] = true
		raw, ok := values[name]
		if !ok {
			continue
		}
		if err := eng.Dispatch(ctx, wizard.SetField{Name: name, Value: raw}); err != nil {
			errs = append(errs, err)
		}
	}

	var unknown []string
	for name := range values {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		errs = append(errs, fmt.Errorf("%w: %s", wizard.ErrUnknownField, strings.Join(unknown, ", ")))
	}

	if len(errs) > 0 {
		logging.Debug("DraftFile", "Applied draft with %d problem(s)", len(errs))
	}
	return errors.Join(errs...)
}

// Save writes the owned fields of d to path as YAML.
func Save(path string, steps *wizard.StepSet, d wizard.Draft) error {
	out := make(map[string]interface{}, len(d))
	for _, name := range steps.FieldNames() {
		if v, ok := d[name]; ok {
			out[name] = v
		}
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write draft %s: %w", path, err)
	}
	logging.Info("DraftFile", "Saved draft to %s", path)
	return nil
}
