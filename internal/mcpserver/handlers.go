package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"plancraft/internal/assertion"
	"plancraft/internal/draftfile"
	"plancraft/internal/wizard"
	"plancraft/pkg/logging"
)

type comparisonEntry struct {
	Source           assertion.Source       `json:"source"`
	PropertyRequired bool                   `json:"propertyRequired"`
	Comparisons      []assertion.Comparison `json:"comparisons"`
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleComparisons(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sources := assertion.Sources
	if raw := request.GetString("source", ""); raw != "" {
		src, err := assertion.ParseSource(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sources = []assertion.Source{src}
	}

	entries := make([]comparisonEntry, 0, len(sources))
	for _, src := range sources {
		entries = append(entries, comparisonEntry{
			Source:           src,
			PropertyRequired: assertion.PropertyRequired(src),
			Comparisons:      assertion.LegalComparisons(src),
		})
	}
	return jsonResult(entries)
}

func (s *Server) handleRepair(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source argument is required"), nil
	}
	src, err := assertion.ParseSource(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	obj, ok := request.GetArguments()["assertion"].(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("assertion argument must be an object"), nil
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid assertion: %v", err)), nil
	}
	var rec assertion.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid assertion: %v", err)), nil
	}

	return jsonResult(assertion.Repair(rec, src))
}

// load applies the draft argument to a fresh engine for def.
func (s *Server) load(ctx context.Context, def wizard.Definition, request mcp.CallToolRequest) (*wizard.Engine, draftfile.Report, error) {
	draft, ok := request.GetArguments()["draft"].(map[string]interface{})
	if !ok {
		return nil, draftfile.Report{}, errors.New("draft argument must be an object")
	}
	eng, report := draftfile.Check(ctx, def, draft, s.validationContext())
	return eng, report, nil
}

func (s *Server) validateHandler(def func() wizard.Definition) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		d := def()
		_, report, err := s.load(ctx, d, request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		logging.Debug("MCP", "Validated %s draft: valid=%t", d.Kind, report.Valid)
		return jsonResult(report)
	}
}

func (s *Server) payloadHandler(def func() wizard.Definition) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		d := def()
		eng, report, err := s.load(ctx, d, request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(report.Problems) > 0 {
			return mcp.NewToolResultError(fmt.Sprintf("Draft could not be applied: %v", report.Problems)), nil
		}

		payload, err := eng.Preview()
		if err != nil {
			var sve *wizard.StepValidationError
			if errors.As(err, &sve) {
				data, _ := json.Marshal(sve.Errors)
				return mcp.NewToolResultError(fmt.Sprintf("Step %d is invalid: %s", sve.Step, data)), nil
			}
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(payload)
	}
}
