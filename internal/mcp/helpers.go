package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"tourstats/internal/stats"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResponseEnvelope is the uniform shape of every tool response.
type ResponseEnvelope struct {
	Context     map[string]any `json:"context,omitempty"`
	Data        any            `json:"data"`
	Diagnostics map[string]any `json:"diagnostics,omitempty"`
	Guidance    []string       `json:"guidance,omitempty"`
}

// WrapResponse builds the envelope, dropping empty sections.
func WrapResponse(data any, context, diagnostics map[string]any, guidance []string) ResponseEnvelope {
	env := ResponseEnvelope{Data: data, Guidance: guidance}
	if len(context) > 0 {
		env.Context = context
	}
	if len(diagnostics) > 0 {
		env.Diagnostics = diagnostics
	}
	return env
}

func formatResult(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(out), nil
}

// textResult renders an envelope as the single text content of a tool result.
func textResult(env ResponseEnvelope) (*sdk.CallToolResult, any, error) {
	text, err := formatResult(env)
	if err != nil {
		return nil, nil, err
	}
	return &sdk.CallToolResult{Content: []sdk.Content{&sdk.TextContent{Text: text}}}, nil, nil
}

// filterContext echoes the active filter into the response context.
func filterContext(f stats.Filter, tolerance int) map[string]any {
	ctx := map[string]any{"tolerance": tolerance}
	if f.Key() != (stats.Filter{}).Key() {
		ctx["filter"] = f
	}
	return ctx
}

func limitOr(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}

func truncate[T any](rows []T, limit int) ([]T, bool) {
	if len(rows) <= limit {
		return rows, false
	}
	return rows[:limit], true
}

func normalizeSections(sections []string) (map[string]bool, error) {
	if len(sections) == 0 {
		return nil, nil
	}
	out := make(map[string]bool, len(sections))
	for _, s := range sections {
		key := strings.ToLower(strings.TrimSpace(s))
		switch key {
		case sectionKPIs, sectionAnomalies, sectionDrivers, sectionGeography, sectionGroups, sectionTemporal, sectionWorkload, sectionStability:
			out[key] = true
		default:
			return nil, fmt.Errorf("unknown section %q", s)
		}
	}
	return out, nil
}
