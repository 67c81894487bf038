package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/huangsam/healthgap/core"
	"github.com/huangsam/healthgap/internal/contract"
	mcp_internal "github.com/huangsam/healthgap/internal/mcp"
	"github.com/huangsam/healthgap/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *contract.Config {
	t.Helper()
	dataDir, err := filepath.Abs(filepath.Join("..", "..", "testdata"))
	require.NoError(t, err)
	return &contract.Config{
		DataDir:        dataDir,
		ResultLimit:    10,
		Workers:        2,
		Precision:      2,
		Output:         schema.JSONOut,
		District:       schema.OverallDistrict,
		IndicatorType:  schema.AllIndicators,
		MinCorrelation: 0,
		BaseCohort:     schema.GeneralPopulationCohort,
	}
}

func callTool(t *testing.T, ctx context.Context, name string, args map[string]any, cfg *contract.Config, loader mcp_internal.ResultsLoader) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(cfg, nil, loader)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	// Validation happens before any data is loaded
	failing := func(context.Context) (*core.Results, error) {
		t.Fatal("results should not be loaded for invalid arguments")
		return nil, nil
	}

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		contains string
	}{
		{"compare missing target", "compare_cohorts", map[string]any{}, "--target-cohort is required"},
		{"compare same cohorts", "compare_cohorts", map[string]any{"target_cohort": "elderly", "base_cohort": "elderly"}, "must differ"},
		{"compare invalid cohort", "compare_cohorts", map[string]any{"target_cohort": "robots"}, "invalid --target-cohort"},
		{"indicators invalid domain", "get_indicator_data", map[string]any{"domain": "astrology"}, "invalid domain"},
		{"indicators invalid cohort", "get_indicator_data", map[string]any{"cohort": "robots"}, "invalid cohort"},
		{"correlations missing target", "get_top_correlations", map[string]any{}, "--target is required"},
		{"correlations bad cutoff", "get_top_correlations", map[string]any{"target": "diabetes", "min_correlation": 1.5}, "min_correlation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, ctx, tt.tool, tt.args, cfg, failing)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(t, res), tt.contains)
		})
	}
}

func TestMCPServerHandlers_LoadFailure(t *testing.T) {
	loader := func(context.Context) (*core.Results, error) {
		return nil, errors.New("data directory missing")
	}
	res := callTool(t, context.Background(), "get_available_domains", nil, testConfig(t), loader)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "analysis failed: data directory missing")
}

func TestMCPServerHandlers_Data(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (*core.Results, error) {
		calls++
		return core.LoadResults(core.WithSuppressHeader(ctx), cfg, nil)
	}

	t.Run("get_available_domains", func(t *testing.T) {
		res := callTool(t, ctx, "get_available_domains", nil, cfg, loader)
		require.False(t, res.IsError, resultText(t, res))

		var domains []struct {
			Domain string `json:"domain"`
			Label  string `json:"label"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &domains))
		require.NotEmpty(t, domains)
		assert.NotEmpty(t, domains[0].Label)
	})

	t.Run("get_available_districts", func(t *testing.T) {
		res := callTool(t, ctx, "get_available_districts", nil, cfg, loader)
		require.False(t, res.IsError, resultText(t, res))

		var districts []schema.DistrictInfo
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &districts))
		assert.NotEmpty(t, districts)
	})

	t.Run("get_indicator_data", func(t *testing.T) {
		res := callTool(t, ctx, "get_indicator_data", map[string]any{"domain": "education", "cohort": "elderly"}, cfg, loader)
		require.False(t, res.IsError, resultText(t, res))

		var rows []schema.IndicatorResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &rows))
		require.NotEmpty(t, rows)
		for _, row := range rows {
			assert.Equal(t, schema.EducationDomain, row.Domain)
			assert.Equal(t, schema.ElderlyCohort, row.Cohort)
		}
		assert.True(t, rows[0].IsDomainScore, "the domain score leads each cell")
	})

	t.Run("get_top_correlations", func(t *testing.T) {
		res := callTool(t, ctx, "get_top_correlations", map[string]any{"target": "diabetes", "limit": 5.0}, cfg, loader)
		require.False(t, res.IsError, resultText(t, res))

		var result schema.CorrelationResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &result))
		assert.Equal(t, "diabetes", result.Target)
		assert.LessOrEqual(t, len(result.Entries), 5)
	})

	t.Run("get_top_correlations unknown target", func(t *testing.T) {
		res := callTool(t, ctx, "get_top_correlations", map[string]any{"target": "not_an_indicator"}, cfg, loader)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "unknown target indicator")
	})

	t.Run("compare_cohorts", func(t *testing.T) {
		res := callTool(t, ctx, "compare_cohorts", map[string]any{"target_cohort": "elderly", "limit": 3.0}, cfg, loader)
		require.False(t, res.IsError, resultText(t, res))

		var result schema.ComparisonResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &result))
		assert.Equal(t, schema.ElderlyCohort, result.TargetCohort)
		assert.Equal(t, schema.GeneralPopulationCohort, result.BaseCohort)
	})

	assert.Positive(t, calls)
}

func TestMCPServer_LoadsResultsOnce(t *testing.T) {
	calls := 0
	loader := func(ctx context.Context) (*core.Results, error) {
		calls++
		return nil, errors.New("boom")
	}

	s := mcp_internal.NewMCPServer(testConfig(t), nil, loader)
	for _, name := range []string{"get_available_domains", "get_available_districts"} {
		res, err := s.GetTool(name).Handler(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name}})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	}
	assert.Equal(t, 1, calls)
}
