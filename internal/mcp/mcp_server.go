// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"sync"

	"github.com/huangsam/healthgap/core"
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// cohortNames lists the cohort arguments accepted by the tools.
var cohortNames = []string{"lgbtq", "elderly", "disabled", "informal_workers", "general_population"}

// ResultsLoader computes the indicator results served by the tools.
type ResultsLoader func(ctx context.Context) (*core.Results, error)

// NewMCPServer initializes and configures the healthgap MCP server without starting it.
// A nil loader reads baseCfg.DataDir once, on the first tool call that needs data.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager, loader ResultsLoader) *server.MCPServer {
	s := server.NewMCPServer(
		"Health Equity Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	if loader == nil {
		loader = func(ctx context.Context) (*core.Results, error) {
			return core.LoadResults(core.WithSuppressHeader(ctx), baseCfg, mgr)
		}
	}

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		results: sync.OnceValues(func() (*core.Results, error) {
			return loader(context.Background())
		}),
	}

	// --- 1. Tool: get_indicator_data ---
	s.AddTool(mcp.NewTool("get_indicator_data",
		mcp.WithDescription("Get health-equity indicator values, goodness scores and domain scores for a district and cohort."),
		mcp.WithString("domain", mcp.Description("Domain to report (e.g. 'education'). Defaults to every domain.")),
		mcp.WithString("district", mcp.Description("District name or 'Bangkok Overall' (the default).")),
		mcp.WithString("cohort", mcp.Description("Population cohort. Defaults to every cohort."), mcp.Enum(cohortNames...)),
		mcp.WithString("indicator_type", mcp.Description("Filter by indicator source (all, survey, supply)."), mcp.Enum("all", "survey", "supply")),
	), h.handleGetIndicatorData)

	// --- 2. Tool: get_available_districts ---
	s.AddTool(mcp.NewTool("get_available_districts",
		mcp.WithDescription("List districts that have survey data, with their record counts and populations."),
	), h.handleGetAvailableDistricts)

	// --- 3. Tool: get_available_domains ---
	s.AddTool(mcp.NewTool("get_available_domains",
		mcp.WithDescription("List the health-equity domains in catalog order."),
	), h.handleGetAvailableDomains)

	// --- 4. Tool: get_top_correlations ---
	s.AddTool(mcp.NewTool("get_top_correlations",
		mcp.WithDescription("Rank indicators by Pearson correlation with a target indicator, with significance tests."),
		mcp.WithString("target", mcp.Description("Target indicator name (e.g. 'diabetes')."), mcp.Required()),
		mcp.WithString("district", mcp.Description("District name or 'Bangkok Overall' (the default).")),
		mcp.WithString("cohort", mcp.Description("Restrict records to one cohort."), mcp.Enum(cohortNames...)),
		mcp.WithString("domain", mcp.Description("Restrict candidate indicators to one domain.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of correlations returned.")),
		mcp.WithNumber("min_correlation", mcp.Description("Minimum absolute correlation between 0 and 1.")),
	), h.handleGetTopCorrelations)

	// --- 5. Tool: compare_cohorts ---
	s.AddTool(mcp.NewTool("compare_cohorts",
		mcp.WithDescription("Compare the indicator goodness of a target cohort against a base cohort within a district."),
		mcp.WithString("target_cohort", mcp.Description("Cohort to compare."), mcp.Required(), mcp.Enum(cohortNames...)),
		mcp.WithString("base_cohort", mcp.Description("Reference cohort. Defaults to general_population."), mcp.Enum(cohortNames...)),
		mcp.WithString("district", mcp.Description("District name or 'Bangkok Overall' (the default).")),
		mcp.WithString("domain", mcp.Description("Restrict the comparison to one domain.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of gaps returned.")),
	), h.handleCompareCohorts)

	return s
}

// StartMCPServer starts the healthgap MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr, nil)
	return server.ServeStdio(s)
}
