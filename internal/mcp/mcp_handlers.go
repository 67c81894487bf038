package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/healthgap/core"
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	results func() (*core.Results, error)
}

// domainInfo is one entry of get_available_domains.
type domainInfo struct {
	Domain schema.Domain `json:"domain"`
	Label  string        `json:"label"`
}

// jsonResult encodes v as the text content of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// loadResults returns the shared results or a tool error result.
func (h *toolHandler) loadResults() (*core.Results, *mcp.CallToolResult) {
	results, err := h.results()
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err))
	}
	return results, nil
}

func (h *toolHandler) handleGetIndicatorData(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	err := contract.RevalidateFilters(cfg,
		request.GetString("domain", ""),
		request.GetString("district", ""),
		request.GetString("cohort", ""),
		request.GetString("indicator_type", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	results, errResult := h.loadResults()
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(core.IndicatorData(results, cfg))
}

func (h *toolHandler) handleGetAvailableDistricts(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results, errResult := h.loadResults()
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(results.GetAvailableDistricts())
}

func (h *toolHandler) handleGetAvailableDomains(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results, errResult := h.loadResults()
	if errResult != nil {
		return errResult, nil
	}
	domains := results.GetAvailableDomains()
	out := make([]domainInfo, len(domains))
	for i, d := range domains {
		out[i] = domainInfo{Domain: d, Label: schema.DomainLabel(d)}
	}
	return jsonResult(out)
}

func (h *toolHandler) handleGetTopCorrelations(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.Target = request.GetString("target", "")
	if cfg.Target == "" {
		return mcp.NewToolResultError("invalid parameters: --target is required"), nil
	}
	err := contract.RevalidateFilters(cfg,
		request.GetString("domain", ""),
		request.GetString("district", ""),
		request.GetString("cohort", ""),
		"")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = min(l, contract.MaxResultLimit)
	}
	if mc := request.GetFloat("min_correlation", -1); mc >= 0 {
		if mc > 1 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: min_correlation must be between 0 and 1 (received %.3f)", mc)), nil
		}
		cfg.MinCorrelation = mc
	}

	results, errResult := h.loadResults()
	if errResult != nil {
		return errResult, nil
	}
	if _, ok := results.Registry().Rule(cfg.Target); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown target indicator %q", cfg.Target)), nil
	}
	return jsonResult(core.Correlations(results, cfg, h.mgr))
}

func (h *toolHandler) handleCompareCohorts(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := contract.RevalidateCompare(cfg, request.GetString("base_cohort", ""), request.GetString("target_cohort", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid comparison parameters: %v", err)), nil
	}
	if err := contract.RevalidateFilters(cfg, request.GetString("domain", ""), request.GetString("district", ""), "", ""); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid comparison parameters: %v", err)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = min(l, contract.MaxResultLimit)
	}

	results, errResult := h.loadResults()
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(core.CompareCohorts(results, cfg))
}
