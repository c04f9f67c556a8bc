package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/ipaudit/core"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
	client  contract.GitClient
}

// requestConfig clones the base config and applies the shared repo_path and
// findings_path arguments.
func (h *toolHandler) requestConfig(ctx context.Context, request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("repo_path", ""); p != "" {
		if err := contract.RevalidateRepoPath(ctx, cfg, h.client, p); err != nil {
			return nil, err
		}
	}
	if f := request.GetString("findings_path", ""); f != "" {
		if err := contract.RevalidateFindings(cfg, f); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (h *toolHandler) handleClassifyFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	origin := schema.Origin(request.GetString("origin", ""))
	if _, ok := schema.ValidOrigins[origin]; origin != "" && !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: unknown origin %q", origin)), nil
	}

	records, _, err := core.GetClassificationResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classification failed: %v", err)), nil
	}

	if origin != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.Origin == origin {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	return jsonResult(limitSlice(records, request.GetInt("limit", 0)))
}

func (h *toolHandler) handleScoreFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	ranked, _, err := core.GetScoreResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}

	if request.GetBool("rewriteable_only", false) {
		filtered := ranked[:0]
		for _, r := range ranked {
			if r.Rewriteable {
				filtered = append(filtered, r)
			}
		}
		ranked = filtered
	}
	return jsonResult(limitSlice(ranked, request.GetInt("limit", 0)))
}

func (h *toolHandler) handleEstimateCost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if err := contract.RevalidateCost(cfg, optionalFloat(request, "hourly_rate"), optionalFloat(request, "days_per_kloc"), request.GetString("currency", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid cost parameters: %v", err)), nil
	}

	cost, _, err := core.GetCostResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cost estimate failed: %v", err)), nil
	}
	return jsonResult(struct {
		schema.CostRecord
		Model schema.CostModel `json:"model"`
	}{cost, cfg.Cost})
}

func (h *toolHandler) handleGenerateNarrative(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	audience := request.GetString("audience", "all")
	switch audience {
	case "all", "executive", "board", "engineering":
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: unknown audience %q", audience)), nil
	}
	cfg, err := h.requestConfig(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	result, _, err := core.GetNarrativeResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("narrative generation failed: %v", err)), nil
	}

	bundle := result.Narrative
	switch audience {
	case "executive":
		return jsonResult(bundle.Executive)
	case "board":
		return jsonResult(bundle.Board)
	case "engineering":
		return jsonResult(bundle.Engineering)
	}
	return jsonResult(bundle)
}

// optionalFloat returns nil when the argument was not supplied.
func optionalFloat(request mcp.CallToolRequest, key string) *float64 {
	if _, ok := request.GetArguments()[key]; !ok {
		return nil
	}
	v := request.GetFloat(key, 0)
	return &v
}

func limitSlice[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
