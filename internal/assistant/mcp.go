package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fortuna/courtvision/internal/engine"
	"github.com/fortuna/courtvision/internal/injury"
	"github.com/fortuna/courtvision/internal/schedule"
	"github.com/fortuna/courtvision/internal/trend"
)

// Source is what the tools read from. *engine.Engine satisfies it.
type Source interface {
	Trends(ctx context.Context) ([]trend.Record, error)
	Injuries(ctx context.Context) (injury.Report, error)
	Schedule(ctx context.Context) (schedule.Index, error)
	Snapshot(ctx context.Context) engine.Snapshot
	DeepDive(ctx context.Context, query string) (trend.DeepDive, error)
}

type TrendsArgs struct {
	Limit  int    `json:"limit" jsonschema:"Return at most this many records (0 = all)"`
	Status string `json:"status" jsonschema:"Only records with this status, e.g. super hot"`
}

type NoArgs struct{}

type DeepDiveArgs struct {
	Name string `json:"name" jsonschema:"Player name or part of it (required)"`
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Tools serves the MCP tool surface.
type Tools struct {
	src      Source
	server   *mcp.Server
	registry []ToolInfo
}

// NewMCPServer registers the trend tools on a fresh MCP server.
func NewMCPServer(src Source, version string) *Tools {
	t := &Tools{
		src: src,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "courtvision",
			Version: version,
		}, nil),
	}

	addTool(t, &mcp.Tool{
		Name:        "get_trends",
		Description: "Players ranked by recent-minus-season delta with matchup and status",
	}, t.getTrends)
	addTool(t, &mcp.Tool{
		Name:        "get_injuries",
		Description: "Injury report keyed by canonical player name",
	}, t.getInjuries)
	addTool(t, &mcp.Tool{
		Name:        "get_schedule",
		Description: "Today's games as a team id to opponent team id map",
	}, t.getSchedule)
	addTool(t, &mcp.Tool{
		Name:        "get_assistant_context",
		Description: "Trends, injuries and schedule in one payload",
	}, t.getContext)
	addTool(t, &mcp.Tool{
		Name:        "player_deep_dive",
		Description: "Recent PRA versus season PRA and a last-games chart for one player",
	}, t.playerDeepDive)

	return t
}

func addTool[T any](t *Tools, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	t.registry = append(t.registry, ToolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(t.server, tool, handler)
}

// Server returns the underlying MCP server.
func (t *Tools) Server() *mcp.Server { return t.server }

// Registry lists the registered tools in registration order.
func (t *Tools) Registry() []ToolInfo {
	out := make([]ToolInfo, len(t.registry))
	copy(out, t.registry)
	return out
}

// Handler serves the tools over streamable HTTP.
func (t *Tools) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return t.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func (t *Tools) getTrends(ctx context.Context, _ *mcp.CallToolRequest, args TrendsArgs) (*mcp.CallToolResult, any, error) {
	records, err := t.src.Trends(ctx)
	if err != nil && len(records) == 0 {
		return toolError(err), nil, nil
	}
	if status := strings.ToLower(strings.TrimSpace(args.Status)); status != "" {
		filtered := make([]trend.Record, 0, len(records))
		for _, r := range records {
			if r.Status == status {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	if args.Limit > 0 && len(records) > args.Limit {
		records = records[:args.Limit]
	}
	return toolJSON(records)
}

func (t *Tools) getInjuries(ctx context.Context, _ *mcp.CallToolRequest, _ NoArgs) (*mcp.CallToolResult, any, error) {
	report, err := t.src.Injuries(ctx)
	if err != nil && len(report) == 0 {
		return toolError(err), nil, nil
	}
	return toolJSON(report.Statuses())
}

func (t *Tools) getSchedule(ctx context.Context, _ *mcp.CallToolRequest, _ NoArgs) (*mcp.CallToolResult, any, error) {
	sched, err := t.src.Schedule(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(sched)
}

func (t *Tools) getContext(ctx context.Context, _ *mcp.CallToolRequest, _ NoArgs) (*mcp.CallToolResult, any, error) {
	return toolJSON(FromSnapshot(t.src.Snapshot(ctx)))
}

func (t *Tools) playerDeepDive(ctx context.Context, _ *mcp.CallToolRequest, args DeepDiveArgs) (*mcp.CallToolResult, any, error) {
	name := strings.TrimSpace(args.Name)
	if name == "" {
		return toolError(fmt.Errorf("name is required")), nil, nil
	}
	dive, err := t.src.DeepDive(ctx, name)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(dive)
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
