package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/silence/internal/catalog"
)

const catalogResourceURI = "incidents://catalog"

// NewMCPServer creates an MCP server exposing the incident catalog as tools
// and a read-only resource.
func NewMCPServer(cat Catalog, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"silence",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("The Silence Engine: resolve resonance incidents by reading their traces and choosing the failing construct."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_incidents",
			mcp.WithDescription("List every incident with its description, trace lines and choices."),
		),
		mcpListIncidents(cat),
	)

	s.AddTool(
		mcp.NewTool("get_incident",
			mcp.WithDescription("Fetch a single incident by index."),
			mcp.WithNumber("index", mcp.Description("Incident index (1, 2, 3, ...)"), mcp.Required()),
		),
		mcpGetIncident(cat),
	)

	s.AddTool(
		mcp.NewTool("submit_answer",
			mcp.WithDescription("Submit a choice key for an incident and get correctness feedback."),
			mcp.WithNumber("index", mcp.Description("Incident index"), mcp.Required()),
			mcp.WithString("choice", mcp.Description("Choice key, e.g. A"), mcp.Required()),
		),
		mcpSubmitAnswer(cat),
	)

	s.AddResource(
		mcp.NewResource(
			catalogResourceURI,
			"Incident Catalog",
			mcp.WithResourceDescription("All incidents as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCatalog(cat),
	)

	return s
}

func mcpListIncidents(cat Catalog) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcpJSON(cat.List()), nil
	}
}

func mcpGetIncident(cat Catalog) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		index, bad := mcpIndex(req)
		if bad != nil {
			return bad, nil
		}

		v, err := cat.Get(index)
		if err != nil {
			return mcpCatalogError(err), nil
		}
		return mcpJSON(v), nil
	}
}

func mcpSubmitAnswer(cat Catalog) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		index, bad := mcpIndex(req)
		if bad != nil {
			return bad, nil
		}
		choice := req.GetString("choice", "")

		res, err := cat.Submit(index, choice)
		if err != nil {
			return mcpCatalogError(err), nil
		}
		return mcpJSON(res), nil
	}
}

func mcpResourceCatalog(cat Catalog) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(cat.List())
		if err != nil {
			return nil, fmt.Errorf("marshalling catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      catalogResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

// mcpIndex reads the index argument. JSON numbers arrive as float64, so a
// fractional value is rejected rather than truncated.
func mcpIndex(req mcp.CallToolRequest) (int, *mcp.CallToolResult) {
	f, err := req.RequireFloat("index")
	if err != nil {
		return 0, mcpError(err.Error())
	}
	if f != math.Trunc(f) {
		return 0, mcpError(detailIndexNotInteger)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, mcpError(detailNotFound)
	}
	return int(f), nil
}

func mcpCatalogError(err error) *mcp.CallToolResult {
	if errors.Is(err, catalog.ErrNotFound) {
		return mcpError(detailNotFound)
	}
	return mcpError(err.Error())
}

func mcpJSON(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(data))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
