package serper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	d402 "github.com/Traia-IO/test-serper-api-mcp-server"
	"github.com/Traia-IO/test-serper-api-mcp-server/gateway"
)

// DefaultPrice returns the per-call price shared by all Serper tools:
// 1e-05 tokens on sepolia, signed under the IATPWallet domain.
func DefaultPrice() d402.PriceDescriptor {
	return d402.PriceDescriptor{
		Amount: "10000000000000",
		Asset: d402.TokenAsset{
			Address:  "0x3e17730bb2ca51a8D5deD7E44c003A2e95a4d822",
			Decimals: 6,
			Network:  "sepolia",
			EIP712: d402.EIP712Domain{
				Name:    "IATPWallet",
				Version: "1",
			},
		},
	}
}

// RegisterTools adds the Serper search tools to the gateway as payable
// tools, each at the default price.
func RegisterTools(srv *gateway.Server, client *Client) {
	price := DefaultPrice()
	srv.AddPayableTool(searchTool(), toolHandler("/search", client.Search), price)
	srv.AddPayableTool(newsTool(), toolHandler("/news", client.News), price)
	srv.AddPayableTool(scholarTool(), toolHandler("/scholar", client.Scholar), price)
}

func searchTool() mcp.Tool {
	return newQueryTool("serper_search",
		"Perform a Google web search using Serper. Returns high-level structured SERP signals such as knowledge graph and answer boxes.")
}

func newsTool() mcp.Tool {
	return newQueryTool("serper_news",
		"Perform a Google News search using Serper. Returns structured news article metadata.")
}

func scholarTool() mcp.Tool {
	return newQueryTool("serper_scholar",
		"Perform a Google Scholar search using Serper. Returns structured academic metadata.")
}

// newQueryTool builds a tool definition with the parameter set shared by
// all Serper search endpoints.
func newQueryTool(name, description string) mcp.Tool {
	return mcp.NewTool(
		name,
		mcp.WithDescription(description),
		mcp.WithString("q", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("gl", mcp.Description("Country code for search results (e.g. \"us\")")),
		mcp.WithString("hl", mcp.Description("Language / locale code (e.g. \"en\")")),
		mcp.WithString("location", mcp.Description("Geographic location to localize results")),
		mcp.WithBoolean("autocorrect", mcp.Description("Enable or disable Google's autocorrect")),
		mcp.WithNumber("num", mcp.Description("Number of results to return")),
		mcp.WithNumber("page", mcp.Description("Page number for pagination")),
	)
}

// toolHandler adapts a client endpoint into an MCP tool handler. Upstream
// failures come back as tool errors so they are never mistaken for payment
// errors.
func toolHandler(endpoint string, call func(context.Context, Query) (json.RawMessage, error)) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := call(ctx, queryFromArgs(req.GetArguments()))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("error calling %s: %v", endpoint, err)), nil
		}
		return mcp.NewToolResultText(string(result)), nil
	}
}

func queryFromArgs(args map[string]interface{}) Query {
	var q Query
	q.Q, _ = args["q"].(string)
	q.GL, _ = args["gl"].(string)
	q.HL, _ = args["hl"].(string)
	q.Location, _ = args["location"].(string)
	q.Autocorrect, _ = args["autocorrect"].(bool)
	if num, ok := args["num"].(float64); ok {
		q.Num = int(num)
	}
	if page, ok := args["page"].(float64); ok {
		q.Page = int(page)
	}
	return q
}
