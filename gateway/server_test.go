package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	d402 "github.com/Traia-IO/test-serper-api-mcp-server"
)

func echoHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("ok"), nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer("test-serper-api-mcp-server", "1.0.0")
	tool := mcp.NewTool("serper_search",
		mcp.WithDescription("test tool"),
		mcp.WithString("q", mcp.Required()),
	)
	srv.AddPayableTool(tool, mcpserver.ToolHandlerFunc(echoHandler), searchPrice())
	return srv
}

func TestServer_HealthBypassesPipeline(t *testing.T) {
	srv := newTestServer(t)
	handler, err := srv.Handler(Options{TestingMode: true})
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding health body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
	if body["service"] != "test-serper-api-mcp-server" {
		t.Errorf("service = %q", body["service"])
	}
}

func TestServer_TestingModeNeverReturns402(t *testing.T) {
	srv := newTestServer(t)
	handler, err := srv.Handler(Options{TestingMode: true})
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(toolCallBody("serper_search", nil)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code == http.StatusPaymentRequired {
		t.Error("testing mode returned 402")
	}
}

func TestServer_GatedToolReturns402ThroughRouter(t *testing.T) {
	srv := newTestServer(t)
	handler, err := srv.Handler(Options{
		Authority: &fakeAuthority{},
		PayTo:     "0x3e17730bb2ca51a8D5deD7E44c003A2e95a4d822",
	})
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(toolCallBody("serper_search", nil)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestServer_HandlerRequiresAuthorityOutsideTestingMode(t *testing.T) {
	srv := newTestServer(t)
	if _, err := srv.Handler(Options{}); err == nil {
		t.Error("Handler() accepted a config with no authority and testing mode off")
	}
}

func TestServer_HandlerRejectsUnpricedPayableTool(t *testing.T) {
	srv := NewServer("test", "1.0.0")
	tool := mcp.NewTool("broken", mcp.WithDescription("payable tool with an empty price"))
	srv.AddPayableTool(tool, mcpserver.ToolHandlerFunc(echoHandler), d402.PriceDescriptor{})

	if _, err := srv.Handler(Options{TestingMode: true}); err == nil {
		t.Error("Handler() accepted a payable tool without a valid price")
	}
}

func TestServer_CORSExposesSessionHeader(t *testing.T) {
	srv := newTestServer(t)
	handler, err := srv.Handler(Options{TestingMode: true})
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Mcp-Session-Id") {
		t.Errorf("Access-Control-Expose-Headers = %q, want Mcp-Session-Id", got)
	}
}
