// Package gateway wraps an MCP server with the D402 payment pipeline. Every
// tools/call request is run through the admission engine before the MCP
// handler sees it; denials surface as real HTTP 402 responses rather than
// JSON-RPC errors.
package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	d402 "github.com/Traia-IO/test-serper-api-mcp-server"
	"github.com/Traia-IO/test-serper-api-mcp-server/admission"
	"github.com/Traia-IO/test-serper-api-mcp-server/facilitator"
	"github.com/Traia-IO/test-serper-api-mcp-server/pricing"
)

// Server wraps an MCP server and records the price declared for each
// payable tool. The price registry is built once when the HTTP handler is
// constructed; registration after that point has no effect.
type Server struct {
	name      string
	mcpServer *mcpserver.MCPServer
	prices    []pricing.ToolPrice
}

// NewServer creates an MCP server with D402 payment support.
func NewServer(name, version string) *Server {
	return &Server{
		name:      name,
		mcpServer: mcpserver.NewMCPServer(name, version),
	}
}

// AddTool adds a free tool. Free tools bypass the admission pipeline.
func (s *Server) AddTool(tool mcpproto.Tool, handler mcpserver.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
}

// AddPayableTool adds a tool gated behind the given price. The price is
// validated when the registry is built; a payable tool with an invalid
// price fails startup.
func (s *Server) AddPayableTool(tool mcpproto.Tool, handler mcpserver.ToolHandlerFunc, price d402.PriceDescriptor) {
	s.prices = append(s.prices, pricing.ToolPrice{Tool: tool.Name, Price: price})
	s.mcpServer.AddTool(tool, handler)
}

// Options carries the gateway configuration for the HTTP handler.
type Options struct {
	// TestingMode unconditionally admits every request. Dangerous; see
	// admission.Config.
	TestingMode bool

	// InternalCredential is the operator secret granting payment-free
	// access. Empty disables credential admission.
	InternalCredential string

	// PayTo is the receiving address payments must be made out to.
	PayTo string

	// Authority verifies payment proofs. Required unless TestingMode is on.
	Authority facilitator.Authority

	// VerifyTimeout bounds the authority call. Zero uses the default.
	VerifyTimeout time.Duration

	// Logger defaults to a no-op logger when nil.
	Logger *zap.Logger
}

// Handler builds the full HTTP surface: the payment-gated MCP endpoint at
// /mcp, a health endpoint that bypasses the pipeline, and allow-all CORS
// exposing the MCP session header. Building the handler validates every
// registered price; the returned error is startup-fatal.
func (s *Server) Handler(opts Options) (http.Handler, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	registry, err := pricing.Build(s.prices)
	if err != nil {
		return nil, fmt.Errorf("building price registry: %w", err)
	}
	if !opts.TestingMode && opts.Authority == nil {
		return nil, fmt.Errorf("%w: no settlement authority configured", d402.ErrSettlementUnavailable)
	}

	engine := admission.NewEngine(admission.Config{
		TestingMode:        opts.TestingMode,
		InternalCredential: opts.InternalCredential,
		PayTo:              opts.PayTo,
		VerifyTimeout:      opts.VerifyTimeout,
	}, registry, opts.Authority, log)

	mcpHandler := mcpserver.NewStreamableHTTPServer(s.mcpServer)
	payment := NewPaymentHandler(mcpHandler, engine, registry, log)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Mcp-Session-Id"},
		AllowCredentials: false,
	}))
	r.Get("/health", s.healthHandler)
	r.Handle("/mcp", payment)
	r.Handle("/mcp/*", payment)

	return r, nil
}

// healthHandler reports static liveness for container orchestration. It is
// unauthenticated and never touches the payment pipeline.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"service":   s.name,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
