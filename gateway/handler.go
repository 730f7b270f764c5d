package gateway

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	d402 "github.com/Traia-IO/test-serper-api-mcp-server"
	"github.com/Traia-IO/test-serper-api-mcp-server/admission"
	"github.com/Traia-IO/test-serper-api-mcp-server/auth"
	"github.com/Traia-IO/test-serper-api-mcp-server/pricing"
)

// PaymentHandler intercepts MCP tools/call requests and runs them through
// the admission engine before forwarding to the wrapped MCP handler. All
// other traffic (initialize, tools/list, GET streams, free tools) passes
// through untouched.
type PaymentHandler struct {
	next     http.Handler
	engine   *admission.Engine
	registry *pricing.Registry
	log      *zap.Logger
}

// NewPaymentHandler wraps an MCP HTTP handler with payment admission.
func NewPaymentHandler(next http.Handler, engine *admission.Engine, registry *pricing.Registry, log *zap.Logger) *PaymentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentHandler{
		next:     next,
		engine:   engine,
		registry: registry,
		log:      log,
	}
}

func (h *PaymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only POSTed JSON-RPC calls can carry a tool invocation.
	if r.Method != http.MethodPost {
		h.next.ServeHTTP(w, r)
		return
	}

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var rpcReq struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
		ID      interface{}     `json:"id"`
	}
	if err := json.Unmarshal(bodyBytes, &rpcReq); err != nil || rpcReq.Method != "tools/call" {
		// Not a tool call (or a batch/parse case the MCP handler owns).
		h.next.ServeHTTP(w, r)
		return
	}

	var toolParams struct {
		Name string                 `json:"name"`
		Meta map[string]interface{} `json:"_meta"`
	}
	if err := json.Unmarshal(rpcReq.Params, &toolParams); err != nil {
		h.next.ServeHTTP(w, r)
		return
	}

	if _, payable := h.registry.Resolve(toolParams.Name); !payable {
		h.next.ServeHTTP(w, r)
		return
	}

	log := h.log.With(
		zap.String("requestID", uuid.NewString()),
		zap.String("tool", toolParams.Name),
	)

	credential, _ := auth.ExtractCredential(r.Header)
	proof := extractProof(r.Header, toolParams.Meta)

	result := h.engine.Admit(r.Context(), toolParams.Name, credential, proof)
	if !result.Admitted {
		log.Info("tool invocation denied", zap.String("reasonCode", string(result.Denial.Code)))
		writePaymentRequired(w, result.Denial)
		return
	}

	log.Info("tool invocation admitted", zap.String("reason", string(result.Reason)))
	h.next.ServeHTTP(w, r)
}

// extractProof pulls a payment proof from the X-Payment header (base64
// JSON) or, failing that, from params._meta["d402/payment"]. Malformed
// input in either location yields nil: the caller is treated as anonymous.
func extractProof(header http.Header, meta map[string]interface{}) *d402.PaymentProof {
	if raw := header.Get(d402.HeaderPayment); raw != "" {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil
		}
		var proof d402.PaymentProof
		if err := json.Unmarshal(decoded, &proof); err != nil {
			return nil
		}
		return &proof
	}

	if meta == nil {
		return nil
	}
	payload, ok := meta[d402.MetaKeyPayment]
	if !ok {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	var proof d402.PaymentProof
	if err := json.Unmarshal(data, &proof); err != nil {
		return nil
	}
	return &proof
}

// writePaymentRequired emits the denial as a real HTTP 402 with the stable
// JSON payment-protocol body, never folded into a JSON-RPC error envelope.
// The denial detail stays server-side.
func writePaymentRequired(w http.ResponseWriter, denial *d402.Denial) {
	resp := d402.PaymentRequiredResponse{
		D402Version:          d402.D402Version,
		ReasonCode:           denial.Code,
		Error:                paymentRequiredMessage(denial.Code),
		Price:                denial.Price,
		AcceptedProofFormats: denial.AcceptedProofFormats,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	_ = json.NewEncoder(w).Encode(resp)
}

func paymentRequiredMessage(code d402.DenialCode) string {
	switch code {
	case d402.DenyPriceMismatch:
		return "payment proof was made against an outdated price"
	case d402.DenyPaymentRejected:
		return "payment proof was rejected"
	case d402.DenySettlementUnavailable:
		return "payment could not be verified, try again later"
	default:
		return "payment required to access this tool"
	}
}
