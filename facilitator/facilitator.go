// Package facilitator provides the settlement-authority client used to
// verify payment proofs. The authority is the single source of truth for
// what counts as "paid": signature validity, balance sufficiency, and
// anti-replay all live on its side of the interface.
package facilitator

import (
	"context"

	d402 "github.com/Traia-IO/test-serper-api-mcp-server"
)

// Authority is the settlement-authority contract consumed by the admission
// engine. Implementations must be safe for concurrent use and must honor
// context cancellation; a hung verification must never hang the caller.
type Authority interface {
	// Verify checks a payment proof against the priced terms and the
	// configured receiving address. A transport or protocol failure is
	// returned as an error wrapping d402.ErrSettlementUnavailable; an
	// explicit rejection comes back as a result with IsValid false.
	Verify(ctx context.Context, proof d402.PaymentProof, price d402.PriceDescriptor, payTo string) (*VerifyResult, error)
}

// VerifyResult is the authority's verdict on one payment proof.
type VerifyResult struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}
