// Package admission implements the payment-gated admission pipeline: the
// per-request decision of whether a tool invocation may proceed, made from
// an extracted credential, an optional payment proof, and the tool's
// registered price. The engine holds no mutable state across requests and is
// safe for concurrent use.
package admission

import (
	"context"
	"time"

	"go.uber.org/zap"

	d402 "github.com/Traia-IO/test-serper-api-mcp-server"
	"github.com/Traia-IO/test-serper-api-mcp-server/auth"
	"github.com/Traia-IO/test-serper-api-mcp-server/facilitator"
	"github.com/Traia-IO/test-serper-api-mcp-server/pricing"
)

// Config is the immutable gateway configuration the engine decides against.
type Config struct {
	// TestingMode admits every request unconditionally, skipping credential
	// and payment checks entirely. It disables the economic guarantee of the
	// gateway and is logged loudly on every admission.
	TestingMode bool

	// InternalCredential is the operator-provisioned secret that bypasses
	// payment. Empty disables credential admission.
	InternalCredential string

	// PayTo is the address payments must be made out to.
	PayTo string

	// VerifyTimeout bounds the settlement-authority call. Defaults to
	// facilitator.DefaultVerifyTimeout.
	VerifyTimeout time.Duration
}

// Engine orchestrates the admission decision for every inbound tool call.
type Engine struct {
	cfg       Config
	prices    *pricing.Registry
	authority facilitator.Authority
	log       *zap.Logger
	now       func() time.Time
}

// NewEngine builds an admission engine. The authority may be nil only when
// testing mode is on; without it every proof-bearing request is denied as
// SettlementUnavailable.
func NewEngine(cfg Config, prices *pricing.Registry, authority facilitator.Authority, log *zap.Logger) *Engine {
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = facilitator.DefaultVerifyTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		prices:    prices,
		authority: authority,
		log:       log,
		now:       time.Now,
	}
}

// Admit runs the decision rules in order, first match wins:
//
//  1. testing mode admits unconditionally
//  2. a credential equal to the internal secret admits without payment
//  3. a submitted proof is pre-checked against the current price, then
//     verified synchronously with the settlement authority, at most once
//  4. everything else is denied with the priced terms attached
//
// The empty credential means anonymous. A malformed proof is treated as
// absent, so broken caller input degrades to "must pay" rather than an
// error. Admit never invokes the tool; it only decides whether it may run.
func (e *Engine) Admit(ctx context.Context, tool string, credential string, proof *d402.PaymentProof) d402.Admission {
	if e.cfg.TestingMode {
		e.log.Warn("testing mode bypass: admitting request without payment verification",
			zap.String("tool", tool))
		return d402.Admit(d402.ReasonTestingModeBypass)
	}

	if credential != "" && auth.Match(credential, e.cfg.InternalCredential) {
		e.log.Debug("internal credential accepted", zap.String("tool", tool))
		return d402.Admit(d402.ReasonCredentialValid)
	}

	price, priced := e.prices.Resolve(tool)
	if !priced {
		// The transport only gates tools present in the registry, so an
		// unpriced tool here means a wiring bug. Fail closed.
		e.log.Error("admission requested for unpriced tool", zap.String("tool", tool))
		return d402.Deny(d402.DenyPaymentRequired, price, "tool is not priced")
	}

	if proof.WellFormed() {
		return e.verifyProof(ctx, tool, price, *proof)
	}
	if proof != nil {
		e.log.Info("discarding malformed payment proof", zap.String("tool", tool))
	}

	return d402.Deny(d402.DenyPaymentRequired, price, "no credential or payment proof presented")
}

// verifyProof applies the structural pre-checks and defers the semantic
// decision to the settlement authority. Pre-checks are deliberately thin:
// anything the authority decides (signature, balance, replay) must not be
// duplicated here.
func (e *Engine) verifyProof(ctx context.Context, tool string, price d402.PriceDescriptor, proof d402.PaymentProof) d402.Admission {
	if !proof.Price.Equal(price) {
		e.log.Info("payment proof carries stale price snapshot",
			zap.String("tool", tool),
			zap.String("offered", proof.Price.Amount),
			zap.String("current", price.Amount))
		return d402.Deny(d402.DenyPriceMismatch, price, "proof price snapshot does not match current price")
	}

	if proof.ValidBefore != 0 && !e.now().Before(time.Unix(proof.ValidBefore, 0)) {
		e.log.Info("payment proof expired", zap.String("tool", tool), zap.Int64("validBefore", proof.ValidBefore))
		return d402.Deny(d402.DenyPaymentRejected, price, d402.ErrExpiredProof.Error())
	}

	if e.authority == nil {
		e.log.Error("no settlement authority configured, denying proof-bearing request")
		return d402.Deny(d402.DenySettlementUnavailable, price, "no settlement authority configured")
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.VerifyTimeout)
	defer cancel()

	result, err := e.authority.Verify(ctx, proof, price, e.cfg.PayTo)
	if err != nil {
		// Fail closed: an unreachable authority is never an implicit pass,
		// and the call is not retried within the request.
		e.log.Warn("settlement authority unreachable",
			zap.String("tool", tool), zap.Error(err))
		return d402.Deny(d402.DenySettlementUnavailable, price, err.Error())
	}

	if !result.IsValid {
		e.log.Info("settlement authority rejected payment",
			zap.String("tool", tool),
			zap.String("reason", result.InvalidReason),
			zap.String("payer", result.Payer))
		return d402.Deny(d402.DenyPaymentRejected, price, result.InvalidReason)
	}

	e.log.Info("payment verified",
		zap.String("tool", tool),
		zap.String("payer", result.Payer),
		zap.String("amount", pricing.FormatAmount(price.Amount, price.Asset.Decimals)))
	return d402.Admit(d402.ReasonPaymentVerified)
}
