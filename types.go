// Package d402 defines the wire types and sentinel errors for the D402
// payment protocol: the 402 response body a gated server emits, the price
// descriptor attached to every payable tool, and the payment proof a caller
// submits to satisfy that price. Verification of a proof is delegated to an
// external settlement authority; this package only describes the shapes that
// cross the wire.
package d402

import (
	"math/big"
	"strings"
)

// D402Version is the protocol version (currently 1).
const D402Version = 1

// Header and metadata locations for a submitted payment proof.
const (
	// HeaderPayment is the HTTP header carrying a base64-encoded JSON proof.
	HeaderPayment = "X-Payment"

	// MetaKeyPayment is the key for a proof embedded in MCP request
	// params._meta.
	MetaKeyPayment = "d402/payment"
)

// ProofFormatEIP712 identifies the EIP-712 transfer-authorization proof
// format accepted by this server.
const ProofFormatEIP712 = "d402/eip712-transfer-authorization@1"

// AcceptedProofFormats returns the proof formats the server accepts,
// advertised in every 402 response so callers can construct a valid retry.
func AcceptedProofFormats() []string {
	return []string{ProofFormatEIP712}
}

// EIP712Domain holds the signing-domain parameters a payer must use when
// signing a transfer authorization for the priced asset.
type EIP712Domain struct {
	Name    string `json:"name" validate:"required"`
	Version string `json:"version" validate:"required"`
}

// TokenAsset identifies the token a price is denominated in.
type TokenAsset struct {
	// Address is the token contract address.
	Address string `json:"address" validate:"required"`

	// Decimals is the number of decimal places for the token.
	Decimals int `json:"decimals" validate:"gte=0,lte=36"`

	// Network is the blockchain network identifier (e.g. "sepolia").
	Network string `json:"network" validate:"required"`

	// EIP712 is the signing domain for transfer authorizations.
	EIP712 EIP712Domain `json:"eip712"`
}

// PriceDescriptor is the priced terms for a single tool. Descriptors are
// built once at startup and never mutated afterwards.
type PriceDescriptor struct {
	// Tool is the tool identifier this price applies to. Omitted when the
	// descriptor travels inside a payment proof.
	Tool string `json:"tool,omitempty"`

	// Amount is the payment amount in the smallest asset unit, as a decimal
	// integer string.
	Amount string `json:"amount" validate:"required"`

	// Asset is the token the amount is denominated in.
	Asset TokenAsset `json:"asset"`
}

// AmountBig parses the amount as a base-10 integer.
func (p PriceDescriptor) AmountBig() (*big.Int, bool) {
	return new(big.Int).SetString(p.Amount, 10)
}

// Equal reports whether two descriptors describe the same priced terms.
// Amounts are compared numerically and asset addresses case-insensitively;
// everything else must match exactly. The tool identifier is not part of the
// terms, so a proof snapshot that omits it still matches.
func (p PriceDescriptor) Equal(other PriceDescriptor) bool {
	a, aok := p.AmountBig()
	b, bok := other.AmountBig()
	if !aok || !bok {
		if p.Amount != other.Amount {
			return false
		}
	} else if a.Cmp(b) != 0 {
		return false
	}

	return strings.EqualFold(p.Asset.Address, other.Asset.Address) &&
		p.Asset.Decimals == other.Asset.Decimals &&
		p.Asset.Network == other.Asset.Network &&
		p.Asset.EIP712 == other.Asset.EIP712
}

// PaymentProof is a caller-submitted claim of an on-chain micropayment. The
// proof is opaque to this server beyond the structural pre-checks in the
// admission engine; its semantic validity (signature, balance, replay) is
// decided by the settlement authority alone.
type PaymentProof struct {
	// D402Version is the protocol version the proof was built for.
	D402Version int `json:"d402Version"`

	// Payer is the address the payment is drawn from.
	Payer string `json:"payer"`

	// Signature is the payer's signature over the transfer authorization.
	Signature string `json:"signature"`

	// Nonce is a unique value preventing authorization replay.
	Nonce string `json:"nonce"`

	// Price is the payer's snapshot of the priced terms being paid. It must
	// structurally equal the server's current descriptor for the tool.
	Price PriceDescriptor `json:"price"`

	// ValidBefore is the unix timestamp after which the proof is expired.
	// Zero means the proof carries no expiry.
	ValidBefore int64 `json:"validBefore,omitempty"`
}

// WellFormed reports whether the proof carries the fields required to even
// attempt verification. A proof failing this check is treated as absent.
func (p *PaymentProof) WellFormed() bool {
	return p != nil && p.Payer != "" && p.Signature != "" && p.Nonce != ""
}

// AdmissionReason explains why a request was admitted.
type AdmissionReason string

const (
	ReasonCredentialValid   AdmissionReason = "CredentialValid"
	ReasonPaymentVerified   AdmissionReason = "PaymentVerified"
	ReasonTestingModeBypass AdmissionReason = "TestingModeBypass"
)

// DenialCode classifies a denied request for the caller.
type DenialCode string

const (
	DenyPaymentRequired       DenialCode = "PaymentRequired"
	DenyPriceMismatch         DenialCode = "PriceMismatch"
	DenyPaymentRejected       DenialCode = "PaymentRejected"
	DenySettlementUnavailable DenialCode = "SettlementUnavailable"
)

// Denial describes a denied request. Detail carries the underlying authority
// reason for diagnostics; it is logged but never serialized to the caller.
type Denial struct {
	Code                 DenialCode
	Price                PriceDescriptor
	AcceptedProofFormats []string
	Detail               string
}

// Admission is the outcome of the admission decision for one request. The
// tool handler only ever sees the boolean gate and the reason.
type Admission struct {
	Admitted bool
	Reason   AdmissionReason
	Denial   *Denial
}

// Admit builds an admitted result.
func Admit(reason AdmissionReason) Admission {
	return Admission{Admitted: true, Reason: reason}
}

// Deny builds a denied result with the resolved price attached.
func Deny(code DenialCode, price PriceDescriptor, detail string) Admission {
	return Admission{
		Admitted: false,
		Denial: &Denial{
			Code:                 code,
			Price:                price,
			AcceptedProofFormats: AcceptedProofFormats(),
			Detail:               detail,
		},
	}
}

// PaymentRequiredResponse is the body of every HTTP 402 response. Its shape
// is the caller-visible payment protocol and must stay stable.
type PaymentRequiredResponse struct {
	// D402Version is the protocol version (currently 1).
	D402Version int `json:"d402Version"`

	// ReasonCode classifies the denial.
	ReasonCode DenialCode `json:"reasonCode"`

	// Error is a human-readable message.
	Error string `json:"error"`

	// Price is the current priced terms for the requested tool.
	Price PriceDescriptor `json:"price"`

	// AcceptedProofFormats enumerates the proof formats the server accepts.
	AcceptedProofFormats []string `json:"acceptedProofFormats"`
}
