package d402

import "errors"

// Standard d402 error definitions

var (
	// ErrPaymentRequired indicates that payment is required to access the tool.
	ErrPaymentRequired = errors.New("payment required")

	// ErrPriceMismatch indicates the proof's price snapshot does not match
	// the currently registered price.
	ErrPriceMismatch = errors.New("price mismatch")

	// ErrMalformedProof indicates the submitted payment proof could not be
	// parsed or lacks required fields.
	ErrMalformedProof = errors.New("malformed payment proof")

	// ErrExpiredProof indicates the proof's validity window has passed.
	ErrExpiredProof = errors.New("expired payment proof")

	// ErrPaymentRejected indicates the settlement authority explicitly
	// rejected the proof.
	ErrPaymentRejected = errors.New("payment rejected")

	// ErrSettlementUnavailable indicates the settlement authority could not
	// be reached or did not answer in time.
	ErrSettlementUnavailable = errors.New("settlement authority unavailable")

	// ErrToolNotPriced indicates a payable tool was registered without a
	// price descriptor. This is a startup error, never a runtime one.
	ErrToolNotPriced = errors.New("tool has no price descriptor")

	// ErrInvalidPrice indicates a price descriptor failed validation.
	ErrInvalidPrice = errors.New("invalid price descriptor")
)
