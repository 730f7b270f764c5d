// Package pricing builds and serves the static tool-price registry. The
// registry is constructed once at startup from the declared price of every
// payable tool and is read-only afterwards, so lookups need no locking.
package pricing

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	d402 "github.com/Traia-IO/test-serper-api-mcp-server"
)

var validate = validator.New()

// ToolPrice pairs a tool identifier with its declared price descriptor.
type ToolPrice struct {
	Tool  string
	Price d402.PriceDescriptor
}

// Registry maps tool identifiers to immutable price descriptors.
type Registry struct {
	prices map[string]d402.PriceDescriptor
}

// Build constructs a registry from declared tool prices. Every descriptor is
// validated up front: a payable tool with a missing or invalid price fails
// the whole startup rather than surfacing per-request.
func Build(tools []ToolPrice) (*Registry, error) {
	prices := make(map[string]d402.PriceDescriptor, len(tools))
	for _, tp := range tools {
		if tp.Tool == "" {
			return nil, fmt.Errorf("%w: empty tool identifier", d402.ErrInvalidPrice)
		}
		if _, exists := prices[tp.Tool]; exists {
			return nil, fmt.Errorf("%w: duplicate price for tool %s", d402.ErrInvalidPrice, tp.Tool)
		}
		if err := ValidateDescriptor(tp.Price); err != nil {
			return nil, fmt.Errorf("tool %s: %w", tp.Tool, err)
		}

		price := tp.Price
		price.Tool = tp.Tool
		prices[tp.Tool] = price
	}

	return &Registry{prices: prices}, nil
}

// Resolve returns the price descriptor for a tool. The second return value
// is false when the tool is not payable. Resolution is side-effect-free and
// deterministic: two resolutions of the same tool yield identical
// descriptors.
func (r *Registry) Resolve(tool string) (d402.PriceDescriptor, bool) {
	price, ok := r.prices[tool]
	return price, ok
}

// Len returns the number of priced tools.
func (r *Registry) Len() int {
	return len(r.prices)
}

// ValidateDescriptor checks that a price descriptor is complete and
// payable: struct-level required fields, a positive integer amount, and a
// valid token contract address.
func ValidateDescriptor(p d402.PriceDescriptor) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", d402.ErrInvalidPrice, err)
	}

	amount, ok := p.AmountBig()
	if !ok {
		return fmt.Errorf("%w: amount %q is not a base-10 integer", d402.ErrInvalidPrice, p.Amount)
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be greater than 0, got %s", d402.ErrInvalidPrice, p.Amount)
	}

	if !common.IsHexAddress(p.Asset.Address) {
		return fmt.Errorf("%w: invalid asset address %q", d402.ErrInvalidPrice, p.Asset.Address)
	}

	return nil
}

// FormatAmount renders an atomic-unit amount as a human-readable token
// amount for logs and descriptions. Unparseable input is returned verbatim.
func FormatAmount(atomic string, decimals int) string {
	d, err := decimal.NewFromString(atomic)
	if err != nil {
		return atomic
	}
	return d.Shift(int32(-decimals)).String()
}
