package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/config"
)

const (
	// FreeShippingThreshold is the subtotal at which shipping becomes free.
	FreeShippingThreshold = 15000
	// FlatShippingRate is charged below the threshold.
	FlatShippingRate = 100
)

// Policy holds the shipping tiers.
type Policy struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingRate      decimal.Decimal
}

// DefaultPolicy uses the package constants.
func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: decimal.NewFromInt(FreeShippingThreshold),
		FlatShippingRate:      decimal.NewFromInt(FlatShippingRate),
	}
}

// PolicyFromConfig reads the tiers from configuration.
func PolicyFromConfig(cfg config.CheckoutConfig) (Policy, error) {
	threshold, err := cfg.Threshold()
	if err != nil {
		return Policy{}, fmt.Errorf("free shipping threshold: %w", err)
	}
	rate, err := cfg.FlatRate()
	if err != nil {
		return Policy{}, fmt.Errorf("flat shipping rate: %w", err)
	}
	return Policy{FreeShippingThreshold: threshold, FlatShippingRate: rate}, nil
}

// Totals are derived from a cart snapshot and never stored.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCharge decimal.Decimal `json:"shipping_charge"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
}

// Compute derives the totals of c.
func (p Policy) Compute(c cart.Cart) Totals {
	subtotal := c.Subtotal()
	shipping := p.FlatShippingRate
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	return Totals{
		Subtotal:       subtotal,
		ShippingCharge: shipping,
		GrandTotal:     subtotal.Add(shipping),
	}
}
