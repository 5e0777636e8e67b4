// Package pricing computes shipping fees for order totals.
package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/money"
)

// ShippingQuote is the fee charged for an order and whether free shipping applied.
type ShippingQuote struct {
	Fee             decimal.Decimal
	FreeShipApplied bool
}

// Calculator is the shipping collaborator used by order pricing.
type Calculator interface {
	ComputeShipping(ctx context.Context, organizationID uuid.UUID, channel enums.SalesChannel, subtotal decimal.Decimal) (ShippingQuote, error)
}

// FlatRate charges a flat fee unless the channel ships free or the subtotal
// reaches the free-shipping threshold.
type FlatRate struct {
	fee          decimal.Decimal
	threshold    decimal.Decimal
	freeChannels map[enums.SalesChannel]struct{}
}

// NewFlatRate builds a calculator from configuration.
func NewFlatRate(cfg config.PricingConfig) (*FlatRate, error) {
	fee, err := money.Parse(cfg.FlatShippingFee)
	if err != nil {
		return nil, fmt.Errorf("parse flat shipping fee: %w", err)
	}
	threshold, err := money.Parse(cfg.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("parse free shipping threshold: %w", err)
	}
	if fee.IsNegative() || threshold.IsNegative() {
		return nil, fmt.Errorf("shipping amounts must be non-negative")
	}
	channels := make(map[enums.SalesChannel]struct{}, len(cfg.FreeShippingChannels))
	for _, raw := range cfg.FreeShippingChannels {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		ch, err := enums.ParseSalesChannel(raw)
		if err != nil {
			return nil, err
		}
		channels[ch] = struct{}{}
	}
	return &FlatRate{fee: fee, threshold: threshold, freeChannels: channels}, nil
}

func (f *FlatRate) ComputeShipping(_ context.Context, _ uuid.UUID, channel enums.SalesChannel, subtotal decimal.Decimal) (ShippingQuote, error) {
	if _, ok := f.freeChannels[channel]; ok {
		return ShippingQuote{Fee: decimal.Zero, FreeShipApplied: true}, nil
	}
	if f.threshold.IsPositive() && subtotal.GreaterThanOrEqual(f.threshold) {
		return ShippingQuote{Fee: decimal.Zero, FreeShipApplied: true}, nil
	}
	return ShippingQuote{Fee: f.fee}, nil
}
