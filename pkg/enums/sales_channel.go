package enums

import (
	"fmt"
	"slices"
	"strings"
)

// SalesChannel identifies where an order was captured.
type SalesChannel string

const (
	SalesChannelPOS      SalesChannel = "POS"
	SalesChannelOnline   SalesChannel = "ONLINE"
	SalesChannelPickup   SalesChannel = "PICKUP"
	SalesChannelWhatsApp SalesChannel = "WHATSAPP"
)

var validSalesChannels = []SalesChannel{
	SalesChannelPOS,
	SalesChannelOnline,
	SalesChannelPickup,
	SalesChannelWhatsApp,
}

func (c SalesChannel) String() string {
	return string(c)
}

func (c SalesChannel) IsValid() bool {
	return slices.Contains(validSalesChannels, c)
}

// ParseSalesChannel accepts any casing.
func ParseSalesChannel(value string) (SalesChannel, error) {
	upper := SalesChannel(strings.ToUpper(strings.TrimSpace(value)))
	if upper.IsValid() {
		return upper, nil
	}
	return "", fmt.Errorf("invalid sales channel %q", value)
}
