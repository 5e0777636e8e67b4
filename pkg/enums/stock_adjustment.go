package enums

import (
	"fmt"
	"slices"
)

// AdjustmentType is the direction of a stock adjustment.
type AdjustmentType string

const (
	AdjustmentTypeIncrease AdjustmentType = "INCREASE"
	AdjustmentTypeDecrease AdjustmentType = "DECREASE"
)

// AdjustmentTypeFor derives the direction from a signed quantity.
func AdjustmentTypeFor(signedQuantity int) AdjustmentType {
	if signedQuantity < 0 {
		return AdjustmentTypeDecrease
	}
	return AdjustmentTypeIncrease
}

func (t AdjustmentType) IsValid() bool {
	return t == AdjustmentTypeIncrease || t == AdjustmentTypeDecrease
}

// AdjustmentReason explains why stock moved.
type AdjustmentReason string

const (
	AdjustmentReasonManual           AdjustmentReason = "MANUAL"
	AdjustmentReasonTransferOut      AdjustmentReason = "TRANSFER_OUT"
	AdjustmentReasonTransferIn       AdjustmentReason = "TRANSFER_IN"
	AdjustmentReasonOrderReservation AdjustmentReason = "ORDER_RESERVATION"
	AdjustmentReasonOrderRelease     AdjustmentReason = "ORDER_RELEASE"
)

var validAdjustmentReasons = []AdjustmentReason{
	AdjustmentReasonManual,
	AdjustmentReasonTransferOut,
	AdjustmentReasonTransferIn,
	AdjustmentReasonOrderReservation,
	AdjustmentReasonOrderRelease,
}

func (r AdjustmentReason) String() string {
	return string(r)
}

func (r AdjustmentReason) IsValid() bool {
	return slices.Contains(validAdjustmentReasons, r)
}

func ParseAdjustmentReason(value string) (AdjustmentReason, error) {
	for _, candidate := range validAdjustmentReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment reason %q", value)
}

// TransferStatus tracks a branch-to-branch stock transfer.
type TransferStatus string

const (
	TransferStatusCompleted TransferStatus = "COMPLETED"
)
