package enums

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderStatusTerminal(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled, OrderStatusCompleted} {
		require.True(t, s.IsTerminal(), s)
	}
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped} {
		require.False(t, s.IsTerminal(), s)
	}
}

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus("SHIPPED")
	require.NoError(t, err)
	require.Equal(t, OrderStatusShipped, got)

	_, err = ParseOrderStatus("shipped")
	require.Error(t, err)
}

func TestParseSalesChannelIgnoresCase(t *testing.T) {
	got, err := ParseSalesChannel(" pos ")
	require.NoError(t, err)
	require.Equal(t, SalesChannelPOS, got)

	_, err = ParseSalesChannel("fax")
	require.Error(t, err)
}

func TestAdjustmentTypeFor(t *testing.T) {
	require.Equal(t, AdjustmentTypeDecrease, AdjustmentTypeFor(-3))
	require.Equal(t, AdjustmentTypeIncrease, AdjustmentTypeFor(3))
}

func TestReleaseOutcome(t *testing.T) {
	require.True(t, ReservationStatusReturned.IsReleaseOutcome())
	require.True(t, ReservationStatusReleased.IsReleaseOutcome())
	require.False(t, ReservationStatusReserved.IsReleaseOutcome())
}

func TestOutboxEventTypeParse(t *testing.T) {
	got, err := ParseOutboxEventType("order_status_changed")
	require.NoError(t, err)
	require.Equal(t, EventOrderStatusChanged, got)

	_, err = ParseOutboxEventType("order_state_changed")
	require.Error(t, err)
}
