package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventStockAdjusted, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	output, err := reg.Decode(enums.EventStockAdjusted, 1, json.RawMessage(`{"code":"ADJ000001"}`))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"code": "ADJ000001"}, output)

	_, err = reg.Decode(enums.EventStockAdjusted, 2, json.RawMessage(`{}`))
	require.Error(t, err)
}

func TestConsumerDecoderRegistryDecodesStatusChange(t *testing.T) {
	reg := NewConsumerDecoderRegistry()

	out, err := reg.Decode(enums.EventOrderStatusChanged, 1, json.RawMessage(`{"previous_status":"CONFIRMED","next_status":"PROCESSING"}`))
	require.NoError(t, err)
	evt, ok := out.(*payloads.OrderStatusChangedEvent)
	require.True(t, ok)
	require.Equal(t, enums.OrderStatusConfirmed, evt.PreviousStatus)
	require.Equal(t, enums.OrderStatusProcessing, evt.NextStatus)
}
