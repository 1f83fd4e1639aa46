package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingKey(t *testing.T) {
	e := Event{Type: ShiftClosed, TerminalID: "till-1"}
	assert.Equal(t, "shift.closed.till-1", e.RoutingKey())
}

func TestEventEncoding(t *testing.T) {
	e := Event{
		Type:       SaleRecorded,
		TerminalID: "till-1",
		OccurredAt: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
		Payload:    map[string]string{"saleId": "abc"},
	}

	body, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "sale.recorded",
		"terminalId": "till-1",
		"occurredAt": "2026-10-14T09:00:00Z",
		"payload": {"saleId": "abc"}
	}`, string(body))
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: ShiftOpened}))
	assert.NoError(t, p.Close())
}
