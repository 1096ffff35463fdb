package webhook

import (
	"context"
	"encoding/json"
	"strconv"
)

// Provider events handled by the reconciler.
const (
	EventTransferSuccess  = "transfer.success"
	EventTransferFailed   = "transfer.failed"
	EventTransferReversed = "transfer.reversed"
	EventChargeSuccess    = "charge.success"
)

// Service authenticates provider callbacks and applies them to the ledger.
type Service interface {
	HandleProviderEvent(ctx context.Context, rawBody []byte, signature string) (*Ack, error)
}

type Config struct {
	Secret string
}

// Ack summarizes what the reconciler did with an event.
type Ack struct {
	Event     string `json:"event"`
	Reference string `json:"reference"`
	Outcome   string `json:"outcome"`
}

// Payload is the provider's webhook body.
type Payload struct {
	Event string      `json:"event"`
	Data  PayloadData `json:"data"`
}

type PayloadData struct {
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Status    string          `json:"status"`
	Reason    string          `json:"reason"`
	Currency  string          `json:"currency"`
	Channel   string          `json:"channel"`
	Metadata  json.RawMessage `json:"metadata"`
}

// OwnerID extracts metadata.owner_id, which deposits carry from checkout.
// The provider may echo it as a string or a number; metadata itself may be an
// object or an empty string.
func (d PayloadData) OwnerID() string {
	if len(d.Metadata) == 0 {
		return ""
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(d.Metadata, &meta); err != nil {
		return ""
	}
	switch v := meta["owner_id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
