package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DuffsExponent is Dash's decimal exponent: one coin is 1e8 duffs.
// Providers reporting minor units are normalized with this scale.
const DuffsExponent int32 = 8

// Scope identifies one (subscriber, watched address) pair. All dedup state
// is keyed by scope; scopes are independent of each other.
type Scope struct {
	Subscriber string
	Address    string
}

func (s Scope) String() string {
	return fmt.Sprintf("%s/%s", s.Subscriber, s.Address)
}

// Transaction is the canonical record produced by a provider adapter,
// regardless of the upstream response shape. Amount is the sum of all
// outputs paying the watched address, in DASH.
type Transaction struct {
	ID        string
	Amount    decimal.Decimal
	Timestamp time.Time
	Pending   bool
	Provider  string
}

// SeenRecord is durable proof that a transaction has already been alerted
// within one scope, with its assigned per-scope sequence number.
type SeenRecord struct {
	TxID     string `json:"tx_id"`
	Sequence int64  `json:"seq"`
}

// AlertEvent is the downstream representation of a delivered alert,
// published to the event emitter after notification.
type AlertEvent struct {
	Subscriber string    `json:"subscriber"`
	Address    string    `json:"address"`
	TxID       string    `json:"tx_hash"`
	Sequence   int64     `json:"sequence"`
	Amount     string    `json:"amount"`
	Timestamp  time.Time `json:"timestamp"`
	Pending    bool      `json:"pending"`
	Provider   string    `json:"provider"`
}
