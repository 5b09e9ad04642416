package providers

import (
	"context"
	"fmt"
	"time"

	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/models"

	"github.com/shopspring/decimal"
)

// insightTx mirrors the Insight API transaction shape. Amounts are DASH
// decimal strings (not minor units), timestamps are Unix seconds, and the
// id field is named txid instead of hash.
type insightTx struct {
	TxID string `json:"txid"`
	Time int64  `json:"time"`
	Vout []struct {
		Value        string `json:"value"`
		ScriptPubKey struct {
			Addresses []string `json:"addresses"`
		} `json:"scriptPubKey"`
	} `json:"vout"`
}

type insightAddrResponse struct {
	TotalItems int         `json:"totalItems"`
	Items      []insightTx `json:"items"`
}

// InsightProvider fetches Dash address history from a Dash Insight node.
type InsightProvider struct {
	client   *Client
	pageSize int
}

var _ interfaces.Provider = (*InsightProvider)(nil)

func NewInsightProvider(client *Client, pageSize int) *InsightProvider {
	return &InsightProvider{client: client, pageSize: pageSize}
}

func (p *InsightProvider) Name() string {
	return "insight"
}

// Fetch returns the address's most recent transactions, newest-first.
func (p *InsightProvider) Fetch(ctx context.Context, address string) ([]models.Transaction, error) {
	url := fmt.Sprintf("%s/addrs/%s/txs?from=0&to=%d", p.client.Endpoint, address, p.pageSize)

	var resp insightAddrResponse
	if err := p.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(resp.Items))
	for _, raw := range resp.Items {
		if raw.TxID == "" {
			return nil, fmt.Errorf("%w: transaction without txid in response", ErrProviderUnavailable)
		}

		incoming := decimal.Zero
		for _, out := range raw.Vout {
			matched := false
			for _, outAddr := range out.ScriptPubKey.Addresses {
				if outAddr == address {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
			value, err := decimal.NewFromString(out.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: bad output value %q: %v", ErrProviderUnavailable, out.Value, err)
			}
			incoming = incoming.Add(value)
		}

		tx := models.Transaction{
			ID:       raw.TxID,
			Amount:   incoming,
			Provider: p.Name(),
		}
		if raw.Time == 0 {
			tx.Pending = true
		} else {
			tx.Timestamp = time.Unix(raw.Time, 0).UTC()
		}
		txs = append(txs, tx)
	}

	return txs, nil
}
