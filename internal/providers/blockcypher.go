package providers

import (
	"context"
	"fmt"
	"time"

	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/models"

	"github.com/shopspring/decimal"
)

// blockCypherTx mirrors the relevant parts of BlockCypher's "full" address
// endpoint. Amounts are duffs; unconfirmed transactions carry no Confirmed
// timestamp.
type blockCypherTx struct {
	Hash      string    `json:"hash"`
	Confirmed time.Time `json:"confirmed"`
	Outputs   []struct {
		Value     int64    `json:"value"`
		Addresses []string `json:"addresses"`
	} `json:"outputs"`
}

type blockCypherAddrResponse struct {
	Address string          `json:"address"`
	Txs     []blockCypherTx `json:"txs"`
}

// BlockCypherProvider fetches Dash address history from the BlockCypher API.
type BlockCypherProvider struct {
	client   *Client
	pageSize int
}

var _ interfaces.Provider = (*BlockCypherProvider)(nil)

func NewBlockCypherProvider(client *Client, pageSize int) *BlockCypherProvider {
	return &BlockCypherProvider{client: client, pageSize: pageSize}
}

func (p *BlockCypherProvider) Name() string {
	return "blockcypher"
}

// Fetch returns the address's most recent transactions, newest-first, with
// incoming amounts normalized from duffs to DASH.
func (p *BlockCypherProvider) Fetch(ctx context.Context, address string) ([]models.Transaction, error) {
	url := fmt.Sprintf("%s/addrs/%s/full?limit=%d", p.client.Endpoint, address, p.pageSize)

	var resp blockCypherAddrResponse
	if err := p.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(resp.Txs))
	for _, raw := range resp.Txs {
		if raw.Hash == "" {
			return nil, fmt.Errorf("%w: transaction without hash in response", ErrProviderUnavailable)
		}

		var incoming int64
		for _, out := range raw.Outputs {
			for _, outAddr := range out.Addresses {
				if outAddr == address {
					incoming += out.Value
					break
				}
			}
		}

		tx := models.Transaction{
			ID:       raw.Hash,
			Amount:   decimal.New(incoming, -models.DuffsExponent),
			Provider: p.Name(),
		}
		if raw.Confirmed.IsZero() {
			tx.Pending = true
		} else {
			tx.Timestamp = raw.Confirmed.UTC()
		}
		txs = append(txs, tx)
	}

	return txs, nil
}
