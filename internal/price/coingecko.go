package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dash-monitor/internal/interfaces"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable covers every failure mode of the oracle. Callers log
// it and format alerts without a fiat value.
var ErrPriceUnavailable = errors.New("price unavailable")

// CoinGeckoOracle fetches the current DASH/USD rate from CoinGecko's
// simple price endpoint. One lookup per poll cycle, not per address.
type CoinGeckoOracle struct {
	endpoint string
	client   *http.Client
	logger   *zerolog.Logger
}

var _ interfaces.PriceOracle = (*CoinGeckoOracle)(nil)

func NewCoinGeckoOracle(endpoint string, timeout time.Duration, logger *zerolog.Logger) *CoinGeckoOracle {
	return &CoinGeckoOracle{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (o *CoinGeckoOracle) CurrentRate(ctx context.Context) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/simple/price?ids=dash&vs_currencies=usd", o.endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: HTTP error: %d", ErrPriceUnavailable, resp.StatusCode)
	}

	var payload map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode: %v", ErrPriceUnavailable, err)
	}

	rate, ok := payload["dash"]["usd"]
	if !ok || rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: missing dash/usd field", ErrPriceUnavailable)
	}

	o.logger.Debug().
		Str("rate", rate.String()).
		Msg("Fetched DASH/USD rate")

	return rate, nil
}
