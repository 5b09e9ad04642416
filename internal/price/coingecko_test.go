package price

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newOracle(url string) *CoinGeckoOracle {
	logger := zerolog.New(nil)
	return NewCoinGeckoOracle(url, 5*time.Second, &logger)
}

func TestCurrentRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"dash": {"usd": 27.34}}`))
	}))
	defer server.Close()

	rate, err := newOracle(server.URL).CurrentRate(context.Background())
	if err != nil {
		t.Fatalf("CurrentRate returned error: %v", err)
	}
	if rate.String() != "27.34" {
		t.Errorf("rate = %s, want 27.34", rate)
	}
}

func TestCurrentRateFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusTooManyRequests)
		}},
		{"malformed", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"dash"`))
		}},
		{"missing field", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"bitcoin": {"usd": 60000}}`))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			_, err := newOracle(server.URL).CurrentRate(context.Background())
			if !errors.Is(err, ErrPriceUnavailable) {
				t.Errorf("expected ErrPriceUnavailable, got %v", err)
			}
		})
	}
}
