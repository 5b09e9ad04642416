package alert

import (
	"strings"
	"testing"
	"time"

	"dash-monitor/internal/models"

	"github.com/shopspring/decimal"
)

func TestFormatWithRate(t *testing.T) {
	tx := models.Transaction{
		ID:        "abc123",
		Amount:    decimal.RequireFromString("1.5"),
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	rate := decimal.RequireFromString("30")

	msg := Format(tx, "XhLvCHgHfbi7fR5wEJAKixtD6VTDKDcw7k", 3, &rate)

	for _, want := range []string{
		"New transfer #3!",
		"Address: XhLvCHgHfbi7fR5wEJAKixtD6VTDKDcw7k",
		"Amount: 1.50000000 DASH ($45.00)",
		"Time: 2024-03-01T12:00:00Z",
		"https://blockchair.com/dash/transaction/abc123",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatWithoutRate(t *testing.T) {
	tx := models.Transaction{
		ID:     "def456",
		Amount: decimal.RequireFromString("1.5"),
	}
	tx.Pending = true

	msg := Format(tx, "XhLvCHgHfbi7fR5wEJAKixtD6VTDKDcw7k", 1, nil)

	if !strings.Contains(msg, "Amount: 1.50000000 DASH\n") {
		t.Errorf("expected amount with no fiat suffix:\n%s", msg)
	}
	if strings.Contains(msg, "$") {
		t.Errorf("message must not contain a fiat value:\n%s", msg)
	}
	if !strings.Contains(msg, "Time: pending") {
		t.Errorf("expected pending marker:\n%s", msg)
	}
}
