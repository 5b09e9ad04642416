package alert

import (
	"fmt"
	"time"

	"dash-monitor/internal/models"

	"github.com/shopspring/decimal"
)

const explorerBaseURL = "https://blockchair.com/dash/transaction"

// PendingMarker is rendered in place of a timestamp for unconfirmed
// transactions.
const PendingMarker = "pending"

// Format renders one alert message. Pure: all inputs pre-resolved by the
// caller. rate is nil when the price oracle failed this cycle, in which
// case the fiat suffix is omitted.
func Format(tx models.Transaction, address string, sequence int64, rate *decimal.Decimal) string {
	link := fmt.Sprintf("%s/%s", explorerBaseURL, tx.ID)

	usdText := ""
	if rate != nil {
		usd := rate.Mul(tx.Amount)
		usdText = fmt.Sprintf(" ($%s)", usd.StringFixed(2))
	}

	timeText := PendingMarker
	if !tx.Pending {
		timeText = tx.Timestamp.UTC().Format(time.RFC3339)
	}

	return fmt.Sprintf(
		"🔔 New transfer #%d!\n\n"+
			"📌 Address: %s\n"+
			"💰 Amount: %s DASH%s\n"+
			"🕒 Time: %s\n"+
			"🔗 %s",
		sequence, address, tx.Amount.StringFixed(8), usdText, timeText, link,
	)
}

// ExplorerURL returns the canonical explorer link for a transaction id.
func ExplorerURL(txid string) string {
	return fmt.Sprintf("%s/%s", explorerBaseURL, txid)
}
