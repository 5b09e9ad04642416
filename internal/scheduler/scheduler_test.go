package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"dash-monitor/internal/database"
	"dash-monitor/internal/dedup"
	"dash-monitor/internal/models"
	"dash-monitor/internal/providers"
	"dash-monitor/internal/watchlist"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	addrX = "XhLvCHgHfbi7fR5wEJAKixtD6VTDKDcw7k"
	addrY = "XjbwAPh8viA68zKx8HUt7j8fMgA5aESX7t"
	addrZ = "XnbmzBcD86WvHxwtsVmSQRBA1Qc7iDiMrq"
)

// mockProvider serves canned newest-first pages per address and can be
// told to fail specific addresses.
type mockProvider struct {
	mu      sync.Mutex
	pages   map[string][]models.Transaction
	failing map[string]bool
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Fetch(_ context.Context, address string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing[address] {
		return nil, providers.ErrProviderUnavailable
	}
	return m.pages[address], nil
}

type mockOracle struct {
	rate decimal.Decimal
	err  error
}

func (m *mockOracle) CurrentRate(context.Context) (decimal.Decimal, error) {
	return m.rate, m.err
}

type sentMessage struct {
	subscriber string
	message    string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (m *mockNotifier) Send(_ context.Context, subscriber, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMessage{subscriber: subscriber, message: message})
	return nil
}

func (m *mockNotifier) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

func tx(id, amount string) models.Transaction {
	return models.Transaction{ID: id, Amount: decimal.RequireFromString(amount), Pending: true, Provider: "mock"}
}

type fixture struct {
	store     *database.MemoryStore
	wl        *watchlist.Service
	provider  *mockProvider
	oracle    *mockOracle
	notifier  *mockNotifier
	scheduler *Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(nil)
	store := database.NewMemoryStore()
	wl := watchlist.NewService(store, &logger)
	provider := &mockProvider{
		pages:   make(map[string][]models.Transaction),
		failing: make(map[string]bool),
	}
	oracle := &mockOracle{rate: decimal.RequireFromString("30")}
	notif := &mockNotifier{}
	engine := dedup.NewEngine(store, &logger)

	sched := New(wl, provider, oracle, notif, nil, engine, &logger, Options{Concurrency: 2})
	return &fixture{store: store, wl: wl, provider: provider, oracle: oracle, notifier: notif, scheduler: sched}
}

func TestCycleAlertsNewTransactionsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.wl.Register(ctx, "100", addrX); err != nil {
		t.Fatal(err)
	}
	f.provider.pages[addrX] = []models.Transaction{tx("B", "2"), tx("A", "1")}

	if err := f.scheduler.RunCycle(ctx); err != nil {
		t.Fatalf("cycle 1: %v", err)
	}
	if got := len(f.notifier.messages()); got != 2 {
		t.Fatalf("expected 2 alerts after first cycle, got %d", got)
	}

	// identical provider stream: second cycle must stay silent
	if err := f.scheduler.RunCycle(ctx); err != nil {
		t.Fatalf("cycle 2: %v", err)
	}
	if got := len(f.notifier.messages()); got != 2 {
		t.Fatalf("expected no new alerts on repeat cycle, got %d total", got)
	}
}

func TestRestartWithPersistedStateStaysSilent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.wl.Register(ctx, "100", addrX); err != nil {
		t.Fatal(err)
	}
	f.provider.pages[addrX] = []models.Transaction{tx("A", "1")}

	if err := f.scheduler.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}

	// simulate a restart: new service, engine and scheduler over the same
	// persisted store
	logger := zerolog.New(nil)
	wl2 := watchlist.NewService(f.store, &logger)
	engine2 := dedup.NewEngine(f.store, &logger)
	sched2 := New(wl2, f.provider, f.oracle, f.notifier, nil, engine2, &logger, Options{Concurrency: 2})

	if err := sched2.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(f.notifier.messages()); got != 1 {
		t.Fatalf("restart re-alerted: %d messages", got)
	}
}

func TestPerPairIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, addr := range []string{addrX, addrY, addrZ} {
		if err := f.wl.Register(ctx, "100", addr); err != nil {
			t.Fatal(err)
		}
	}
	f.provider.failing[addrX] = true
	f.provider.pages[addrY] = []models.Transaction{tx("y1", "1")}
	f.provider.pages[addrZ] = []models.Transaction{tx("z1", "2")}

	if err := f.scheduler.RunCycle(ctx); err != nil {
		t.Fatalf("cycle must not fail when one provider fetch fails: %v", err)
	}

	msgs := f.notifier.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected alerts for Y and Z despite X failing, got %d", len(msgs))
	}

	// X recovers on a later cycle and is not treated as removed
	f.provider.failing[addrX] = false
	f.provider.pages[addrX] = []models.Transaction{tx("x1", "3")}
	if err := f.scheduler.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(f.notifier.messages()); got != 3 {
		t.Fatalf("expected X's alert after recovery, got %d total", got)
	}
}

func TestPriceFailureOmitsFiat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.oracle.err = errors.New("coingecko down")

	if err := f.wl.Register(ctx, "100", addrX); err != nil {
		t.Fatal(err)
	}
	f.provider.pages[addrX] = []models.Transaction{tx("A", "1.5")}

	if err := f.scheduler.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}

	msgs := f.notifier.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0].message, "1.50000000 DASH") {
		t.Errorf("expected fixed 8-digit amount:\n%s", msgs[0].message)
	}
	if strings.Contains(msgs[0].message, "$") {
		t.Errorf("expected no fiat suffix when price unavailable:\n%s", msgs[0].message)
	}
}

func TestNotifierFailureStillMarksSeen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.wl.Register(ctx, "100", addrX); err != nil {
		t.Fatal(err)
	}
	f.provider.pages[addrX] = []models.Transaction{tx("A", "1")}
	f.notifier.err = errors.New("channel down")

	if err := f.scheduler.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}

	// channel recovers; the missed alert is not re-attempted
	f.notifier.err = nil
	if err := f.scheduler.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(f.notifier.messages()); got != 0 {
		t.Fatalf("seen transaction was re-alerted after notifier recovery: %d messages", got)
	}

	recs, err := f.store.SeenRecords(ctx, models.Scope{Subscriber: "100", Address: addrX})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected the failed notification's tx to be marked seen, got %d records", len(recs))
	}
}

func TestAlertsRouteToOwningSubscriber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.wl.Register(ctx, "100", addrX); err != nil {
		t.Fatal(err)
	}
	if err := f.wl.Register(ctx, "200", addrY); err != nil {
		t.Fatal(err)
	}
	f.provider.pages[addrX] = []models.Transaction{tx("x1", "1")}
	f.provider.pages[addrY] = []models.Transaction{tx("y1", "2")}

	if err := f.scheduler.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}

	byTx := make(map[string]string)
	for _, m := range f.notifier.messages() {
		switch {
		case strings.Contains(m.message, "x1"):
			byTx["x1"] = m.subscriber
		case strings.Contains(m.message, "y1"):
			byTx["y1"] = m.subscriber
		}
	}
	if byTx["x1"] != "100" || byTx["y1"] != "200" {
		t.Errorf("alerts routed to wrong subscribers: %v", byTx)
	}
}
