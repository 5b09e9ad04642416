package watchlist

import (
	"context"
	"testing"

	"dash-monitor/internal/database"
	"dash-monitor/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Valid Dash mainnet addresses for fixtures.
var validAddrs = []string{
	"XhLvCHgHfbi7fR5wEJAKixtD6VTDKDcw7k",
	"XjbwAPh8viA68zKx8HUt7j8fMgA5aESX7t",
	"XnbmzBcD86WvHxwtsVmSQRBA1Qc7iDiMrq",
	"Xd5fxtxaXy1Q2641DPcDLpRwuFx7dhNZcx",
	"XoHtyVA45VPS9xAdhcfhqBLKaJhQUXroue",
	"XnXokjNr5v1udzeTPfQwGBTW66YcYmPiEj",
}

func newService() (*Service, *database.MemoryStore) {
	logger := zerolog.New(nil)
	store := database.NewMemoryStore()
	return NewService(store, &logger), store
}

func TestRegisterAndList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	require.NoError(t, svc.Register(ctx, "100", validAddrs[0]))
	require.NoError(t, svc.Register(ctx, "100", validAddrs[1]))

	got, err := svc.List(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, validAddrs[:2], got, "insertion order preserved")
}

func TestRegisterInvalidAddress(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	err := svc.Register(ctx, "100", "not-an-address")
	require.ErrorIs(t, err, ErrInvalidAddress)

	got, err := svc.List(ctx, "100")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	require.NoError(t, svc.Register(ctx, "100", validAddrs[0]))
	require.ErrorIs(t, svc.Register(ctx, "100", validAddrs[0]), ErrAlreadyRegistered)
}

func TestRegisterLimitDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	for _, addr := range validAddrs[:5] {
		require.NoError(t, svc.Register(ctx, "100", addr))
	}

	err := svc.Register(ctx, "100", validAddrs[5])
	require.ErrorIs(t, err, ErrLimitExceeded)

	got, err := svc.List(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, validAddrs[:5], got, "stored set unchanged after rejected sixth address")

	// another subscriber is unaffected by the first one's cap
	require.NoError(t, svc.Register(ctx, "200", validAddrs[5]))
}

func TestRemoveCascadesDedupScope(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()

	require.NoError(t, svc.Register(ctx, "100", validAddrs[0]))

	scope := models.Scope{Subscriber: "100", Address: validAddrs[0]}
	require.NoError(t, store.AppendSeen(ctx, scope, models.SeenRecord{TxID: "tx-1", Sequence: 1}))

	require.NoError(t, svc.Remove(ctx, "100", validAddrs[0]))

	recs, err := store.SeenRecords(ctx, scope)
	require.NoError(t, err)
	require.Empty(t, recs, "seen records discarded with the registration")

	// re-registration starts dedup fresh
	require.NoError(t, svc.Register(ctx, "100", validAddrs[0]))
	recs, err = store.SeenRecords(ctx, scope)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestRemoveNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	require.ErrorIs(t, svc.Remove(ctx, "100", validAddrs[0]), ErrNotFound)
}
