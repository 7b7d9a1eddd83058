package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenfund/rebalancer/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewStore(db.Conn(), zerolog.Nop())
}

func TestRecordAndList(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, zerolog.Nop())

	base := time.Now().UTC()
	manager.Emit(AssetAdded, "pf1", "TOKA", map[string]interface{}{"target_bps": int64(6000)})
	manager.Emit(Rebalanced, "pf1", "", map[string]interface{}{"actions": 2})
	manager.Emit(Rebalanced, "pf2", "", nil)

	all, err := store.List(Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, ev := range all {
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.Timestamp.Before(base.Add(-time.Second)))
	}

	byPortfolio, err := store.List(Filter{PortfolioID: "pf1"})
	require.NoError(t, err)
	assert.Len(t, byPortfolio, 2)

	byType, err := store.List(Filter{Type: Rebalanced})
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	both, err := store.List(Filter{PortfolioID: "pf1", Type: AssetAdded})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "TOKA", both[0].AssetRef)
	assert.EqualValues(t, 6000, both[0].Data["target_bps"])
}

func TestListLimit(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, zerolog.Nop())

	for i := 0; i < 5; i++ {
		manager.Emit(Rebalanced, "pf1", "", nil)
	}

	limited, err := store.List(Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestEmitWithoutSink(t *testing.T) {
	// A nil sink degrades to log-only emission; must not panic.
	manager := NewManager(nil, zerolog.Nop())
	manager.Emit(SystemPaused, "", "", nil)
}
