package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	*MemoryStore
	saveErr   error
	removeErr error
	loadErr   error
	saves     int
}

func (s *flakyStore) Load(ctx context.Context, slot string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.MemoryStore.Load(ctx, slot)
}

func (s *flakyStore) Save(ctx context.Context, slot string, payload []byte) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.Save(ctx, slot, payload)
}

func (s *flakyStore) Remove(ctx context.Context, slot string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	return s.MemoryStore.Remove(ctx, slot)
}

type countingRecorder struct {
	mu        sync.Mutex
	rejected  map[string]int
	persistKO map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{rejected: map[string]int{}, persistKO: map[string]int{}}
}

func (r *countingRecorder) CartMutation(op string, accepted bool) {
	if accepted {
		return
	}
	r.mu.Lock()
	r.rejected[op]++
	r.mu.Unlock()
}

func (r *countingRecorder) CartPersistFailure(op string) {
	r.mu.Lock()
	r.persistKO[op]++
	r.mu.Unlock()
}

func TestManagerPersistsEveryAcceptedMutation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m, err := NewManager(ctx, store, "cart:s1", Options{})
	require.NoError(t, err)

	require.True(t, m.AddItem(ctx, product("a", 5000, 5), 2))
	require.True(t, m.AddItem(ctx, product("b", 4000, 5), 1))
	require.True(t, m.UpdateQuantity(ctx, "b", 2))
	m.RemoveItem(ctx, "a")

	payload, err := store.Load(ctx, "cart:s1")
	require.NoError(t, err)
	restored := Decode(payload)
	assert.Equal(t, ids(m.Snapshot()), ids(restored))
	assert.True(t, restored.Subtotal().Equal(m.TotalPrice()))
	assert.True(t, m.TotalPrice().Equal(decimal.NewFromInt(8000)))
}

func TestManagerRestoresFromSlot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	first, err := NewManager(ctx, store, "cart:s1", Options{})
	require.NoError(t, err)
	require.True(t, first.AddItem(ctx, product("a", 10, 5), 3))

	second, err := NewManager(ctx, store, "cart:s1", Options{})
	require.NoError(t, err)
	assert.Equal(t, ids(first.Snapshot()), ids(second.Snapshot()))
	item, ok := second.Snapshot().Item("a")
	require.True(t, ok)
	assert.Equal(t, 3, item.Quantity)
}

func TestManagerRejectionLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: NewMemoryStore()}
	rec := newCountingRecorder()
	m, err := NewManager(ctx, store, "cart:s1", Options{Metrics: rec})
	require.NoError(t, err)

	assert.False(t, m.AddItem(ctx, product("a", 10, 2), 3))
	assert.False(t, m.UpdateQuantity(ctx, "missing", 1))
	assert.Empty(t, m.Items())
	assert.Zero(t, store.saves)
	assert.Equal(t, 1, rec.rejected[opAdd])
	assert.Equal(t, 1, rec.rejected[opUpdate])
}

func TestManagerPersistFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: NewMemoryStore(), saveErr: errors.New("disk full")}
	rec := newCountingRecorder()
	m, err := NewManager(ctx, store, "cart:s1", Options{Metrics: rec})
	require.NoError(t, err)

	assert.True(t, m.AddItem(ctx, product("a", 10, 2), 1))
	assert.Len(t, m.Items(), 1)
	assert.Equal(t, 1, rec.persistKO[opAdd])
}

func TestManagerUnreadableSlotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: NewMemoryStore(), loadErr: errors.New("connection refused")}
	m, err := NewManager(ctx, store, "cart:s1", Options{})
	require.NoError(t, err)
	assert.Empty(t, m.Items())

	corrupt := NewMemoryStore()
	require.NoError(t, corrupt.Save(ctx, "cart:s1", []byte("{{")))
	m, err = NewManager(ctx, corrupt, "cart:s1", Options{})
	require.NoError(t, err)
	assert.Empty(t, m.Items())
}

func TestManagerClearRemovesSlot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m, err := NewManager(ctx, store, "cart:s1", Options{})
	require.NoError(t, err)
	require.True(t, m.AddItem(ctx, product("a", 10, 2), 1))

	m.Clear(ctx)
	assert.Empty(t, m.Items())
	_, err = store.Load(ctx, "cart:s1")
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestManagerClearFallsBackToEmptyArray(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: NewMemoryStore(), removeErr: errors.New("read only")}
	m, err := NewManager(ctx, store, "cart:s1", Options{})
	require.NoError(t, err)
	require.True(t, m.AddItem(ctx, product("a", 10, 2), 1))

	m.Clear(ctx)
	payload, err := store.Load(ctx, "cart:s1")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(payload))
}

func TestManagerConcurrentAddsRespectStock(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(ctx, NewMemoryStore(), "cart:s1", Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	accepted := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accepted <- m.AddItem(ctx, product("a", 1, 5), 1)
		}()
	}
	wg.Wait()
	close(accepted)

	n := 0
	for ok := range accepted {
		if ok {
			n++
		}
	}
	assert.Equal(t, 5, n)
	item, _ := m.Snapshot().Item("a")
	assert.Equal(t, 5, item.Quantity)
}

func TestNewManagerValidatesInputs(t *testing.T) {
	_, err := NewManager(context.Background(), nil, "cart", Options{})
	assert.Error(t, err)
	_, err = NewManager(context.Background(), NewMemoryStore(), " ", Options{})
	assert.Error(t, err)
}
