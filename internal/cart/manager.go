package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opClear  = "clear"
)

// Recorder receives cart mutation outcomes.
type Recorder interface {
	CartMutation(op string, accepted bool)
	CartPersistFailure(op string)
}

type nopRecorder struct{}

func (nopRecorder) CartMutation(string, bool) {}
func (nopRecorder) CartPersistFailure(string) {}

// Options wires the manager's ambient dependencies.
type Options struct {
	Logger  *logger.Logger
	Metrics Recorder
}

// Manager is the only writer of one session's cart. Each accepted mutation is
// applied in memory first and then written to the slot; a failed write is
// logged and the in-memory cart stays authoritative.
type Manager struct {
	mu      sync.Mutex
	cart    Cart
	store   SlotStore
	slot    string
	logg    *logger.Logger
	metrics Recorder
}

// NewManager restores the cart stored under slot. A missing or unreadable slot
// starts an empty cart.
func NewManager(ctx context.Context, store SlotStore, slot string, opts Options) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("slot store required")
	}
	if strings.TrimSpace(slot) == "" {
		return nil, fmt.Errorf("cart slot required")
	}
	m := &Manager{
		store:   store,
		slot:    slot,
		logg:    opts.Logger,
		metrics: opts.Metrics,
	}
	if m.logg == nil {
		m.logg = logger.Nop()
	}
	if m.metrics == nil {
		m.metrics = nopRecorder{}
	}
	m.cart = m.restore(ctx)
	return m, nil
}

func (m *Manager) restore(ctx context.Context) Cart {
	payload, err := m.store.Load(ctx, m.slot)
	if err != nil {
		if !errors.Is(err, ErrSlotNotFound) {
			m.logg.Error(m.logCtx(ctx, "restore"), "cart slot unreadable, starting empty", err)
		}
		return Cart{}
	}
	return Decode(payload)
}

// Slot returns the name of the persisted slot.
func (m *Manager) Slot() string {
	return m.slot
}

// AddItem adds qty units of product. It reports false, leaving the cart
// unchanged, when the resulting quantity would exceed product.Stock.
func (m *Manager) AddItem(ctx context.Context, product Product, qty int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := m.cart.Add(product, qty)
	m.metrics.CartMutation(opAdd, ok)
	if !ok {
		return false
	}
	m.cart = next
	m.persist(ctx, opAdd)
	return true
}

// UpdateQuantity sets the quantity of an existing line.
func (m *Manager) UpdateQuantity(ctx context.Context, id types.ID, qty int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := m.cart.UpdateQuantity(id, qty)
	m.metrics.CartMutation(opUpdate, ok)
	if !ok {
		return false
	}
	m.cart = next
	m.persist(ctx, opUpdate)
	return true
}

// RemoveItem deletes the line for id; absent ids are a no-op.
func (m *Manager) RemoveItem(ctx context.Context, id types.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cart = m.cart.Remove(id)
	m.metrics.CartMutation(opRemove, true)
	m.persist(ctx, opRemove)
}

// Clear empties the cart and removes the persisted slot. If the slot cannot be
// removed an empty cart is written in its place.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cart = Cart{}
	m.metrics.CartMutation(opClear, true)
	if err := m.store.Remove(ctx, m.slot); err != nil {
		m.logg.Warn(m.logCtx(ctx, opClear), "remove cart slot failed, writing empty cart: "+err.Error())
		m.persist(ctx, opClear)
	}
}

// TotalPrice is the cart subtotal.
func (m *Manager) TotalPrice() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Subtotal()
}

// Items returns a copy of the current line items.
func (m *Manager) Items() []LineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Items()
}

// Snapshot returns the current cart value.
func (m *Manager) Snapshot() Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart
}

// persist writes the current cart; callers hold m.mu.
func (m *Manager) persist(ctx context.Context, op string) {
	payload, err := Encode(m.cart)
	if err == nil {
		err = m.store.Save(ctx, m.slot, payload)
	}
	if err != nil {
		m.metrics.CartPersistFailure(op)
		m.logg.Error(m.logCtx(ctx, op), "persist cart slot failed", err)
	}
}

func (m *Manager) logCtx(ctx context.Context, op string) context.Context {
	return m.logg.WithFields(ctx, map[string]any{
		"cart_slot": m.slot,
		"cart_op":   op,
	})
}
