// Package workspace hands each browser session its cart manager and checkout
// orchestrator, building them on first use and dropping idle ones from memory.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const (
	defaultIdleTTL       = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// Workspace is the per-session state.
type Workspace struct {
	SessionID string
	Cart      *cart.Manager
	Checkout  *checkout.Orchestrator

	lastUsed time.Time
}

// Params configure the registry.
type Params struct {
	Store         cart.SlotStore
	SlotPrefix    string
	Backend       checkout.Backend
	CartOptions   cart.Options
	Checkout      checkout.Options
	Logger        *logger.Logger
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
}

// Registry owns the in-memory workspaces. Persisted cart slots outlive
// eviction; an evicted session is restored from its slot on next access.
type Registry struct {
	params Params
	logg   *logger.Logger
	now    func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(params Params) (*Registry, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart slot store required")
	}
	if params.Backend == nil {
		return nil, fmt.Errorf("commerce backend required")
	}
	if strings.TrimSpace(params.SlotPrefix) == "" {
		params.SlotPrefix = "cart"
	}
	if params.IdleTTL <= 0 {
		params.IdleTTL = defaultIdleTTL
	}
	if params.SweepInterval <= 0 {
		params.SweepInterval = defaultSweepInterval
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		params:     params,
		logg:       logg,
		now:        now,
		workspaces: make(map[string]*Workspace),
	}, nil
}

// SlotFor returns the persisted cart slot of a session.
func (r *Registry) SlotFor(sessionID string) string {
	return r.params.SlotPrefix + ":" + sessionID
}

// Get returns the session's workspace, restoring its cart on first access.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Workspace, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id required")
	}

	r.mu.Lock()
	if ws, ok := r.workspaces[sessionID]; ok {
		ws.lastUsed = r.now()
		r.mu.Unlock()
		return ws, nil
	}
	r.mu.Unlock()

	built, err := r.build(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.workspaces[sessionID]; ok {
		ws.lastUsed = r.now()
		return ws, nil
	}
	built.lastUsed = r.now()
	r.workspaces[sessionID] = built
	return built, nil
}

func (r *Registry) build(ctx context.Context, sessionID string) (*Workspace, error) {
	ctx = r.logg.WithSessionID(ctx, sessionID)
	cartOpts := r.params.CartOptions
	if cartOpts.Logger == nil {
		cartOpts.Logger = r.logg
	}
	manager, err := cart.NewManager(ctx, r.params.Store, r.SlotFor(sessionID), cartOpts)
	if err != nil {
		return nil, fmt.Errorf("build cart manager: %w", err)
	}
	checkoutOpts := r.params.Checkout
	if checkoutOpts.Logger == nil {
		checkoutOpts.Logger = r.logg
	}
	orchestrator, err := checkout.NewOrchestrator(manager, r.params.Backend, checkoutOpts)
	if err != nil {
		return nil, fmt.Errorf("build checkout orchestrator: %w", err)
	}
	r.logg.Debug(ctx, "workspace restored")
	return &Workspace{SessionID: sessionID, Cart: manager, Checkout: orchestrator}, nil
}

// Forget drops a session's workspace, e.g. on logout. The cart slot stays.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.workspaces, sessionID)
	r.mu.Unlock()
}

// Rekey moves a session's cart to a new session id, as happens when login or
// logout rotates the browser's id. Both workspaces leave memory; the next
// access under to restores the moved cart from its slot. The old slot is
// removed.
func (r *Registry) Rekey(ctx context.Context, from, to string) error {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return fmt.Errorf("session ids required")
	}
	if from == to {
		return nil
	}
	ctx = r.logg.WithFields(ctx, map[string]any{"from_session": from, "to_session": to})

	r.mu.Lock()
	held := r.workspaces[from]
	delete(r.workspaces, from)
	delete(r.workspaces, to)
	r.mu.Unlock()

	var payload []byte
	if held != nil {
		encoded, err := cart.Encode(held.Cart.Snapshot())
		if err != nil {
			return fmt.Errorf("encode cart: %w", err)
		}
		payload = encoded
	} else {
		loaded, err := r.params.Store.Load(ctx, r.SlotFor(from))
		if errors.Is(err, cart.ErrSlotNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load cart slot: %w", err)
		}
		payload = loaded
	}

	if err := r.params.Store.Save(ctx, r.SlotFor(to), payload); err != nil {
		return fmt.Errorf("save cart slot: %w", err)
	}
	if err := r.params.Store.Remove(ctx, r.SlotFor(from)); err != nil {
		r.logg.Warn(ctx, "removing old cart slot failed: "+err.Error())
	}
	r.logg.Debug(ctx, "cart moved to rotated session")
	return nil
}

// Len reports the number of workspaces held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Sweep drops workspaces idle for longer than the idle TTL, keeping those
// with a checkout in flight. It returns the number dropped.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.params.IdleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, ws := range r.workspaces {
		if ws.lastUsed.After(cutoff) || ws.Checkout.InProgress() {
			continue
		}
		delete(r.workspaces, id)
		dropped++
	}
	return dropped
}

// Run sweeps on a fixed cadence until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.params.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logg.Info(ctx, "workspace sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logg.Debug(r.logg.WithField(ctx, "evicted", n), "idle workspaces evicted")
			}
		}
	}
}
