package strategy

import (
	"log"
	"sort"
	"strings"
	"sync"
)

// Registry maps uppercased symbols to strategy instances, created lazily.
// Safe for concurrent use from the ingress and monitoring paths; each value
// carries its own lock, so unrelated symbols never serialize on each other.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]*Strategy
	presets    map[string]Params
	defaults   Params
}

// NewRegistry creates an empty registry with the given default parameters
// for new instances.
func NewRegistry(defaults Params) *Registry {
	if defaults.Lookback <= 0 {
		defaults = DefaultParams()
	}
	return &Registry{
		strategies: make(map[string]*Strategy),
		presets:    make(map[string]Params),
		defaults:   defaults,
	}
}

// SetPreset overrides the parameters used when symbol's instance is first
// created. Has no effect on an already-created instance.
func (r *Registry) SetPreset(symbol string, params Params) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presets[strings.ToUpper(symbol)] = params
}

// GetOrCreate returns the instance for symbol, constructing one on first use.
func (r *Registry) GetOrCreate(symbol string) *Strategy {
	key := strings.ToUpper(symbol)

	r.mu.RLock()
	st, ok := r.strategies[key]
	r.mu.RUnlock()
	if ok {
		return st
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.strategies[key]; ok {
		return st
	}

	params := r.defaults
	if p, ok := r.presets[key]; ok {
		params = p
	}
	st = New(key, params)
	r.strategies[key] = st
	log.Printf("registry: created strategy for %s (lookback=%d target=%.2f%% stop=%.2f%%)",
		key, params.Lookback, params.ProfitTargetPct*100, params.StopLossPct*100)
	return st
}

// Get returns the instance for symbol without creating one.
func (r *Registry) Get(symbol string) (*Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.strategies[strings.ToUpper(symbol)]
	return st, ok
}

// Remove deletes the entry for symbol and reports whether it existed.
func (r *Registry) Remove(symbol string) bool {
	key := strings.ToUpper(symbol)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.strategies[key]; !ok {
		return false
	}
	delete(r.strategies, key)
	return true
}

// Active snapshots the instances that currently hold an open trade.
func (r *Registry) Active() []*Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*Strategy
	for _, st := range r.strategies {
		if _, ok := st.ActiveTrade(); ok {
			active = append(active, st)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Symbol() < active[j].Symbol() })
	return active
}

// Symbols lists all registered symbols, sorted.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.strategies))
	for sym := range r.strategies {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
