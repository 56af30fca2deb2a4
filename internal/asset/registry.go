package asset

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// TokenSpec describes a token supplied through configuration.
type TokenSpec struct {
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
}

// Registry indexes assets by chain and symbol.
type Registry struct {
	mu       sync.RWMutex
	byKey    map[string]*Asset
	bySymbol map[uint64]map[string]*Asset
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:    make(map[string]*Asset),
		bySymbol: make(map[uint64]map[string]*Asset),
	}
}

// Register adds a. Registering the same symbol twice on a chain replaces the
// earlier entry so configuration can override well-known tokens.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.bySymbol[a.chainID][a.symbol]; ok {
		delete(r.byKey, prev.Key())
	}
	r.byKey[a.Key()] = a
	if r.bySymbol[a.chainID] == nil {
		r.bySymbol[a.chainID] = make(map[string]*Asset)
	}
	r.bySymbol[a.chainID][a.symbol] = a
}

// RegisterSpecs registers configured ERC20 tokens on chainID.
func (r *Registry) RegisterSpecs(chainID uint64, specs []TokenSpec) error {
	for _, s := range specs {
		if !common.IsHexAddress(s.Address) {
			return fmt.Errorf("asset: token %s has invalid address %q", s.Symbol, s.Address)
		}
		r.Register(NewToken(chainID, common.HexToAddress(s.Address), s.Symbol, "", s.Decimals))
	}
	return nil
}

// BySymbol looks up a token by its symbol on chainID.
func (r *Registry) BySymbol(chainID uint64, symbol string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.bySymbol[chainID][strings.ToUpper(symbol)]
	return a, ok
}

// ByAddress looks up a token by contract address.
func (r *Registry) ByAddress(chainID uint64, address common.Address) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.bySymbol[chainID] {
		if a.address == address {
			return a, true
		}
	}
	return nil, false
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}
