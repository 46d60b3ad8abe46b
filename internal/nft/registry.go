package nft

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dragon-forge/internal/forge"
)

// Registry resolves collections by contract address or name.
type Registry struct {
	mu     sync.RWMutex
	byAddr map[forge.Address]*Collection
	byName map[string]*Collection
}

func NewRegistry() *Registry {
	return &Registry{
		byAddr: make(map[forge.Address]*Collection),
		byName: make(map[string]*Collection),
	}
}

func (r *Registry) Add(c *Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byAddr[c.Address()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateContract, c.Address())
	}
	if _, ok := r.byName[c.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateContract, c.Name())
	}
	r.byAddr[c.Address()] = c
	r.byName[c.Name()] = c
	return nil
}

func (r *Registry) ByAddress(addr forge.Address) (*Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byAddr[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, addr)
	}
	return c, nil
}

func (r *Registry) ByName(name string) (*Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return c, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Mint mints on the collection deployed at contract.
func (r *Registry) Mint(ctx context.Context, contract, to forge.Address, id uint64, uri string) error {
	c, err := r.ByAddress(contract)
	if err != nil {
		return err
	}
	_, err = c.Mint(ctx, to, id, uri)
	return err
}
