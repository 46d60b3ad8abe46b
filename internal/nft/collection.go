package nft

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"dragon-forge/internal/forge"
)

var (
	ErrTokenNotFound      = errors.New("token_not_found")
	ErrTokenExists        = errors.New("token_exists")
	ErrNotApproved        = errors.New("transfer_not_approved")
	ErrWrongOwner         = errors.New("wrong_owner")
	ErrUnknownCollection  = errors.New("unknown_collection")
	ErrDuplicateContract  = errors.New("duplicate_collection")
	ErrInvalidDestination = errors.New("invalid_destination")
)

// Receiver is consulted before a safe transfer lands on the address it is registered for.
// Returning an error rejects the transfer.
type Receiver func(ctx context.Context, operator, from forge.Address, id uint64) error

// Collection is an in-memory enumerable token collection.
type Collection struct {
	mu        sync.RWMutex
	name      string
	address   forge.Address
	nextID    uint64
	owners    map[uint64]forge.Address
	uris      map[uint64]string
	holdings  map[forge.Address][]uint64
	approvals map[forge.Address]map[forge.Address]bool
	receivers map[forge.Address]Receiver
}

func NewCollection(name string, address forge.Address) *Collection {
	return &Collection{
		name:      name,
		address:   address,
		nextID:    1,
		owners:    make(map[uint64]forge.Address),
		uris:      make(map[uint64]string),
		holdings:  make(map[forge.Address][]uint64),
		approvals: make(map[forge.Address]map[forge.Address]bool),
		receivers: make(map[forge.Address]Receiver),
	}
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) Address() forge.Address { return c.address }

func (c *Collection) RegisterReceiver(addr forge.Address, r Receiver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receivers[addr] = r
}

// Mint creates token id for to. An id of zero takes the next free sequential id.
func (c *Collection) Mint(_ context.Context, to forge.Address, id uint64, uri string) (uint64, error) {
	if to.IsZero() {
		return 0, ErrInvalidDestination
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == 0 {
		for c.owners[c.nextID] != "" {
			c.nextID++
		}
		id = c.nextID
	}
	if _, exists := c.owners[id]; exists {
		return 0, fmt.Errorf("%w: %s #%d", ErrTokenExists, c.name, id)
	}
	c.owners[id] = to
	if uri != "" {
		c.uris[id] = uri
	}
	c.holdings[to] = append(c.holdings[to], id)
	return id, nil
}

// MintBatch mints n sequential tokens to to and returns their ids.
func (c *Collection) MintBatch(ctx context.Context, to forge.Address, n int) ([]uint64, error) {
	ids := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		id, err := c.Mint(ctx, to, 0, "")
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Collection) OwnerOf(_ context.Context, id uint64) (forge.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	owner, ok := c.owners[id]
	if !ok {
		return "", fmt.Errorf("%w: %s #%d", ErrTokenNotFound, c.name, id)
	}
	return owner, nil
}

func (c *Collection) BalanceOf(_ context.Context, owner forge.Address) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint64(len(c.holdings[owner])), nil
}

func (c *Collection) TokensOf(owner forge.Address) []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]uint64{}, c.holdings[owner]...)
}

func (c *Collection) TotalSupply() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint64(len(c.owners))
}

func (c *Collection) TokenURI(id uint64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.owners[id]; !ok {
		return "", fmt.Errorf("%w: %s #%d", ErrTokenNotFound, c.name, id)
	}
	return c.uris[id], nil
}

func (c *Collection) SetApprovalForAll(owner, operator forge.Address, approved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops, ok := c.approvals[owner]
	if !ok {
		ops = make(map[forge.Address]bool)
		c.approvals[owner] = ops
	}
	ops[operator] = approved
}

func (c *Collection) IsApprovedForAll(owner, operator forge.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.approvals[owner][operator]
}

// TransferFrom moves id without consulting receivers.
func (c *Collection) TransferFrom(_ context.Context, operator, from, to forge.Address, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkTransfer(operator, from, to, id); err != nil {
		return err
	}
	c.move(from, to, id)
	return nil
}

// SafeTransferFrom moves id after the receiver registered for to, if any, accepts it.
// The receiver runs without the collection lock held.
func (c *Collection) SafeTransferFrom(ctx context.Context, operator, from, to forge.Address, id uint64) error {
	c.mu.RLock()
	err := c.checkTransfer(operator, from, to, id)
	recv := c.receivers[to]
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	if recv != nil {
		if err := recv(ctx, operator, from, id); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkTransfer(operator, from, to, id); err != nil {
		return err
	}
	c.move(from, to, id)
	return nil
}

func (c *Collection) checkTransfer(operator, from, to forge.Address, id uint64) error {
	owner, ok := c.owners[id]
	if !ok {
		return fmt.Errorf("%w: %s #%d", ErrTokenNotFound, c.name, id)
	}
	if owner != from {
		return fmt.Errorf("%w: %s #%d", ErrWrongOwner, c.name, id)
	}
	if to.IsZero() {
		return ErrInvalidDestination
	}
	if operator != from && !c.approvals[from][operator] {
		return fmt.Errorf("%w: %s #%d", ErrNotApproved, c.name, id)
	}
	return nil
}

func (c *Collection) move(from, to forge.Address, id uint64) {
	c.owners[id] = to
	c.holdings[from] = slices.DeleteFunc(c.holdings[from], func(v uint64) bool { return v == id })
	c.holdings[to] = append(c.holdings[to], id)
}

// State is the serializable form of a collection. Receivers are not part of it.
type State struct {
	NextID    uint64                            `json:"next_id"`
	Owners    map[uint64]forge.Address          `json:"owners"`
	URIs      map[uint64]string                 `json:"uris,omitempty"`
	Approvals map[forge.Address][]forge.Address `json:"approvals,omitempty"`
}

func (c *Collection) Export() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := State{
		NextID:    c.nextID,
		Owners:    make(map[uint64]forge.Address, len(c.owners)),
		URIs:      make(map[uint64]string, len(c.uris)),
		Approvals: make(map[forge.Address][]forge.Address),
	}
	for id, owner := range c.owners {
		st.Owners[id] = owner
	}
	for id, uri := range c.uris {
		st.URIs[id] = uri
	}
	for owner, ops := range c.approvals {
		for op, ok := range ops {
			if ok {
				st.Approvals[owner] = append(st.Approvals[owner], op)
			}
		}
	}
	return st
}

// Import replaces ownership, URIs and approvals with st. Holdings are rebuilt in id order.
func (c *Collection) Import(st State) {
	ids := make([]uint64, 0, len(st.Owners))
	for id := range st.Owners {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID = max(st.NextID, 1)
	c.owners = make(map[uint64]forge.Address, len(st.Owners))
	c.uris = make(map[uint64]string, len(st.URIs))
	c.holdings = make(map[forge.Address][]uint64)
	c.approvals = make(map[forge.Address]map[forge.Address]bool)
	for _, id := range ids {
		owner := st.Owners[id]
		c.owners[id] = owner
		c.holdings[owner] = append(c.holdings[owner], id)
	}
	for id, uri := range st.URIs {
		c.uris[id] = uri
	}
	for owner, ops := range st.Approvals {
		m := make(map[forge.Address]bool, len(ops))
		for _, op := range ops {
			m[op] = true
		}
		c.approvals[owner] = m
	}
}
