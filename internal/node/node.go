// Package node assembles the forge engine with its in-process collections and randomness oracle.
package node

import (
	"encoding/json"
	"fmt"
	"time"

	"dragon-forge/internal/entropy"
	"dragon-forge/internal/forge"
	"dragon-forge/internal/nft"
)

const (
	CollectionDragons = "dragons"
	CollectionParty   = "party"
	CollectionRewards = "rewards"
)

type Options struct {
	Owner            forge.Address
	Vault            forge.Address
	Provider         forge.Address
	OracleAddress    forge.Address
	OracleFee        uint64
	DragonsAddress   forge.Address
	PartyAddress     forge.Address
	RewardsAddress   forge.Address
	PointsPerHour    uint64
	ProbabilityTotal uint64
	MintExpiry       time.Duration
	Now              func() time.Time
}

type Node struct {
	Engine   *forge.Engine
	Oracle   *entropy.Mock
	Registry *nft.Registry
	Dragons  *nft.Collection
	Party    *nft.Collection
	Rewards  *nft.Collection
}

// New wires the engine to the staked collection (custody), the loyalty collection, the reward
// collection and the oracle. The engine guards the vault and receives oracle deliveries.
func New(opts Options) (*Node, error) {
	n := &Node{
		Oracle:   entropy.NewMock(opts.OracleAddress, opts.OracleFee),
		Registry: nft.NewRegistry(),
		Dragons:  nft.NewCollection(CollectionDragons, opts.DragonsAddress),
		Party:    nft.NewCollection(CollectionParty, opts.PartyAddress),
		Rewards:  nft.NewCollection(CollectionRewards, opts.RewardsAddress),
	}
	for _, c := range []*nft.Collection{n.Dragons, n.Party, n.Rewards} {
		if c.Address().IsZero() {
			return nil, fmt.Errorf("%w: %s collection address", forge.ErrInvalidAddress, c.Name())
		}
		if err := n.Registry.Add(c); err != nil {
			return nil, err
		}
	}
	eng, err := forge.New(forge.Config{
		Owner:            opts.Owner,
		Vault:            opts.Vault,
		Provider:         opts.Provider,
		RewardContract:   opts.RewardsAddress,
		PointsPerHour:    opts.PointsPerHour,
		ProbabilityTotal: opts.ProbabilityTotal,
		MintExpiry:       opts.MintExpiry,
		Now:              opts.Now,
	}, forge.Deps{
		Custody: n.Dragons,
		Loyalty: n.Party,
		Rewards: n.Registry,
		Oracle:  n.Oracle,
	})
	if err != nil {
		return nil, err
	}
	n.Engine = eng
	n.Dragons.RegisterReceiver(opts.Vault, eng.OnReceived)
	n.Oracle.SetCallback(eng.DeliverRandomness)
	return n, nil
}

type snapshot struct {
	Engine      json.RawMessage      `json:"engine"`
	Collections map[string]nft.State `json:"collections"`
	Oracle      entropy.State        `json:"oracle"`
}

// Snapshot captures engine, collections and oracle in one consistent blob.
func (n *Node) Snapshot() ([]byte, uint64, error) {
	snap := snapshot{Collections: make(map[string]nft.State, 3)}
	engine, seq, err := n.Engine.SnapshotWith(func() error {
		for _, c := range []*nft.Collection{n.Dragons, n.Party, n.Rewards} {
			snap.Collections[c.Name()] = c.Export()
		}
		snap.Oracle = n.Oracle.Export()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	snap.Engine = engine
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, 0, err
	}
	return b, seq, nil
}

// Restore loads a blob produced by Snapshot. Call it before serving traffic.
func (n *Node) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode node snapshot: %w", err)
	}
	if len(snap.Engine) == 0 {
		return fmt.Errorf("decode node snapshot: missing engine state")
	}
	if err := n.Engine.Restore(snap.Engine); err != nil {
		return err
	}
	for _, c := range []*nft.Collection{n.Dragons, n.Party, n.Rewards} {
		if st, ok := snap.Collections[c.Name()]; ok {
			c.Import(st)
		}
	}
	n.Oracle.Import(snap.Oracle)
	return nil
}

// Collection resolves a collection by name.
func (n *Node) Collection(name string) (*nft.Collection, error) {
	return n.Registry.ByName(name)
}
