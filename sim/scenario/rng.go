package scenario

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey uniquely identifies a reproducible scenario run.
// Two runs with the same SimulationKey and identical configuration
// produce identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// SubsystemPlayer returns the subsystem name for ping-pong player or token
// ring holder N.
func SubsystemPlayer(id int) string {
	return fmt.Sprintf("player_%d", id)
}

// SubsystemProducer returns the subsystem name for producer N.
func SubsystemProducer(id int) string {
	return fmt.Sprintf("producer_%d", id)
}

const (
	// SubsystemConsumer draws service times.
	SubsystemConsumer = "consumer"
	// SubsystemToken draws token pass delays.
	SubsystemToken = "token"
	// SubsystemDispatch draws load sizes, arrivals and worker choices.
	SubsystemDispatch = "dispatch"
)

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem, so adding draws to one process never perturbs another.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
