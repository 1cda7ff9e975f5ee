package registry

import (
	"errors"
	"math/rand"
	"sync/atomic"
)

// ErrNoInstances is returned by pickers when discovery came back empty.
var ErrNoInstances = errors.New("registry: no instances available")

// Picker chooses which discovered instance to dial. Selection happens once
// per connection, before any request exists, so strategies are keyed on the
// instance list alone. Implementations must be safe for concurrent use.
type Picker interface {
	Pick(instances []Instance) (*Instance, error)
	Name() string
}

// RoundRobin cycles through instances with an atomic counter. Good default
// when all endpoints have similar capacity.
type RoundRobin struct {
	counter atomic.Int64
}

func (p *RoundRobin) Pick(instances []Instance) (*Instance, error) {
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}
	idx := p.counter.Add(1) % int64(len(instances))
	return &instances[idx], nil
}

func (p *RoundRobin) Name() string { return "RoundRobin" }

// WeightedRandom picks proportionally to Instance.Weight, for heterogeneous
// endpoints. Instances with weight <= 0 count as weight 1.
type WeightedRandom struct{}

func (p *WeightedRandom) Pick(instances []Instance) (*Instance, error) {
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}
	total := 0
	for _, inst := range instances {
		total += effectiveWeight(inst)
	}
	n := rand.Intn(total)
	for i := range instances {
		n -= effectiveWeight(instances[i])
		if n < 0 {
			return &instances[i], nil
		}
	}
	return &instances[len(instances)-1], nil
}

func (p *WeightedRandom) Name() string { return "WeightedRandom" }

func effectiveWeight(inst Instance) int {
	if inst.Weight <= 0 {
		return 1
	}
	return inst.Weight
}
