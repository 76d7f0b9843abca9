// Package nullable decides which generated fields are marked .nullable().
package nullable

import (
	"math/rand/v2"

	"github.com/mcncl/gozod/internal/models"
)

// Threshold is the draw a random policy must exceed to mark a field nullable,
// giving roughly a 30% chance per field.
const Threshold = 0.7

// Policy is consulted once per eligible field, in emission order. Root
// declarations and array element types are never eligible.
type Policy interface {
	Nullable(path models.FieldPath) bool
}

// Stateful is implemented by policies whose decisions depend on earlier
// calls. Fresh returns an unused copy so each generation starts from the
// same state and concurrent generations never share one.
type Stateful interface {
	Policy
	Fresh() Policy
}

// Fresh returns p, or a fresh copy when p is Stateful.
func Fresh(p Policy) Policy {
	if s, ok := p.(Stateful); ok {
		return s.Fresh()
	}
	return p
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(path models.FieldPath) bool

// Nullable calls f.
func (f PolicyFunc) Nullable(path models.FieldPath) bool { return f(path) }

// Never marks nothing nullable.
var Never Policy = PolicyFunc(func(models.FieldPath) bool { return false })

// Random draws one uniform sample in [0,1) per field from a PCG source and
// marks the field nullable when the sample exceeds Threshold. Two policies
// built from the same seed make the same decisions for the same sequence of
// fields. A Random policy is not safe for concurrent use.
type Random struct {
	seed uint64
	rng  *rand.Rand
}

// NewRandom returns a Random policy seeded with seed.
func NewRandom(seed uint64) *Random {
	return &Random{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Seed returns the seed the policy was built from.
func (r *Random) Seed() uint64 { return r.seed }

// Fresh implements Stateful with a new policy from the same seed.
func (r *Random) Fresh() Policy { return NewRandom(r.seed) }

// Nullable implements Policy.
func (r *Random) Nullable(models.FieldPath) bool {
	return r.rng.Float64() > Threshold
}

// Paths marks exactly the listed field paths nullable. Paths use the
// FieldPath string form, e.g. "address.city" or "orders[].amount".
type Paths struct {
	set map[string]struct{}
}

// NewPaths builds a Paths policy.
func NewPaths(paths []string) *Paths {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return &Paths{set: set}
}

// Nullable implements Policy.
func (p *Paths) Nullable(path models.FieldPath) bool {
	_, ok := p.set[path.String()]
	return ok
}
