package plan

import "math/rand"

// Registry holds loaded plans and picks among them.
type Registry struct {
	plans       []Plan
	totalWeight int
}

// NewRegistry creates a registry from loaded plans.
func NewRegistry(plans []Plan) *Registry {
	totalWeight := 0
	for _, p := range plans {
		totalWeight += p.Weight
	}
	return &Registry{
		plans:       plans,
		totalWeight: totalWeight,
	}
}

// Pick selects a plan using weighted probability. Plans with a higher
// weight are more likely to be selected.
func (r *Registry) Pick(rng *rand.Rand) *Plan {
	if r.totalWeight <= 0 || len(r.plans) == 0 {
		return nil
	}

	roll := rng.Intn(r.totalWeight)
	cumulative := 0
	for i := range r.plans {
		cumulative += r.plans[i].Weight
		if roll < cumulative {
			return &r.plans[i]
		}
	}
	return &r.plans[len(r.plans)-1]
}

// GetByID returns the plan with the given ID, or nil if not found.
func (r *Registry) GetByID(id string) *Plan {
	for i := range r.plans {
		if r.plans[i].ID == id {
			return &r.plans[i]
		}
	}
	return nil
}

// First returns the first plan in file order, or nil for an empty registry.
func (r *Registry) First() *Plan {
	if len(r.plans) == 0 {
		return nil
	}
	return &r.plans[0]
}

// All returns all plans.
func (r *Registry) All() []Plan {
	return r.plans
}

// Count returns the number of plans in the registry.
func (r *Registry) Count() int {
	return len(r.plans)
}
