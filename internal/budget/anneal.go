package budget

import (
	"math"
	"math/rand"

	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/retriever"
)

// Annealing schedule constants from spec §4.3.
const (
	initialTemp      = 100.0
	finalTemp        = 0.1
	coolingRate      = 0.95
	innerIterations  = 100
	maxOuterBackstop = 1000
	stagnantLimit    = 5
)

// Distribute allocates criteria.TotalBudget across the three categories
// via simulated annealing, minimizing
//
//	cost = -Σ wk·ln(1+sk) + P_constraint + P_balance
//
// where sk is category k's allocation (in thousands, to keep the log
// term well scaled), P_constraint penalizes an allocation that can't
// afford the cheapest option the knowledge graph has actually seen for
// that category, and P_balance penalizes drifting from the weighted
// target split. The returned allocation always sums to the total: when
// clipping the seed to price bounds moved the sum away from it, the
// residue is added to the highest-weight category and the returned cost
// is that of the adjusted allocation. rng may be nil, in which case a
// source seeded with 1 is used; tests inject a seeded one for determinism.
func Distribute(criteria model.Criteria, weights Weights, bounds map[model.Category]PriceBounds, rng *rand.Rand) (Allocation, float64) {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	weights = weights.normalize()
	total := criteria.TotalBudget

	current := seedAllocation(total, criteria.Style, bounds)
	currentCost := cost(current, weights, bounds, total)

	best := cloneAllocation(current)
	bestCost := currentCost

	temp := initialTemp
	stagnant := 0
	outer := 0

	for temp > finalTemp && outer < maxOuterBackstop && stagnant < stagnantLimit {
		improvedThisRound := false
		for i := 0; i < innerIterations; i++ {
			candidate := neighbor(current, total, bounds, rng)
			candidateCost := cost(candidate, weights, bounds, total)
			delta := candidateCost - currentCost
			if delta < 0 || rng.Float64() < math.Exp(-delta/temp) {
				current = candidate
				currentCost = candidateCost
				if currentCost < bestCost {
					best = cloneAllocation(current)
					bestCost = currentCost
					improvedThisRound = true
				}
			}
		}
		if improvedThisRound {
			stagnant = 0
		} else {
			stagnant++
		}
		temp *= coolingRate
		outer++
	}

	sum := 0
	heaviest := model.Categories[0]
	for _, c := range model.Categories {
		sum += best[c]
		if weights[c] > weights[heaviest] {
			heaviest = c
		}
	}
	if sum != total {
		best[heaviest] += total - sum
		bestCost = cost(best, weights, bounds, total)
	}

	return best, bestCost
}

// seedAllocation asks the planner retrieval layer for a style-conditioned
// recommended split of total (spec §4.3's "seed: ask the retrieval layer
// for a recommended split of total_budget"), then clips every entry to
// its category's [min, max] price bounds, mirroring the original
// `initialize_state()`'s post-RAG clamp
// (_examples/original_source/Agents/BudgetAgent.py:372-386).
func seedAllocation(total int, style string, bounds map[model.Category]PriceBounds) Allocation {
	pattern := retriever.RecommendBudgetDistribution(style)
	alloc := make(Allocation, len(model.Categories))
	assigned := 0
	for i, c := range model.Categories {
		var amt int
		if i == len(model.Categories)-1 {
			amt = total - assigned
		} else {
			amt = int(pattern[c] * float64(total))
			assigned += amt
		}
		alloc[c] = clipToBounds(amt, bounds[c])
	}
	return alloc
}

// clipToBounds clamps amt into [Min, Max] when the category has observed
// prices to bound it by; a category with no observed prices yet (Count
// == 0) is left unclipped.
func clipToBounds(amt int, b PriceBounds) int {
	if b.Count == 0 {
		return amt
	}
	if b.Min > 0 && float64(amt) < b.Min {
		amt = int(math.Ceil(b.Min))
	}
	if b.Max > 0 && float64(amt) > b.Max {
		amt = int(math.Floor(b.Max))
	}
	return amt
}

func cloneAllocation(a Allocation) Allocation {
	out := make(Allocation, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// neighbor transfers a random slice of one category's allocation to
// another, the category-pair transfer move of spec §4.3: the transfer is
// bounded by both the receiving category's headroom to its max and the
// donating category's headroom above its min, matching the original
// `neighbor()`'s max_increase = min(max[k1]-state[k1], state[k2]-min[k2])
// (_examples/original_source/Agents/BudgetAgent.py:353-368). A pair with
// no legal transfer left returns the allocation unchanged, same as the
// original returning new_state == state when max_increase <= 0.
func neighbor(a Allocation, total int, bounds map[model.Category]PriceBounds, rng *rand.Rand) Allocation {
	out := cloneAllocation(a)
	if len(model.Categories) < 2 {
		return out
	}
	from := model.Categories[rng.Intn(len(model.Categories))]
	to := model.Categories[rng.Intn(len(model.Categories))]
	for to == from {
		to = model.Categories[rng.Intn(len(model.Categories))]
	}

	maxStep := total / 20
	if maxStep < 1 {
		maxStep = 1
	}
	if b, ok := bounds[to]; ok && b.Count > 0 && b.Max > 0 {
		if room := int(b.Max) - out[to]; room < maxStep {
			maxStep = room
		}
	}
	if b, ok := bounds[from]; ok && b.Count > 0 && b.Min > 0 {
		if room := out[from] - int(b.Min); room < maxStep {
			maxStep = room
		}
	}
	if maxStep < 1 {
		return out
	}

	step := rng.Intn(maxStep) + 1
	if step > out[from] {
		step = out[from]
	}
	out[from] -= step
	out[to] += step
	return out
}

func cost(alloc Allocation, weights Weights, bounds map[model.Category]PriceBounds, total int) float64 {
	var satisfaction float64
	for _, c := range model.Categories {
		sk := float64(alloc[c]) / 1000.0
		satisfaction += weights[c] * math.Log(1+sk)
	}

	var constraintPenalty float64
	for _, c := range model.Categories {
		b, ok := bounds[c]
		if !ok || b.Count == 0 {
			continue
		}
		amt := float64(alloc[c])
		if b.Min > 0 && amt < b.Min {
			constraintPenalty += (b.Min - amt) / b.Min * 50
		}
		if b.Max > 0 && amt > b.Max {
			constraintPenalty += (amt - b.Max) / b.Max * 50
		}
	}

	var balancePenalty float64
	if total > 0 {
		for _, c := range model.Categories {
			target := weights[c] * float64(total)
			diff := float64(alloc[c]) - target
			balancePenalty += (diff * diff) / (float64(total) * float64(total)) * 10
		}
	}

	return -satisfaction + constraintPenalty + balancePenalty
}
