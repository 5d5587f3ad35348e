package carbon

import (
	"math/rand/v2"
	"sync"
)

// SuggestionPool lists the interchangeable tips per category used by PoolSuggester.
var SuggestionPool = map[Category][]string{
	CategoryEnergy: {
		"Your household energy emissions are high. Switch to LED lighting and energy-efficient appliances.",
		"Set the air conditioner to 26°C and use a fan to spread cool air.",
		"Unplug chargers and idle devices; standby power adds up over a year.",
	},
	CategoryTransport: {
		"Your transport emissions are high. Taking the MRT or bus one day a week saves about 50 kg a year.",
		"Replacing a gasoline scooter with an electric one cuts commute emissions by around 60%.",
		"For trips under 2 km, try a shared bike. It is healthy and green.",
	},
	CategoryDiet: {
		"Food is your main source. Join Meatless Monday and eat less red meat.",
		"Choose local, seasonal ingredients to cut food miles.",
		"Buy fewer bottled and takeaway drinks; carrying your own cup is the first step to less waste.",
	},
	CategoryConsumption: {
		"Your shopping emissions are high. Before buying electronics, ask whether it is a need or a want.",
		"Swap or buy second-hand clothes to extend product lifetimes.",
		"Support products that carry a carbon footprint label.",
	},
	CategoryWaste: {
		"Your waste emissions are high. Sort recyclables and compost food scraps.",
		"Carry a reusable bag, bottle and cup to cut single-use packaging.",
		"Repair before you replace; every bag not thrown away counts.",
	},
}

// PoolSuggester picks a random tip for the dominant category. It is the
// non-deterministic alternative to RuleSuggester.
type PoolSuggester struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPoolSuggester creates a PoolSuggester drawing from src.
// A nil src uses the shared, concurrency-safe global source.
func NewPoolSuggester(src rand.Source) *PoolSuggester {
	p := &PoolSuggester{}
	if src != nil {
		p.rng = rand.New(src)
	}
	return p
}

// Suggest implements Suggester.
func (p *PoolSuggester) Suggest(_ float64, breakdown Breakdown, _ Input) string {
	dominant, ok := Dominant(breakdown)
	if !ok {
		return InsufficientDataSuggestion
	}
	pool := SuggestionPool[dominant]
	if len(pool) == 0 {
		return InsufficientDataSuggestion
	}
	return pool[p.intN(len(pool))]
}

func (p *PoolSuggester) intN(n int) int {
	if p.rng == nil {
		return rand.IntN(n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}
