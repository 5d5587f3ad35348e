package carbon

import "context"

// QuickEstimator estimates a footprint from three categorical answers.
type QuickEstimator struct {
	source    CoefficientSource
	suggester Suggester
}

// NewQuickEstimator creates a quick estimator. A nil suggester uses RuleSuggester.
func NewQuickEstimator(source CoefficientSource, suggester Suggester) *QuickEstimator {
	if suggester == nil {
		suggester = RuleSuggester{}
	}
	return &QuickEstimator{source: source, suggester: suggester}
}

// Estimate computes the annual footprint for in. It never fails: unknown
// or missing answers use the default rate of their category.
//
// The calculation:
//  1. Transport = rate(commute) × 20 km × 250 workdays
//  2. Diet = rate(diet) × 365 days
//  3. Consumption = monthly spend(shopping) × 12 × rate(shopping) / 1000
//  4. Total = Transport + Diet + Consumption, rounded once at the end
func (e *QuickEstimator) Estimate(ctx context.Context, in QuickInput) Result {
	coeffs := e.source.Current(ctx)

	raw := QuickBreakdown{
		Transport:   coeffs.TransportRate(in.Commute) * QuickCommuteKmPerDay * WorkdaysPerYear,
		Diet:        coeffs.DietRate(in.Diet) * DaysPerYear,
		Consumption: MonthlySpend(in.Shopping) * MonthsPerYear * (coeffs.ConsumptionRate(in.Shopping) / SpendUnit),
	}

	total := round1(raw.Sum())
	breakdown := raw.rounded()
	top, _ := Dominant(breakdown)

	return Result{
		Mode:       ModeQuick,
		Total:      total,
		Breakdown:  breakdown,
		Suggestion: e.suggester.Suggest(total, breakdown, in),
		TopSource:  top,
	}
}
