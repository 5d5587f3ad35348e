package carbon

import "context"

// DetailedEstimator estimates a footprint from five structured modules.
type DetailedEstimator struct {
	source    CoefficientSource
	suggester Suggester
}

// NewDetailedEstimator creates a detailed estimator. A nil suggester uses RuleSuggester.
func NewDetailedEstimator(source CoefficientSource, suggester Suggester) *DetailedEstimator {
	if suggester == nil {
		suggester = RuleSuggester{}
	}
	return &DetailedEstimator{source: source, suggester: suggester}
}

// detailedValues holds the parsed numeric leaves of a DetailedInput.
type detailedValues struct {
	electricity, water, gas float64
	km                      float64
	meat, veg, grain        float64
	clothes, electronics    float64
	bags, recycle           float64
}

// Validate checks that every required numeric field is present, numeric and
// non-negative. It returns a *ValidationError naming the first bad field.
func (in DetailedInput) Validate() error {
	_, err := in.values()
	return err
}

func (in DetailedInput) values() (detailedValues, error) {
	var v detailedValues
	fields := []struct {
		name     string
		q        Quantity
		dst      *float64
		optional bool
	}{
		{"energy.electricity", in.Energy.Electricity, &v.electricity, false},
		{"energy.water", in.Energy.Water, &v.water, false},
		{"energy.gas", in.Energy.Gas, &v.gas, false},
		{"transport.km", in.Transport.Km, &v.km, false},
		{"diet.meat", in.Diet.Meat, &v.meat, false},
		{"diet.veg", in.Diet.Veg, &v.veg, false},
		{"diet.grain", in.Diet.Grain, &v.grain, true},
		{"consumption.clothes", in.Consumption.Clothes, &v.clothes, false},
		{"consumption.electronics", in.Consumption.Electronics, &v.electronics, false},
		{"waste.bags", in.Waste.Bags, &v.bags, false},
		{"waste.recycle", in.Waste.Recycle, &v.recycle, false},
	}

	for _, f := range fields {
		if f.optional && !f.q.Present() {
			continue
		}
		val, err := f.q.Value()
		if err != nil {
			return detailedValues{}, &ValidationError{Field: f.name, Reason: err.Error()}
		}
		*f.dst = val
	}
	return v, nil
}

// Estimate computes the annual footprint for in, or returns a
// *ValidationError and no result if a required field is missing or invalid.
//
// Monthly inputs are multiplied by 12 and weekly inputs by 52:
//   - Energy = kWh × elec rate + water × water rate + gas × gas rate
//   - Transport = km × rate(type)
//   - Diet = meat × 1.5 + veg × 0.3 + grain × 0.5 (fixed per-meal rates)
//   - Consumption = clothes / 1000 × 0.5 + electronics / 1000 × 1.0
//   - Waste = bags × 0.8 − recycle × 0.5, which can be negative
func (e *DetailedEstimator) Estimate(ctx context.Context, in DetailedInput) (Result, error) {
	v, err := in.values()
	if err != nil {
		return Result{}, err
	}

	coeffs := e.source.Current(ctx)

	raw := DetailedBreakdown{
		Energy: v.electricity*MonthsPerYear*coeffs.Energy.Electricity +
			v.water*MonthsPerYear*coeffs.Energy.Water +
			v.gas*MonthsPerYear*coeffs.Energy.Gas,
		Transport: v.km * MonthsPerYear * coeffs.TransportRate(in.Transport.Type),
		Diet: v.meat*WeeksPerYear*MeatMealRate +
			v.veg*WeeksPerYear*VegMealRate +
			v.grain*WeeksPerYear*GrainMealRate,
		Consumption: v.clothes*MonthsPerYear/SpendUnit*ClothesSpendRate +
			v.electronics*MonthsPerYear/SpendUnit*ElectronicsSpendRate,
		Waste: v.bags*WeeksPerYear*WasteBagRate +
			v.recycle*WeeksPerYear*RecycleRate,
	}

	total := round1(raw.Sum())
	breakdown := raw.rounded()
	top, _ := Dominant(breakdown)

	return Result{
		Mode:       ModeDetailed,
		Total:      total,
		Breakdown:  breakdown,
		Suggestion: e.suggester.Suggest(total, breakdown, in),
		TopSource:  top,
	}, nil
}
