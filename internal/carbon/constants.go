// Package carbon estimates personal annual carbon footprints from lifestyle
// inputs and keeps the emission factor table current from a grid-intensity feed.
package carbon

const (
	// QuickCommuteKmPerDay is the fixed daily commute distance assumed in quick mode.
	QuickCommuteKmPerDay = 20.0

	// WorkdaysPerYear is the number of commuting days per year in quick mode.
	WorkdaysPerYear = 250.0

	// DaysPerYear annualizes per-day diet rates.
	DaysPerYear = 365.0

	// MonthsPerYear annualizes monthly inputs.
	MonthsPerYear = 12.0

	// WeeksPerYear annualizes weekly inputs.
	WeeksPerYear = 52.0

	// SpendUnit is the currency amount consumption rates are expressed against.
	// A consumption rate of 0.6 means 0.6 kgCO2e per 1000 currency units spent.
	SpendUnit = 1000.0
)

// Monthly spend assumed for each quick-mode shopping tier, in currency units.
const (
	SpendLow     = 10000.0
	SpendMedium  = 20000.0
	SpendHigh    = 40000.0
	DefaultSpend = SpendMedium
)

// Per-meal rates used by the detailed estimator, in kgCO2e per meal.
// These are fixed and not sourced from the coefficient table.
const (
	MeatMealRate  = 1.5
	VegMealRate   = 0.3
	GrainMealRate = 0.5
)

// Per-currency-unit consumption rates used by the detailed estimator,
// in kgCO2e per 1000 currency units.
const (
	ClothesSpendRate     = 0.5
	ElectronicsSpendRate = 1.0
)

// Waste rates used by the detailed estimator, in kgCO2e per unit per week.
// Recycling offsets emissions, so its rate is negative.
const (
	WasteBagRate = 0.8
	RecycleRate  = -0.5
)

// Severity thresholds on the yearly total, in kgCO2e.
const (
	StrongWarningThreshold = 5000.0
	MildWarningThreshold   = 2500.0
	CommendationThreshold  = 1000.0
)
