package carbon

import "maps"

// Default rates returned for unknown or missing variant keys.
const (
	// DefaultTransportRate is the transport rate in kgCO2e per km (gasoline scooter).
	DefaultTransportRate = 0.046

	// DefaultDietRate is the diet rate in kgCO2e per day (balanced diet).
	DefaultDietRate = 3.8

	// DefaultConsumptionRate is the consumption rate in kgCO2e per 1000 currency units.
	DefaultConsumptionRate = 0.6

	// DefaultWaterRate is the water rate in kgCO2e per billed unit.
	DefaultWaterRate = 0.15

	// DefaultGasRate is the gas rate in kgCO2e per billed unit.
	DefaultGasRate = 2.1
)

// EnergyRates holds the category-level scalar rates for household energy.
type EnergyRates struct {
	// Electricity is the grid intensity in kgCO2e per kWh. It is the only
	// rate refreshed from the external feed.
	Electricity float64 `json:"electricity" yaml:"electricity"`

	// Water is kgCO2e per billed water unit.
	Water float64 `json:"water" yaml:"water"`

	// Gas is kgCO2e per billed gas unit.
	Gas float64 `json:"gas" yaml:"gas"`
}

// Table is the emission factor table consulted by the estimators.
// A Table handed out by a Store must be treated as read-only.
type Table struct {
	Transport   map[string]float64 `json:"transport" yaml:"transport"`
	Diet        map[string]float64 `json:"diet" yaml:"diet"`
	Consumption map[string]float64 `json:"consumption" yaml:"consumption"`
	Energy      EnergyRates        `json:"energy" yaml:"energy"`
}

// FallbackTable returns a fresh copy of the hardcoded coefficient table.
// Electricity uses FallbackGridIntensity, regenerated by tools/update-grid-intensity.
func FallbackTable() *Table {
	return &Table{
		Transport: map[string]float64{
			"scooter_gas":      0.046,
			"scooter_electric": 0.015,
			"car_gas":          0.173,
			"car_electric":     0.050,
			"public":           0.035,
			"bike":             0.0,
		},
		Diet: map[string]float64{
			"meat_heavy":  6.5,
			"balanced":    3.8,
			"convenience": 4.5,
			"vegetarian":  1.5,
		},
		Consumption: map[string]float64{
			"low":    0.4,
			"medium": 0.6,
			"high":   0.9,
		},
		Energy: EnergyRates{
			Electricity: FallbackGridIntensity,
			Water:       DefaultWaterRate,
			Gas:         DefaultGasRate,
		},
	}
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	return &Table{
		Transport:   maps.Clone(t.Transport),
		Diet:        maps.Clone(t.Diet),
		Consumption: maps.Clone(t.Consumption),
		Energy:      t.Energy,
	}
}

// TransportRate returns kgCO2e per km for the commute mode,
// or DefaultTransportRate if the mode is not listed.
func (t *Table) TransportRate(mode string) float64 {
	return lookup(t.Transport, mode, DefaultTransportRate)
}

// DietRate returns kgCO2e per day for the diet pattern,
// or DefaultDietRate if the pattern is not listed.
func (t *Table) DietRate(pattern string) float64 {
	return lookup(t.Diet, pattern, DefaultDietRate)
}

// ConsumptionRate returns kgCO2e per 1000 currency units for the spending tier,
// or DefaultConsumptionRate if the tier is not listed.
func (t *Table) ConsumptionRate(tier string) float64 {
	return lookup(t.Consumption, tier, DefaultConsumptionRate)
}

// MonthlySpend returns the monthly spend assumed for a quick-mode shopping tier.
func MonthlySpend(tier string) float64 {
	switch tier {
	case "low":
		return SpendLow
	case "medium":
		return SpendMedium
	case "high":
		return SpendHigh
	default:
		return DefaultSpend
	}
}

func lookup(m map[string]float64, key string, def float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}
