package carbon

import "github.com/goccy/go-json"

// Mode identifies which estimator produced a result. The values double as
// the log type persisted with each estimate.
type Mode string

const (
	ModeQuick    Mode = "Quick"
	ModeDetailed Mode = "Detailed"
)

// Category names one contributor to a footprint breakdown.
type Category string

const (
	CategoryEnergy      Category = "energy"
	CategoryTransport   Category = "transport"
	CategoryDiet        Category = "diet"
	CategoryConsumption Category = "consumption"
	CategoryWaste       Category = "waste"
)

// CanonicalOrder is the fixed order in which categories are listed and in
// which ties for the dominant category are broken.
var CanonicalOrder = []Category{
	CategoryEnergy,
	CategoryTransport,
	CategoryDiet,
	CategoryConsumption,
	CategoryWaste,
}

// Input is implemented by QuickInput and DetailedInput only.
type Input interface {
	// Mode reports which estimator the input is meant for.
	Mode() Mode

	// commuteMode is the transport variant key the user reported.
	commuteMode() string

	// meatFree reports whether the user eats no meat.
	meatFree() bool
}

// QuickInput is the coarse, categorical input of quick mode.
// Every field is optional; unknown values resolve to default rates.
type QuickInput struct {
	// Commute is the transport variant, e.g. "scooter_gas" or "public".
	Commute string `json:"commute,omitempty"`

	// Diet is the diet pattern, e.g. "meat_heavy" or "vegetarian".
	Diet string `json:"diet,omitempty"`

	// Shopping is the spending tier: "low", "medium" or "high".
	Shopping string `json:"shopping,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. Answers that are not JSON
// strings are treated as missing and resolve to the category default.
func (in *QuickInput) UnmarshalJSON(b []byte) error {
	var raw struct {
		Commute  any `json:"commute"`
		Diet     any `json:"diet"`
		Shopping any `json:"shopping"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*in = QuickInput{
		Commute:  answer(raw.Commute),
		Diet:     answer(raw.Diet),
		Shopping: answer(raw.Shopping),
	}
	return nil
}

func answer(v any) string {
	s, _ := v.(string)
	return s
}

// Mode implements Input.
func (QuickInput) Mode() Mode { return ModeQuick }

func (in QuickInput) commuteMode() string { return in.Commute }

func (in QuickInput) meatFree() bool { return in.Diet == "vegetarian" }

// EnergyInput holds monthly household energy use.
type EnergyInput struct {
	// Electricity is kWh per month.
	Electricity Quantity `json:"electricity"`

	// Water is billed units per month.
	Water Quantity `json:"water"`

	// Gas is billed units per month.
	Gas Quantity `json:"gas"`
}

// TransportInput holds the main commute mode and monthly distance.
type TransportInput struct {
	// Type is the transport variant; unknown values use DefaultTransportRate.
	Type string `json:"type"`

	// Km is kilometres travelled per month.
	Km Quantity `json:"km"`
}

// DietInput holds weekly meal counts.
type DietInput struct {
	Meat Quantity `json:"meat"`
	Veg  Quantity `json:"veg"`

	// Grain is optional.
	Grain Quantity `json:"grain"`
}

// ConsumptionInput holds monthly spend in currency units.
type ConsumptionInput struct {
	Clothes     Quantity `json:"clothes"`
	Electronics Quantity `json:"electronics"`
}

// WasteInput holds weekly waste and recycling.
type WasteInput struct {
	// Bags is bags of general waste per week.
	Bags Quantity `json:"bags"`

	// Recycle is recycled units per week.
	Recycle Quantity `json:"recycle"`
}

// DetailedInput is the structured input of detailed mode.
// All numeric fields except Diet.Grain are required.
type DetailedInput struct {
	Energy      EnergyInput      `json:"energy"`
	Transport   TransportInput   `json:"transport"`
	Diet        DietInput        `json:"diet"`
	Consumption ConsumptionInput `json:"consumption"`
	Waste       WasteInput       `json:"waste"`
}

// Mode implements Input.
func (DetailedInput) Mode() Mode { return ModeDetailed }

func (in DetailedInput) commuteMode() string { return in.Transport.Type }

func (in DetailedInput) meatFree() bool {
	meat, err := in.Diet.Meat.Value()
	return err == nil && meat == 0
}

// Entry is one category subtotal in kgCO2e per year.
type Entry struct {
	Category Category
	Value    float64
}

// Breakdown is the per-category decomposition of a footprint. It is
// implemented by QuickBreakdown and DetailedBreakdown only, so the category
// set is fixed per mode.
type Breakdown interface {
	// Entries lists the subtotals in CanonicalOrder.
	Entries() []Entry

	// Sum adds up every subtotal.
	Sum() float64

	isBreakdown()
}

// QuickBreakdown is the breakdown produced in quick mode.
type QuickBreakdown struct {
	Transport   float64 `json:"transport"`
	Diet        float64 `json:"diet"`
	Consumption float64 `json:"consumption"`
}

// Entries implements Breakdown.
func (b QuickBreakdown) Entries() []Entry {
	return []Entry{
		{CategoryTransport, b.Transport},
		{CategoryDiet, b.Diet},
		{CategoryConsumption, b.Consumption},
	}
}

// Sum implements Breakdown.
func (b QuickBreakdown) Sum() float64 {
	return b.Transport + b.Diet + b.Consumption
}

func (QuickBreakdown) isBreakdown() {}

func (b QuickBreakdown) rounded() QuickBreakdown {
	return QuickBreakdown{
		Transport:   round1(b.Transport),
		Diet:        round1(b.Diet),
		Consumption: round1(b.Consumption),
	}
}

// DetailedBreakdown is the breakdown produced in detailed mode.
// Waste may be negative when recycling outweighs general waste.
type DetailedBreakdown struct {
	Energy      float64 `json:"energy"`
	Transport   float64 `json:"transport"`
	Diet        float64 `json:"diet"`
	Consumption float64 `json:"consumption"`
	Waste       float64 `json:"waste"`
}

// Entries implements Breakdown.
func (b DetailedBreakdown) Entries() []Entry {
	return []Entry{
		{CategoryEnergy, b.Energy},
		{CategoryTransport, b.Transport},
		{CategoryDiet, b.Diet},
		{CategoryConsumption, b.Consumption},
		{CategoryWaste, b.Waste},
	}
}

// Sum implements Breakdown.
func (b DetailedBreakdown) Sum() float64 {
	return b.Energy + b.Transport + b.Diet + b.Consumption + b.Waste
}

func (DetailedBreakdown) isBreakdown() {}

func (b DetailedBreakdown) rounded() DetailedBreakdown {
	return DetailedBreakdown{
		Energy:      round1(b.Energy),
		Transport:   round1(b.Transport),
		Diet:        round1(b.Diet),
		Consumption: round1(b.Consumption),
		Waste:       round1(b.Waste),
	}
}

// Result is a finished footprint estimate. Total and every breakdown value
// are in kgCO2e per year, rounded to one decimal. Total is rounded from the
// full-precision sum, so it may differ from the sum of the rounded
// breakdown by at most 0.1 per category.
type Result struct {
	Mode       Mode      `json:"-"`
	Total      float64   `json:"total"`
	Breakdown  Breakdown `json:"breakdown"`
	Suggestion string    `json:"suggestion"`

	// TopSource is the dominant category of Breakdown.
	TopSource Category `json:"top_source,omitempty"`
}

// Dominant returns the category with the largest subtotal. Ties go to the
// category earliest in CanonicalOrder. ok is false for an empty breakdown.
func Dominant(b Breakdown) (Category, bool) {
	if b == nil {
		return "", false
	}
	entries := b.Entries()
	if len(entries) == 0 {
		return "", false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Value > best.Value {
			best = e
		}
	}
	return best.Category, true
}
