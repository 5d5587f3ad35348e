package carbon

// InsufficientDataSuggestion is returned when a breakdown has no categories.
const InsufficientDataSuggestion = "Not enough data to make a suggestion yet."

// Suggester turns an estimate into a short recommendation.
type Suggester interface {
	Suggest(total float64, breakdown Breakdown, in Input) string
}

// Severity is the qualitative band of a yearly total.
type Severity string

const (
	SeverityStrongWarning Severity = "strong_warning"
	SeverityMildWarning   Severity = "mild_warning"
	SeverityNeutral       Severity = "neutral"
	SeverityCommendation  Severity = "commendation"
)

// Assess places a yearly total in kgCO2e into its severity band:
// above 5000 is a strong warning, 2500 to 5000 a mild warning,
// below 1000 a commendation and anything else neutral.
func Assess(total float64) Severity {
	switch {
	case total > StrongWarningThreshold:
		return SeverityStrongWarning
	case total >= MildWarningThreshold:
		return SeverityMildWarning
	case total < CommendationThreshold:
		return SeverityCommendation
	default:
		return SeverityNeutral
	}
}

var severityPrefix = map[Severity]string{
	SeverityStrongWarning: "Your footprint is well above a sustainable level and needs attention.",
	SeverityMildWarning:   "Your footprint is above average.",
	SeverityNeutral:       "You are on the right track, and small changes still add up.",
	SeverityCommendation:  "Great job, your footprint is already low.",
}

// TransportClass groups transport variants for suggestions.
type TransportClass string

const (
	TransportFuel      TransportClass = "fuel"
	TransportTransit   TransportClass = "transit"
	TransportLowCarbon TransportClass = "low_carbon"
)

// ClassifyTransport maps a transport variant to its class. Unknown variants
// count as fuel, matching their default rate.
func ClassifyTransport(mode string) TransportClass {
	switch mode {
	case "public":
		return TransportTransit
	case "scooter_electric", "car_electric", "bike":
		return TransportLowCarbon
	default:
		return TransportFuel
	}
}

// RuleSuggester is the deterministic suggestion generator. The output is a
// severity prefix followed by advice for the dominant category.
type RuleSuggester struct{}

// Suggest implements Suggester.
func (RuleSuggester) Suggest(total float64, breakdown Breakdown, in Input) string {
	dominant, ok := Dominant(breakdown)
	if !ok {
		return InsufficientDataSuggestion
	}
	return severityPrefix[Assess(total)] + " " + categoryAdvice(dominant, in)
}

func categoryAdvice(c Category, in Input) string {
	switch c {
	case CategoryEnergy:
		return "Household energy is your largest source. Switching to LED lighting, " +
			"unplugging idle devices and keeping the air conditioner at 26°C will cut your electricity use."
	case CategoryTransport:
		return transportAdvice(in)
	case CategoryDiet:
		if in != nil && in.meatFree() {
			return "Food is your largest source even on a meat-free diet. " +
				"Choosing local, seasonal produce and cutting back on dairy and food waste can lower it further."
		}
		return "Food is your largest source. Try a meat-free day each week " +
			"and swap red meat for chicken, fish or beans."
	case CategoryConsumption:
		return "Shopping is your largest source. Ask whether each purchase is a need or a want, " +
			"and look at second-hand clothes and refurbished electronics."
	case CategoryWaste:
		return "Waste is your largest source. Sorting recyclables and carrying a reusable cup, " +
			"bottle and bag will shrink your weekly rubbish."
	default:
		return "Review your largest emission category for the biggest savings."
	}
}

func transportAdvice(in Input) string {
	mode := ""
	if in != nil {
		mode = in.commuteMode()
	}
	switch ClassifyTransport(mode) {
	case TransportTransit:
		return "Transport is your largest source even on public transit. " +
			"Walking or cycling for trips under 2 km and combining errands will lower it further."
	case TransportLowCarbon:
		return "Transport is your largest source despite a low-carbon commute. " +
			"Cutting long-distance trips and choosing rail over flights will make the biggest difference."
	default:
		return "Transport is your largest source. Taking the MRT or bus one day a week saves about 50 kg a year, " +
			"and an electric scooter cuts commute emissions by around 60%."
	}
}
