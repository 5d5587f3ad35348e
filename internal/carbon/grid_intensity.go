package carbon

// FallbackGridIntensity is the national grid electricity intensity in kgCO2e per kWh,
// used when the grid-intensity feed is unavailable.
//
// Source: Taipower open data, electricity emission factor by year
// Data vintage: 2022 (update using: go run ./tools/update-grid-intensity)
const FallbackGridIntensity = 0.495
