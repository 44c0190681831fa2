package geoprompt

import "fmt"

// countryPrompts maps known country values to localization preambles.
var countryPrompts = map[string]string{
	"USA":       "Answer as if responding to someone in the United States",
	"UK":        "Answer as if responding to someone in the United Kingdom",
	"Germany":   "Answer as if responding to someone in Germany, auf Deutsch wenn nötig",
	"France":    "Answer as if responding to someone in France, en français si nécessaire",
	"Canada":    "Answer as if responding to someone in Canada",
	"Australia": "Answer as if responding to someone in Australia",
}

// Build rewrites a raw search prompt into a country-localized instruction.
// Unknown countries fall back to a generic preamble naming the country.
func Build(prompt, country string) string {
	geoContext, ok := countryPrompts[country]
	if !ok {
		geoContext = fmt.Sprintf("Answer as if responding to someone in %s", country)
	}
	return fmt.Sprintf("%s: %s", geoContext, prompt)
}
