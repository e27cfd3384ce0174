package dataforseo

import "strings"

// locationCodes maps human location names to the provider's numeric codes.
var locationCodes = map[string]int{
	"usa":            2840,
	"united states":  2840,
	"us":             2840,
	"uk":             2826,
	"united kingdom": 2826,
	"canada":         2124,
	"australia":      2036,
	"germany":        2276,
	"france":         2250,
	"spain":          2724,
	"italy":          2380,
	"netherlands":    2528,
	"ireland":        2372,
	"new zealand":    2554,
	"singapore":      2702,
	"india":          2356,
}

// DefaultLocationCode is used when a location name is not recognized.
const DefaultLocationCode = 2840

// LocationCode resolves a location name to the provider's numeric code.
// Unknown names fall back to DefaultLocationCode and ok=false.
func LocationCode(name string) (int, bool) {
	if code, ok := locationCodes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code, true
	}
	return DefaultLocationCode, false
}
