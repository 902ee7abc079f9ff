package services

// Approximate centroids for the Indian states present in the dataset.
// States without an entry render in tables but not on the map.
var stateCoords = map[string]struct{ Lat, Lon float64 }{
	"Karnataka":   {15.3173, 75.7139},
	"Maharashtra": {19.7515, 75.7139},
	"Tamil Nadu":  {11.1271, 78.6569},
	"Telangana":   {17.1232, 79.2088},
	"Delhi":       {28.7041, 77.1025},
	"West Bengal": {22.9868, 87.8550},
	"Gujarat":     {22.2587, 71.1924},
	"Rajasthan":   {27.0238, 74.2179},
}

// StateCoords returns the centroid for a state, if known.
func StateCoords(state string) (lat, lon float64, ok bool) {
	c, ok := stateCoords[state]
	return c.Lat, c.Lon, ok
}
