package domain

import "time"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Region is a named geographic catchment area used for coarse location labeling.
// The region table is fixed at startup and never mutated.
type Region struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Center       GeoPoint `json:"center"`
	RadiusMeters float64  `json:"radius_meters"`
	AreaNames    []string `json:"area_names"`
}

// LocationState is the session's resolved position snapshot. The address is
// patched in asynchronously once reverse geocoding completes; until then it
// holds a placeholder.
type LocationState struct {
	Location       GeoPoint  `json:"location"`
	Address        string    `json:"address"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
	// Fallback marks a state produced from the configured default location
	// after a failed acquisition.
	Fallback bool `json:"fallback,omitempty"`
}
