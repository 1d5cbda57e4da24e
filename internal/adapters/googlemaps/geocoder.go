package googlemaps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/jiljuapp/jilju/internal/core/domain"
)

// Geocoder implements ports.ReverseGeocoder with the Google Maps Geocoding
// API, preferring Korean-language results.
type Geocoder struct {
	client *maps.Client
}

// NewGeocoder creates a geocoder backed by the Maps API.
func NewGeocoder(apiKey string) (*Geocoder, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &Geocoder{client: c}, nil
}

// ReverseGeocode converts a coordinate into a formatted Korean address.
func (g *Geocoder) ReverseGeocode(ctx context.Context, point domain.GeoPoint) (string, error) {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: point.Lat, Lng: point.Lon},
		Language: "ko",
	})
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no address for %.4f, %.4f", point.Lat, point.Lon)
	}
	return results[0].FormattedAddress, nil
}
