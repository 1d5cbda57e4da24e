package googlemaps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/ports"
)

// GeolocationProvider implements ports.GeolocationProvider with the Google
// Maps Geolocation API, positioning the caller by IP when no radio data is
// available.
type GeolocationProvider struct {
	client *maps.Client
}

// NewGeolocationProvider creates a provider backed by the Maps API.
func NewGeolocationProvider(apiKey string) (*GeolocationProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &GeolocationProvider{client: c}, nil
}

// RequestPosition resolves the current position. API failures map onto the
// acquisition sentinels so the location session can fall back uniformly.
func (g *GeolocationProvider) RequestPosition(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	resp, err := g.client.Geolocate(ctx, &maps.GeolocationRequest{
		ConsiderIP: true,
	})
	if err != nil {
		return ports.Position{}, classifyGeolocateError(err)
	}

	return ports.Position{
		Location:       domain.GeoPoint{Lat: resp.Location.Lat, Lon: resp.Location.Lng},
		AccuracyMeters: resp.Accuracy,
	}, nil
}

func classifyGeolocateError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ports.ErrPositionTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", ports.ErrPositionUnavailable, err)
	}
}
