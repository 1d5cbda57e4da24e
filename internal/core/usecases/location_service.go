package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/ports"
	"github.com/jiljuapp/jilju/internal/core/regions"
	"github.com/jiljuapp/jilju/internal/pkg/geo"
	"github.com/jiljuapp/jilju/internal/pkg/metrics"
)

// LocationStoreKey is the fixed key under which the last resolved location
// snapshot is persisted.
const LocationStoreKey = "jilju:location:snapshot"

// LocationParams configures a location session.
type LocationParams struct {
	DefaultLocation domain.GeoPoint
	DefaultAddress  string
	RequestTimeout  time.Duration
	WatchInterval   time.Duration
}

// LocationService owns the session's position: it acquires the device
// location through the provider, falls back to the configured default when
// acquisition fails, patches in a reverse-geocoded address asynchronously,
// and persists every resolved snapshot to the key-value store.
//
// Acquisition failure never surfaces to callers: the session always ends up
// resolved, at worst at the default location.
type LocationService struct {
	provider ports.GeolocationProvider
	geocoder ports.ReverseGeocoder
	store    ports.KeyValueStore
	logger   *slog.Logger
	now      func() time.Time

	defaultLocation domain.GeoPoint
	defaultAddress  string
	requestTimeout  time.Duration
	watchInterval   time.Duration

	mu          sync.Mutex
	state       *domain.LocationState
	geocodeSeq  uint64 // latest issued reverse-geocode request
	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// NewLocationService creates a location session. Any snapshot persisted under
// LocationStoreKey is loaded eagerly as the initial resolved state. A nil
// clock means time.Now.
func NewLocationService(
	ctx context.Context,
	provider ports.GeolocationProvider,
	geocoder ports.ReverseGeocoder,
	store ports.KeyValueStore,
	params LocationParams,
	logger *slog.Logger,
	now func() time.Time,
) *LocationService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	if params.RequestTimeout <= 0 {
		params.RequestTimeout = 10 * time.Second
	}
	if params.WatchInterval <= 0 {
		params.WatchInterval = 30 * time.Second
	}

	s := &LocationService{
		provider:        provider,
		geocoder:        geocoder,
		store:           store,
		logger:          logger,
		now:             now,
		defaultLocation: params.DefaultLocation,
		defaultAddress:  params.DefaultAddress,
		requestTimeout:  params.RequestTimeout,
		watchInterval:   params.WatchInterval,
	}

	if store != nil {
		if data, err := store.Get(ctx, LocationStoreKey); err == nil && len(data) > 0 {
			var cached domain.LocationState
			if err := json.Unmarshal(data, &cached); err == nil {
				s.state = &cached
			}
		}
	}

	return s
}

// Current returns the resolved snapshot, or false when nothing has been
// resolved and no cached snapshot existed.
func (s *LocationService) Current() (domain.LocationState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return domain.LocationState{}, false
	}
	return *s.state, true
}

// Resolve performs a single-shot acquisition. On success the snapshot holds a
// raw-coordinate placeholder address until reverse geocoding completes; on
// failure the configured default location is used. Either way the session
// ends up resolved and persisted.
func (s *LocationService) Resolve(ctx context.Context) domain.LocationState {
	var (
		pos ports.Position
		err error
	)
	if s.provider == nil {
		// No provider configured at all, same outcome as a device
		// without a geolocation API.
		err = ports.ErrUnsupported
	} else {
		reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
		pos, err = s.provider.RequestPosition(reqCtx, ports.PositionOptions{
			HighAccuracy: true,
			Timeout:      s.requestTimeout,
		})
	}
	if err != nil {
		reason := classifyLocationFailure(err)
		metrics.LocationFallbacks.WithLabelValues(reason).Inc()
		s.logger.Warn("location acquisition failed, using default",
			"reason", reason, "error", err)

		st := domain.LocationState{
			Location:   s.defaultLocation,
			Address:    s.defaultAddress,
			CapturedAt: s.now(),
			Fallback:   true,
		}
		s.setState(st)
		return st
	}

	acc := pos.AccuracyMeters
	st := domain.LocationState{
		Location:       pos.Location,
		Address:        placeholderAddress(pos.Location),
		AccuracyMeters: &acc,
		CapturedAt:     s.now(),
	}
	s.setState(st)
	s.resolveAddress(pos.Location)
	return st
}

// Watch re-resolves the position on the configured interval until CancelWatch
// is called or the context is cancelled. Only one watch may be active.
func (s *LocationService) Watch(ctx context.Context) error {
	s.mu.Lock()
	if s.watchCancel != nil {
		s.mu.Unlock()
		return errors.New("location watch already active")
	}
	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.watchCancel = cancel
	s.watchDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)

		s.Resolve(wctx)

		ticker := time.NewTicker(s.watchInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Resolve(wctx)
			case <-wctx.Done():
				return
			}
		}
	}()

	return nil
}

// CancelWatch stops an active watch and waits for its goroutine to exit, so
// no further resolutions happen after it returns. Calling it with no active
// watch is a no-op.
func (s *LocationService) CancelWatch() {
	s.mu.Lock()
	cancel := s.watchCancel
	done := s.watchDone
	s.watchCancel = nil
	s.watchDone = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// IsWithinRadius reports whether the resolved position lies within radiusKm
// of the target. False when nothing is resolved yet; never an error.
func (s *LocationService) IsWithinRadius(target domain.GeoPoint, radiusKm float64) bool {
	st, ok := s.Current()
	if !ok {
		return false
	}
	return geo.HaversineKm(st.Location.Lat, st.Location.Lon, target.Lat, target.Lon) <= radiusKm
}

// Region resolves the current position against the fixed region table. Nil
// when unresolved or outside every region.
func (s *LocationService) Region() *domain.Region {
	st, ok := s.Current()
	if !ok {
		return nil
	}
	r := regions.Find(st.Location, regions.Table)
	if r == nil {
		metrics.RegionResolutions.WithLabelValues("none").Inc()
		return nil
	}
	metrics.RegionResolutions.WithLabelValues(r.ID).Inc()
	return r
}

func (s *LocationService) setState(st domain.LocationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &st
	s.persistLocked(st)
}

// persistLocked writes the snapshot to the store. Fire-and-forget: the
// snapshot is a disposable cache, so a failed write only gets a log line.
func (s *LocationService) persistLocked(st domain.LocationState) {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := s.store.Set(context.Background(), LocationStoreKey, data); err != nil {
		s.logger.Debug("location snapshot write failed", "error", err)
	}
}

// resolveAddress kicks off an asynchronous reverse geocode. Each request
// carries a sequence number; a response only lands if no newer request was
// issued meanwhile, so a slow stale response cannot overwrite a fresh one.
func (s *LocationService) resolveAddress(point domain.GeoPoint) {
	if s.geocoder == nil {
		return
	}

	s.mu.Lock()
	s.geocodeSeq++
	seq := s.geocodeSeq
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
		defer cancel()

		addr, err := s.geocoder.ReverseGeocode(ctx, point)
		if err != nil {
			// Keep the placeholder; no retry.
			s.logger.Debug("reverse geocode failed", "error", err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.geocodeSeq {
			metrics.StaleGeocodesDropped.Inc()
			return
		}
		if s.state == nil {
			return
		}
		s.state.Address = addr
		s.persistLocked(*s.state)
	}()
}

func classifyLocationFailure(err error) string {
	switch {
	case errors.Is(err, ports.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ports.ErrPositionUnavailable):
		return "position_unavailable"
	case errors.Is(err, ports.ErrPositionTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ports.ErrUnsupported):
		return "unsupported"
	default:
		return "error"
	}
}

func placeholderAddress(p domain.GeoPoint) string {
	return fmt.Sprintf("%.4f, %.4f", p.Lat, p.Lon)
}
