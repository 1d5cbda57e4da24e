package usecases_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/ports"
	"github.com/jiljuapp/jilju/internal/core/usecases"
)

// --- Mock collaborators ---

type mockProvider struct {
	mu        sync.Mutex
	calls     int
	requestFn func(ctx context.Context, opts ports.PositionOptions) (ports.Position, error)
}

func (m *mockProvider) RequestPosition(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.requestFn != nil {
		return m.requestFn(ctx, opts)
	}
	return ports.Position{}, ports.ErrPositionUnavailable
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockGeocoder struct {
	reverseFn func(ctx context.Context, p domain.GeoPoint) (string, error)
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, p domain.GeoPoint) (string, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, p)
	}
	return "", context.Canceled
}

type mockKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockKV() *mockKV {
	return &mockKV{data: map[string][]byte{}}
}

func (m *mockKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *mockKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockKV) get(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

var testParams = usecases.LocationParams{
	DefaultLocation: domain.GeoPoint{Lat: 33.4996, Lon: 126.5312},
	DefaultAddress:  "제주시청",
	RequestTimeout:  time.Second,
	WatchInterval:   10 * time.Millisecond,
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// --- Tests ---

func TestLocationService_FallbackOnPermissionDenied(t *testing.T) {
	provider := &mockProvider{
		requestFn: func(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
			return ports.Position{}, ports.ErrPermissionDenied
		},
	}

	svc := usecases.NewLocationService(context.Background(), provider, nil, newMockKV(), testParams, nil, nil)

	st := svc.Resolve(context.Background())
	if !st.Fallback {
		t.Error("expected fallback state")
	}
	if st.Location != testParams.DefaultLocation {
		t.Errorf("expected default location, got %v", st.Location)
	}
	if st.Address != "제주시청" {
		t.Errorf("expected default address, got %q", st.Address)
	}

	// The session must be resolved, never stuck in a failed state.
	if _, ok := svc.Current(); !ok {
		t.Error("session should be resolved after fallback")
	}
}

func TestLocationService_NoProviderFallsBack(t *testing.T) {
	// A deployment without a geolocation backend wires no provider at all;
	// resolution must still land on the default location, not blow up.
	svc := usecases.NewLocationService(context.Background(), nil, nil, newMockKV(), testParams, nil, nil)

	st := svc.Resolve(context.Background())
	if !st.Fallback {
		t.Error("expected fallback state")
	}
	if st.Location != testParams.DefaultLocation {
		t.Errorf("expected default location, got %v", st.Location)
	}
	if st.Address != "제주시청" {
		t.Errorf("expected default address, got %q", st.Address)
	}
	if _, ok := svc.Current(); !ok {
		t.Error("session should be resolved after fallback")
	}
}

func TestLocationService_SuccessPatchesAddressAsync(t *testing.T) {
	provider := &mockProvider{
		requestFn: func(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
			return ports.Position{Location: domain.GeoPoint{Lat: 33.4636, Lon: 126.5579}, AccuracyMeters: 12}, nil
		},
	}
	geocoder := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			return "제주시 아라동", nil
		},
	}

	svc := usecases.NewLocationService(context.Background(), provider, geocoder, newMockKV(), testParams, nil, nil)

	st := svc.Resolve(context.Background())
	if st.Fallback {
		t.Error("unexpected fallback")
	}
	if st.Address != "33.4636, 126.5579" {
		t.Errorf("expected placeholder address, got %q", st.Address)
	}

	waitFor(t, func() bool {
		cur, _ := svc.Current()
		return cur.Address == "제주시 아라동"
	})
}

func TestLocationService_StaleGeocodeDropped(t *testing.T) {
	first := domain.GeoPoint{Lat: 33.46, Lon: 126.55}
	second := domain.GeoPoint{Lat: 33.25, Lon: 126.56}

	var mu sync.Mutex
	resolves := 0
	provider := &mockProvider{
		requestFn: func(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
			mu.Lock()
			resolves++
			n := resolves
			mu.Unlock()
			if n == 1 {
				return ports.Position{Location: first}, nil
			}
			return ports.Position{Location: second}, nil
		},
	}

	release := make(chan struct{})
	geocoder := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			if p == first {
				// The older request's response arrives late, after the
				// newer request has already been answered.
				<-release
				return "낡은 주소", nil
			}
			return "최신 주소", nil
		},
	}

	svc := usecases.NewLocationService(context.Background(), provider, geocoder, newMockKV(), testParams, nil, nil)

	svc.Resolve(context.Background()) // issues geocode #1 (blocked)
	svc.Resolve(context.Background()) // issues geocode #2 (responds immediately)

	waitFor(t, func() bool {
		cur, _ := svc.Current()
		return cur.Address == "최신 주소"
	})

	// Unblock the stale response; it must not overwrite the fresh address.
	close(release)
	time.Sleep(50 * time.Millisecond)

	cur, _ := svc.Current()
	if cur.Address != "최신 주소" {
		t.Errorf("stale geocode overwrote newer address: %q", cur.Address)
	}
}

func TestLocationService_PersistsAndReloadsSnapshot(t *testing.T) {
	kv := newMockKV()
	provider := &mockProvider{
		requestFn: func(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
			return ports.Position{Location: domain.GeoPoint{Lat: 33.25, Lon: 126.56}, AccuracyMeters: 8}, nil
		},
	}

	svc := usecases.NewLocationService(context.Background(), provider, nil, kv, testParams, nil, nil)
	svc.Resolve(context.Background())

	data := kv.get(usecases.LocationStoreKey)
	if len(data) == 0 {
		t.Fatal("snapshot was not persisted")
	}
	var persisted domain.LocationState
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("persisted snapshot is not valid JSON: %v", err)
	}
	if persisted.Location.Lat != 33.25 {
		t.Errorf("persisted wrong location: %v", persisted.Location)
	}

	// A fresh session loads the snapshot eagerly as its initial state.
	svc2 := usecases.NewLocationService(context.Background(), provider, nil, kv, testParams, nil, nil)
	st, ok := svc2.Current()
	if !ok {
		t.Fatal("expected cached state on session start")
	}
	if st.Location.Lat != 33.25 {
		t.Errorf("cached state has wrong location: %v", st.Location)
	}
}

func TestLocationService_WatchAndIdempotentCancel(t *testing.T) {
	provider := &mockProvider{
		requestFn: func(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
			return ports.Position{Location: domain.GeoPoint{Lat: 33.46, Lon: 126.33}}, nil
		},
	}

	svc := usecases.NewLocationService(context.Background(), provider, nil, newMockKV(), testParams, nil, nil)

	if err := svc.Watch(context.Background()); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := svc.Watch(context.Background()); err == nil {
		t.Error("second watch should be rejected while active")
	}

	waitFor(t, func() bool { return provider.callCount() >= 3 })

	svc.CancelWatch()
	calls := provider.callCount()
	time.Sleep(50 * time.Millisecond)
	if provider.callCount() != calls {
		t.Error("resolutions continued after CancelWatch returned")
	}

	// Cancel with no active watch is a no-op, twice over.
	svc.CancelWatch()
	svc.CancelWatch()

	if _, ok := svc.Current(); !ok {
		t.Error("state should survive cancellation")
	}
}

func TestLocationService_IsWithinRadius(t *testing.T) {
	provider := &mockProvider{
		requestFn: func(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
			return ports.Position{Location: domain.GeoPoint{Lat: 33.4996, Lon: 126.5312}}, nil
		},
	}

	svc := usecases.NewLocationService(context.Background(), provider, nil, newMockKV(), testParams, nil, nil)

	// Unresolved: false, not an error.
	if svc.IsWithinRadius(domain.GeoPoint{Lat: 33.5, Lon: 126.53}, 100) {
		t.Error("expected false before any resolution")
	}

	svc.Resolve(context.Background())

	// Seogwipo is ~27 km from Jeju City Hall.
	seogwipo := domain.GeoPoint{Lat: 33.2541, Lon: 126.5601}
	if !svc.IsWithinRadius(seogwipo, 30) {
		t.Error("expected true for 30 km radius")
	}
	if svc.IsWithinRadius(seogwipo, 10) {
		t.Error("expected false for 10 km radius")
	}
}

func TestLocationService_RegionFromCurrentPosition(t *testing.T) {
	provider := &mockProvider{
		requestFn: func(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
			return ports.Position{Location: domain.GeoPoint{Lat: 33.4636, Lon: 126.5579}}, nil
		},
	}

	svc := usecases.NewLocationService(context.Background(), provider, nil, newMockKV(), testParams, nil, nil)

	if r := svc.Region(); r != nil {
		t.Errorf("expected nil region before resolution, got %v", r.ID)
	}

	svc.Resolve(context.Background())

	r := svc.Region()
	if r == nil || r.ID != "ara" {
		t.Fatalf("expected ara, got %v", r)
	}
}
