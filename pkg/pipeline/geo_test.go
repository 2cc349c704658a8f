package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeLocation scripts the two location services independently.
type fakeLocation struct {
	live     Fix
	liveErr  error
	liveWait bool // block until ctx expires, simulating no fix arriving
	last     Fix
	lastErr  error
}

func (f *fakeLocation) Current(ctx context.Context) (Fix, error) {
	if f.liveWait {
		<-ctx.Done()
		return Fix{}, ctx.Err()
	}
	return f.live, f.liveErr
}

func (f *fakeLocation) LastKnown(ctx context.Context) (Fix, error) {
	return f.last, f.lastErr
}

func grantLocation(ctx context.Context, p Permission) (bool, error) { return true, nil }
func denyLocation(ctx context.Context, p Permission) (bool, error)  { return false, nil }

func TestResolveLiveFix(t *testing.T) {
	r := &GeolocationResolver{
		Permissions: grantLocation,
		Source:      &fakeLocation{live: Fix{Lat: 48.85, Lon: 2.35}},
	}
	got := r.Resolve(context.Background())
	assert.Equal(t, Coordinate{Lat: 48.85, Lon: 2.35, Source: SourceLive}, got)
}

func TestResolveFallsBackToCachedOnTimeout(t *testing.T) {
	r := &GeolocationResolver{
		Permissions: grantLocation,
		Source:      &fakeLocation{liveWait: true, last: Fix{Lat: 1, Lon: 2}},
		Timeout:     20 * time.Millisecond,
	}
	got := r.Resolve(context.Background())
	assert.Equal(t, SourceCached, got.Source)
	assert.Equal(t, 1.0, got.Lat)
}

func TestResolveUnresolvedWhenNothingAvailable(t *testing.T) {
	r := &GeolocationResolver{
		Permissions: grantLocation,
		Source:      &fakeLocation{liveErr: errors.New("no fix"), lastErr: errors.New("no cache")},
		Timeout:     20 * time.Millisecond,
	}
	got := r.Resolve(context.Background())
	assert.False(t, got.Resolved())
}

func TestResolvePermissionDeniedSkipsTimeout(t *testing.T) {
	r := &GeolocationResolver{
		Permissions: denyLocation,
		Source:      &fakeLocation{liveWait: true},
		Timeout:     5 * time.Second,
	}
	start := time.Now()
	got := r.Resolve(context.Background())
	assert.False(t, got.Resolved())
	assert.Less(t, time.Since(start), time.Second, "denial must not wait out the live-fix timeout")
}

func TestResolvePermissionServiceFailure(t *testing.T) {
	r := &GeolocationResolver{
		Permissions: func(ctx context.Context, p Permission) (bool, error) { return false, errors.New("broker down") },
		Source:      &fakeLocation{live: Fix{Lat: 9, Lon: 9}},
	}
	got := r.Resolve(context.Background())
	assert.False(t, got.Resolved(), "a broken permission service degrades to unresolved, not a hard failure")
}
