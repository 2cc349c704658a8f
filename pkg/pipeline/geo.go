package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// FixSource tags where a coordinate came from.
type FixSource string

const (
	SourceLive       FixSource = "live"
	SourceCached     FixSource = "cached"
	SourceUnresolved FixSource = "unresolved"
)

// Coordinate is a geographic fix with provenance. Immutable once produced
// for a given pipeline run.
type Coordinate struct {
	Lat    float64
	Lon    float64
	Source FixSource
}

// Resolved reports whether the coordinate carries a usable fix.
func (c Coordinate) Resolved() bool { return c.Source != SourceUnresolved }

// Unresolved is the zero-value coordinate returned when no fix is available.
func Unresolved() Coordinate { return Coordinate{Source: SourceUnresolved} }

// Fix is a raw lat/lon pair from the location service.
type Fix struct {
	Lat float64
	Lon float64
}

// LocationSource abstracts the platform location services. Current blocks
// until a live fix arrives or ctx expires; LastKnown returns the cached fix
// if one exists. Both fail independently.
type LocationSource interface {
	Current(ctx context.Context) (Fix, error)
	LastKnown(ctx context.Context) (Fix, error)
}

// DefaultLocationTimeout bounds the live-fix attempt before falling back to
// the cached fix.
const DefaultLocationTimeout = 12 * time.Second

// GeolocationResolver acquires a coordinate: live fix raced against a
// timeout, cached fix as fallback, unresolved otherwise. Permission denial
// and location-service failures are recoverable warnings, never hard errors;
// the pipeline can proceed without a fix and fail validation later if the
// submission actually requires one.
type GeolocationResolver struct {
	Permissions PermissionFunc
	Source      LocationSource
	Timeout     time.Duration // defaults to DefaultLocationTimeout
	Logger      *slog.Logger
}

// Resolve never blocks longer than the live-fix timeout plus the cached
// lookup, and never returns an error: an unusable result is Unresolved.
func (r *GeolocationResolver) Resolve(ctx context.Context) Coordinate {
	log := r.logger()
	granted, err := r.Permissions(ctx, PermissionLocation)
	if err != nil {
		log.Warn("location permission check failed", "err", err)
		return Unresolved()
	}
	if !granted {
		log.Warn("location permission denied")
		return Unresolved()
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultLocationTimeout
	}
	liveCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if fix, err := r.Source.Current(liveCtx); err == nil {
		return Coordinate{Lat: fix.Lat, Lon: fix.Lon, Source: SourceLive}
	} else {
		log.Info("live fix unavailable, trying last known", "err", err)
	}

	if fix, err := r.Source.LastKnown(ctx); err == nil {
		return Coordinate{Lat: fix.Lat, Lon: fix.Lon, Source: SourceCached}
	} else {
		log.Warn("no cached fix either", "err", err)
	}
	return Unresolved()
}

func (r *GeolocationResolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
