package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"geostick/pkg/pipeline"
	"geostick/pkg/storage"
)

// staticLocation serves a fix supplied on the command line. With no
// coordinates given it reports no fix at all, exercising the resolver's
// unresolved path.
type staticLocation struct {
	fix pipeline.Fix
	ok  bool
}

func (s staticLocation) Current(ctx context.Context) (pipeline.Fix, error) {
	if !s.ok {
		return pipeline.Fix{}, fmt.Errorf("no location fix available")
	}
	return s.fix, nil
}

func (s staticLocation) LastKnown(ctx context.Context) (pipeline.Fix, error) {
	return s.Current(ctx)
}

func main() {
	image := flag.String("image", "", "image file to submit")
	cameraDir := flag.String("camera-dir", "", "spool directory to watch for a fresh capture instead of -image")
	community := flag.String("community", "", "target community id")
	title := flag.String("title", "", "sticker title")
	description := flag.String("description", "", "optional sticker description")
	owner := flag.String("owner", "", "auth id of the submitting user")
	server := flag.String("server", "http://localhost:8080", "geostick backend base URL")
	storageDir := flag.String("storage-dir", "", "upload into a local storage tree at this root")
	storageURL := flag.String("storage-url", "http://localhost:8080/storage", "public prefix for locally stored objects")
	supabaseURL := flag.String("supabase-url", os.Getenv("SUPABASE_URL"), "supabase project URL (takes precedence over -storage-dir)")
	supabaseKey := flag.String("supabase-key", os.Getenv("SUPABASE_KEY"), "supabase service key")
	bucket := flag.String("bucket", "stickers", "storage bucket")
	lat := flag.Float64("lat", 0, "latitude fix (with -long)")
	long := flag.Float64("long", 0, "longitude fix (with -lat)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	var store storage.Store
	switch {
	case *supabaseURL != "":
		if *supabaseKey == "" {
			log.Error("supabase-key is required with supabase-url")
			os.Exit(2)
		}
		store = storage.NewClient(*supabaseURL, *supabaseKey)
	case *storageDir != "":
		store = storage.NewLocal(*storageDir, *storageURL)
	default:
		log.Error("one of -supabase-url or -storage-dir is required")
		os.Exit(2)
	}

	var source pipeline.CaptureSource
	kind := pipeline.CaptureLibrary
	switch {
	case *cameraDir != "":
		source = pipeline.NewSpoolSource(*cameraDir)
		kind = pipeline.CaptureCamera
	case *image != "":
		source = pipeline.FileSource(*image)
	default:
		log.Error("one of -image or -camera-dir is required")
		os.Exit(2)
	}

	guard := pipeline.NewLifecycleGuard()
	defer guard.Teardown()

	capture := &pipeline.MediaCaptureProcessor{
		Permissions: pipeline.GrantAll,
		Camera:      source,
		Library:     source,
		Logger:      log,
	}
	resolver := &pipeline.GeolocationResolver{
		Permissions: pipeline.GrantAll,
		Source:      staticLocation{fix: pipeline.Fix{Lat: *lat, Lon: *long}, ok: *lat != 0 || *long != 0},
		Logger:      log,
	}
	uploader := &pipeline.ObjectStorageUploader{Store: store, Bucket: *bucket}
	controller := pipeline.NewSubmissionController(uploader, pipeline.NewStickerClient(*server), nil, guard)
	controller.Logger = log
	controller.Hooks = pipeline.Hooks{
		OnState: func(s pipeline.State) { log.Info("state", "state", s) },
	}

	// Ctrl+C during the create call abandons the submission; the upload, once
	// issued, always runs to completion or its own timeout.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("interrupt received, cancelling submission")
		guard.Teardown()
	}()

	ctx := context.Background()

	asset, err := capture.Capture(ctx, kind)
	if err != nil {
		log.Error("capture failed", "err", err)
		os.Exit(1)
	}

	coord := resolver.Resolve(ctx)
	if !coord.Resolved() {
		log.Warn("no location fix, submission will fail validation unless coordinates are supplied")
	}

	outcome := controller.Submit(ctx, pipeline.Request{
		Asset:       asset,
		Coordinate:  coord,
		CommunityID: *community,
		Title:       *title,
		Description: *description,
		OwnerID:     *owner,
	})
	switch outcome.State {
	case pipeline.StateSucceeded:
		fmt.Println(outcome.StickerID)
	case pipeline.StateCancelled:
		log.Info("submission cancelled")
		os.Exit(1)
	default:
		log.Error("submission failed", "kind", pipeline.KindOf(outcome.Err), "err", outcome.Err)
		os.Exit(1)
	}
}
