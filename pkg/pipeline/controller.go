package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// State is a submission state-machine node. Succeeded, Failed and Cancelled
// are terminal; a fresh attempt starts a new run of the machine.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateUploading  State = "uploading"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// Outcome is the terminal result of one submission attempt. Err is set for
// Failed; Cancelled reflects deliberate abandonment and carries a
// cancelled-kind error for completeness, not for user-facing messaging.
type Outcome struct {
	State     State
	StickerID string
	Err       *Error
}

// Hooks are the host-visible callbacks. Each is invoked through the
// LifecycleGuard, so none fire after the host is torn down.
type Hooks struct {
	OnState   func(State)
	OnLoading func(bool)
	OnResult  func(Outcome)
}

const (
	DefaultUploadTimeout = 45 * time.Second
	DefaultCreateTimeout = 25 * time.Second
)

// Request carries the inputs of one submission attempt. OwnerID may be left
// empty to take the id from the session provider.
type Request struct {
	Asset       *Asset
	Coordinate  Coordinate
	CommunityID string
	Title       string
	Description string
	OwnerID     string
}

// SubmissionController drives one submission attempt end to end:
// validate -> upload -> create, with per-stage timeouts, a single
// server-error retry on the create call, and external cancellation that
// aborts only the in-flight create request.
type SubmissionController struct {
	Retry         RetryPolicy
	UploadTimeout time.Duration
	CreateTimeout time.Duration
	Hooks         Hooks
	Logger        *slog.Logger

	uploader *ObjectStorageUploader
	api      RecordAPI
	session  SessionProvider
	guard    *LifecycleGuard

	mu           sync.Mutex
	cancelCreate context.CancelFunc
	pending      bool
	cancelled    bool
}

// NewSubmissionController wires the controller and registers its Cancel with
// the guard's teardown. session and guard may be nil.
func NewSubmissionController(uploader *ObjectStorageUploader, api RecordAPI, session SessionProvider, guard *LifecycleGuard) *SubmissionController {
	c := &SubmissionController{
		Retry:         CreateRetryPolicy(),
		UploadTimeout: DefaultUploadTimeout,
		CreateTimeout: DefaultCreateTimeout,
		uploader:      uploader,
		api:           api,
		session:       session,
		guard:         guard,
	}
	if guard != nil {
		guard.OnTeardown(c.Cancel)
	}
	return c
}

// Submit runs one attempt and returns its terminal outcome. Validation
// failures are resolved locally with zero network calls.
func (c *SubmissionController) Submit(ctx context.Context, req Request) Outcome {
	// a new attempt supersedes whatever create call is still in flight
	c.mu.Lock()
	if c.cancelCreate != nil {
		c.cancelCreate()
		c.cancelCreate = nil
	}
	c.pending = true
	c.cancelled = false
	c.mu.Unlock()

	c.setState(StateValidating)
	title := strings.TrimSpace(req.Title)
	desc := strings.TrimSpace(req.Description)
	community := strings.TrimSpace(req.CommunityID)
	owner := req.OwnerID
	if owner == "" && c.session != nil {
		owner, _ = c.session.Current()
	}
	var verr *Error
	switch {
	case title == "":
		verr = failf(KindValidation, "title is required")
	case req.Asset == nil || len(req.Asset.Payload) == 0:
		verr = failf(KindValidation, "image is required")
	case !req.Coordinate.Resolved():
		verr = failf(KindValidation, "location is unresolved")
	case community == "" || strings.ContainsAny(community, " \t\n"):
		verr = failf(KindValidation, "community id is missing or malformed")
	case owner == "":
		verr = failf(KindValidation, "no authenticated user")
	}
	if verr != nil {
		return c.finish(Outcome{State: StateFailed, Err: verr})
	}

	c.setState(StateUploading)
	c.setLoading(true)
	if err := ctx.Err(); err != nil {
		return c.finish(Outcome{State: StateCancelled, Err: wrap(KindCancelled, "submission cancelled", err)})
	}
	// the upload is deliberately not attached to the cancellation token:
	// once issued it completes or fails on its own, bounded by its timeout,
	// to avoid partial binary writes
	upCtx, upCancel := context.WithTimeout(context.Background(), c.uploadTimeout())
	result, err := c.uploader.Upload(upCtx, req.Asset, owner)
	upCancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.finish(Outcome{State: StateFailed, Err: wrap(KindTimeout, "upload timed out", err)})
		}
		return c.finish(Outcome{State: StateFailed, Err: asStorageError(err)})
	}
	if c.cancelledNow() {
		// upload result discarded; the stored object is a known orphan
		return c.finish(Outcome{State: StateCancelled, Err: failf(KindCancelled, "submission cancelled after upload")})
	}

	c.setState(StateSubmitting)
	// constructed at most once per attempt, only with validated inputs
	payload := Payload{
		CommunityID: community,
		Title:       title,
		Description: desc,
		ImageURL:    result.URL,
		Lat:         req.Coordinate.Lat,
		Long:        req.Coordinate.Lon,
		AuthID:      owner,
	}
	createCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancelCreate = cancel
	if c.cancelled { // Cancel raced the token installation
		c.cancelCreate = nil
		cancel()
	}
	c.mu.Unlock()

	var stickerID string
	err = c.Retry.Run(createCtx, func(context.Context) error {
		attemptCtx, attemptCancel := context.WithTimeout(createCtx, c.createTimeout())
		defer attemptCancel()
		id, cerr := c.api.CreateSticker(attemptCtx, payload)
		if cerr != nil {
			return cerr
		}
		stickerID = id
		return nil
	})

	c.mu.Lock()
	interrupted := createCtx.Err() != nil || c.cancelled
	c.cancelCreate = nil
	c.mu.Unlock()
	cancel()

	switch {
	case interrupted:
		return c.finish(Outcome{State: StateCancelled, Err: failf(KindCancelled, "create request aborted")})
	case err == nil:
		return c.finish(Outcome{State: StateSucceeded, StickerID: stickerID})
	default:
		return c.finish(Outcome{State: StateFailed, Err: classifyCreateError(err)})
	}
}

// Cancel aborts the active attempt's create request, if any. An upload
// already issued runs to completion and its result is discarded. Cancelling
// with no attempt pending, or after the create call resolved, is a no-op.
func (c *SubmissionController) Cancel() {
	c.mu.Lock()
	if c.pending {
		c.cancelled = true
	}
	cancel := c.cancelCreate
	c.cancelCreate = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *SubmissionController) cancelledNow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

func (c *SubmissionController) finish(o Outcome) Outcome {
	c.mu.Lock()
	c.pending = false
	c.cancelled = false
	c.mu.Unlock()
	if o.State == StateFailed && o.Err != nil {
		c.logger().Warn("submission failed", "kind", string(o.Err.Kind), "detail", o.Err.Detail)
	}
	c.setState(o.State)
	c.setLoading(false)
	c.guardDo(func() {
		if c.Hooks.OnResult != nil {
			c.Hooks.OnResult(o)
		}
	})
	return o
}

func (c *SubmissionController) setState(s State) {
	c.guardDo(func() {
		if c.Hooks.OnState != nil {
			c.Hooks.OnState(s)
		}
	})
}

func (c *SubmissionController) setLoading(on bool) {
	c.guardDo(func() {
		if c.Hooks.OnLoading != nil {
			c.Hooks.OnLoading(on)
		}
	})
}

func (c *SubmissionController) guardDo(fn func()) {
	if c.guard != nil {
		c.guard.Do(fn)
		return
	}
	fn()
}

func (c *SubmissionController) uploadTimeout() time.Duration {
	if c.UploadTimeout > 0 {
		return c.UploadTimeout
	}
	return DefaultUploadTimeout
}

func (c *SubmissionController) createTimeout() time.Duration {
	if c.CreateTimeout > 0 {
		return c.CreateTimeout
	}
	return DefaultCreateTimeout
}

func (c *SubmissionController) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func asStorageError(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return wrap(KindStorage, "upload failed", err)
}

func classifyCreateError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return wrap(KindTimeout, "create request timed out", err)
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return wrap(KindNetwork, "create request failed", err)
}
