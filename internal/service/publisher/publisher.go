package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
	"github.com/Temutjin2k/vendor-location-sync/pkg/metrics"
)

// ErrorHook receives failures of calls that run in the background
// (route start/stop). The default is to log them only.
type ErrorHook func(endpoint string, err error)

/*
Service is the vendor-side sharing session: it owns the device's position
watch, brackets it with route start/stop calls and pushes every fix to the
backend under the current token.
*/
type Service struct {
	perms   PermissionRequester
	source  LocationSource
	backend Backend
	tokens  TokenSource
	flags   FlagStore

	watchOpts   models.WatchOptions
	callTimeout time.Duration
	onError     ErrorHook
	now         func() time.Time
	l           logger.Logger

	mu            sync.Mutex
	transitioning bool
	session       models.LocationSharingSession
	stopWatch     func()
	// watchGen invalidates fixes of a watch that was already stopped
	watchGen uint64
	// startAbort is set while Starting by a revocation or a suspend;
	// StartSharing checks it before committing Sharing
	startAbort error

	bg sync.WaitGroup
}

var errSuspended = errors.New("suspended while starting")

type Option func(*Service)

func WithWatchOptions(opts models.WatchOptions) Option {
	return func(s *Service) { s.watchOpts = opts }
}

func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) { s.callTimeout = d }
}

func WithErrorHook(h ErrorHook) Option {
	return func(s *Service) { s.onError = h }
}

// DefaultWatchOptions is a navigation-grade watch: every second or every meter.
var DefaultWatchOptions = models.WatchOptions{
	Accuracy:         "best_for_navigation",
	Interval:         time.Second,
	DistanceInterval: 1,
}

func New(perms PermissionRequester, source LocationSource, backend Backend, tokens TokenSource, flags FlagStore, l logger.Logger, opts ...Option) *Service {
	s := &Service{
		perms:       perms,
		source:      source,
		backend:     backend,
		tokens:      tokens,
		flags:       flags,
		watchOpts:   DefaultWatchOptions,
		callTimeout: 10 * time.Second,
		now:         time.Now,
		l:           l,
		session:     models.LocationSharingSession{Status: types.StatusIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSharing opens a sharing session for vendorID. It returns nil without
// side effects when a session is already Starting or Sharing, or another
// transition is in flight. Permission denial is the only failure the caller
// has to act on.
func (s *Service) StartSharing(ctx context.Context, vendorID int64) error {
	const op = "PublisherService.StartSharing"
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: types.ActionStartSharing, VendorID: vendorID})

	if vendorID <= 0 {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrInvalidVendor))
	}

	s.mu.Lock()
	if s.transitioning || s.session.Status.Active() {
		s.mu.Unlock()
		s.l.Debug(ctx, "sharing already active or starting, ignoring start")
		return nil
	}
	s.transitioning = true
	s.startAbort = nil
	s.session = models.LocationSharingSession{VendorID: vendorID, Status: types.StatusStarting}
	s.mu.Unlock()

	granted, err := s.perms.RequestLocation(ctx)
	if err != nil || !granted {
		s.reset()
		if err != nil {
			return wrap.Error(ctx, fmt.Errorf("%s: %w: %v", op, types.ErrPermissionDenied, err))
		}
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrPermissionDenied))
	}

	sessionID := uuid.New()
	ctx = wrap.WithSessionID(ctx, sessionID.String())

	s.fireRouteCall(ctx, types.EndpointRouteStart, vendorID)

	s.mu.Lock()
	s.watchGen++
	gen := s.watchGen
	s.mu.Unlock()

	stop, err := s.source.Watch(context.WithoutCancel(ctx), s.watchOpts, func(fctx context.Context, u models.LocationUpdate) {
		s.handleUpdate(fctx, gen, vendorID, u)
	})
	if err != nil {
		s.reset()
		s.fireRouteCall(ctx, types.EndpointRouteStop, vendorID)
		return wrap.Error(ctx, fmt.Errorf("%s: start watch: %w", op, err))
	}

	if err := s.flags.SetSharingFlag(ctx, true); err != nil {
		s.l.Warn(ctx, "failed to persist sharing flag", "error", err.Error())
	}

	s.mu.Lock()
	abort := s.startAbort
	s.startAbort = nil
	if abort == nil {
		s.stopWatch = stop
		s.session = models.LocationSharingSession{
			ID:        sessionID,
			VendorID:  vendorID,
			Status:    types.StatusSharing,
			StartedAt: s.now(),
		}
		s.transitioning = false
	} else {
		s.watchGen++
	}
	s.mu.Unlock()

	if abort != nil {
		stop()
		return s.abortStart(ctx, op, vendorID, abort)
	}

	metrics.SetBool(metrics.SharingActive, true)
	s.l.Info(ctx, "location sharing started")

	return nil
}

// abortStart unwinds a start that was revoked or suspended before it
// committed. A suspend keeps the flag and the route for Resume.
func (s *Service) abortStart(ctx context.Context, op string, vendorID int64, cause error) error {
	if errors.Is(cause, errSuspended) {
		s.reset()
		s.l.Info(ctx, "location sharing suspended while starting")
		return nil
	}

	s.fireRouteCall(ctx, types.EndpointRouteStop, vendorID)
	if err := s.flags.SetSharingFlag(ctx, false); err != nil {
		s.l.Warn(ctx, "failed to clear sharing flag", "error", err.Error())
	}
	s.reset()
	s.l.Warn(ctx, "location permission revoked while starting")
	return wrap.Error(ctx, fmt.Errorf("%s: %w", op, cause))
}

// StopSharing ends the session. On an idle session it only clears the
// persisted flag and makes no network calls.
func (s *Service) StopSharing(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, types.ActionStopSharing)

	s.mu.Lock()
	if s.transitioning {
		s.mu.Unlock()
		s.l.Debug(ctx, "transition in progress, ignoring stop")
		return nil
	}
	if s.session.Status == types.StatusIdle {
		s.mu.Unlock()
		if err := s.flags.SetSharingFlag(ctx, false); err != nil {
			s.l.Warn(ctx, "failed to clear sharing flag", "error", err.Error())
		}
		s.l.Debug(ctx, "stop on idle session", "reason", types.ErrNoActiveSession.Error())
		return nil
	}
	s.mu.Unlock()

	s.end(ctx, "stopped by user")
	return nil
}

// end tears an active session down. Safe to call from inside a watch callback.
func (s *Service) end(ctx context.Context, reason string) {
	s.mu.Lock()
	if s.transitioning || !s.session.Status.Active() {
		s.mu.Unlock()
		return
	}
	s.transitioning = true
	sess := s.session
	s.session.Status = types.StatusStopping
	stop := s.stopWatch
	s.stopWatch = nil
	s.watchGen++
	s.mu.Unlock()

	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{VendorID: sess.VendorID, SessionID: sess.ID.String()})

	if stop != nil {
		stop()
	}

	s.fireRouteCall(ctx, types.EndpointRouteStop, sess.VendorID)

	if err := s.flags.SetSharingFlag(ctx, false); err != nil {
		s.l.Warn(ctx, "failed to clear sharing flag", "error", err.Error())
	}

	s.reset()
	s.l.Info(ctx, "location sharing stopped", "reason", reason)
}

func (s *Service) reset() {
	s.mu.Lock()
	s.session = models.LocationSharingSession{Status: types.StatusIdle}
	s.transitioning = false
	s.mu.Unlock()

	metrics.SetBool(metrics.SharingActive, false)
}

// IsSharing reports the persisted intent, not whether a watch is open in
// this process.
func (s *Service) IsSharing(ctx context.Context) (bool, error) {
	const op = "PublisherService.IsSharing"
	on, err := s.flags.SharingFlag(ctx)
	if err != nil {
		return false, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return on, nil
}

// Session returns a copy of the current session.
func (s *Service) Session() models.LocationSharingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Resume restarts sharing when the persisted flag says it was active.
func (s *Service) Resume(ctx context.Context, vendorID int64) (bool, error) {
	on, err := s.IsSharing(ctx)
	if err != nil || !on {
		return false, err
	}
	if err := s.StartSharing(ctx, vendorID); err != nil {
		return false, err
	}
	return true, nil
}

// Suspend closes the watch of an active session without ending it: no
// route stop is sent and the persisted flag stays set, so the next process
// picks the session up with Resume.
func (s *Service) Suspend(ctx context.Context) {
	s.mu.Lock()
	if s.transitioning {
		// a start in flight unwinds itself; a stop in flight finishes
		if s.session.Status == types.StatusStarting && s.startAbort == nil {
			s.startAbort = errSuspended
		}
		s.mu.Unlock()
		return
	}
	if !s.session.Status.Active() {
		s.mu.Unlock()
		return
	}
	sess := s.session
	stop := s.stopWatch
	s.stopWatch = nil
	s.watchGen++
	s.session = models.LocationSharingSession{Status: types.StatusIdle}
	s.transitioning = false
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	metrics.SetBool(metrics.SharingActive, false)

	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: types.ActionStopSharing, VendorID: sess.VendorID, SessionID: sess.ID.String()})
	s.l.Info(ctx, "location sharing suspended")
}

// Wait blocks until every background route call has returned.
func (s *Service) Wait() {
	s.bg.Wait()
}

func (s *Service) handleUpdate(ctx context.Context, gen uint64, vendorID int64, u models.LocationUpdate) {
	s.mu.Lock()
	if gen != s.watchGen || !s.session.Status.Active() {
		s.mu.Unlock()
		return
	}
	if s.session.Status == types.StatusStarting && errors.Is(u.Err, types.ErrPermissionDenied) {
		s.startAbort = types.ErrPermissionDenied
		s.mu.Unlock()
		return
	}
	sessionID := s.session.ID
	s.mu.Unlock()

	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:    types.ActionLocationPush,
		VendorID:  vendorID,
		SessionID: sessionID.String(),
	})

	if u.Err != nil {
		if errors.Is(u.Err, types.ErrPermissionDenied) {
			s.l.Warn(ctx, "location permission revoked, ending session")
			s.end(ctx, "permission revoked")
			return
		}
		s.l.Warn(ctx, "location watch error", "error", u.Err.Error())
		return
	}

	if err := s.push(ctx, vendorID, u.Fix.Coordinate); err != nil {
		s.l.Warn(wrap.ErrorCtx(ctx, err), "failed to push location", "error", err.Error())
	}
}

// push sends one fix. The token is read on every call since it can rotate
// mid-session.
func (s *Service) push(ctx context.Context, vendorID int64, pos models.Coordinate) (err error) {
	const op = "PublisherService.push"
	defer func() { metrics.RecordLocationPush(err) }()

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := s.backend.PushLocation(ctx, vendorID, token, pos); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w: %w", op, types.ErrNetworkPush, err))
	}
	return nil
}

// fireRouteCall runs a route start/stop in the background. Failures are
// logged and passed to the error hook; they never change the session.
func (s *Service) fireRouteCall(ctx context.Context, endpoint string, vendorID int64) {
	ctx = wrap.WithAction(context.WithoutCancel(ctx), types.ActionRouteCall)

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		err := s.routeCall(ctx, endpoint, vendorID)
		if err == nil {
			return
		}

		s.l.Warn(wrap.ErrorCtx(ctx, err), "route call failed", "endpoint", endpoint, "error", err.Error())
		if s.onError != nil {
			s.onError(endpoint, err)
		}
	}()
}

func (s *Service) routeCall(ctx context.Context, endpoint string, vendorID int64) error {
	const op = "PublisherService.routeCall"

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %s: %w", op, endpoint, err))
	}

	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	switch endpoint {
	case types.EndpointRouteStart:
		err = s.backend.StartRoute(ctx, vendorID, token)
	case types.EndpointRouteStop:
		err = s.backend.StopRoute(ctx, vendorID, token)
	default:
		err = fmt.Errorf("unknown route endpoint %q", endpoint)
	}
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %s: %w: %w", op, endpoint, types.ErrNetworkPush, err))
	}
	return nil
}
