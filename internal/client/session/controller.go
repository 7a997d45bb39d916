// Package session keeps the client's authenticated session alive: it
// restores a stored session on start, refreshes tokens ahead of expiry, and
// tears the session down on logout without letting a late refresh revive it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/dmitrijs2005/discbaboons/internal/logging"
	"github.com/dmitrijs2005/discbaboons/internal/tokens"
)

// DefaultBuffer is how long before access-token expiry a refresh fires.
const DefaultBuffer = 2 * time.Minute

var (
	ErrLogoutInProgress = errors.New("logout in progress")
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSuperseded means a refresh finished after the session it belonged
	// to was replaced or ended; its result was dropped.
	ErrSuperseded = errors.New("refresh result superseded")
)

// Identity is who the current access token says the user is.
type Identity struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error)
}

type TokenStore interface {
	Store(ctx context.Context, pair *tokens.Pair) error
	Load(ctx context.Context) *tokens.Pair
	Clear(ctx context.Context) error
}

type Options struct {
	Buffer    time.Duration
	Scheduler Scheduler
	Now       func() time.Time
	Logger    logging.Logger
	// OnSessionEnded runs (outside the lock) when a silent refresh fails
	// and the session is logged out as a result.
	OnSessionEnded func(err error)
}

// Controller is safe for concurrent use.
type Controller struct {
	refresher Refresher
	store     TokenStore
	buffer    time.Duration
	scheduler Scheduler
	now       func() time.Time
	logger    logging.Logger
	onEnded   func(error)

	mu    sync.Mutex
	state State
	pair  *tokens.Pair
	user  *Identity
	timer Timer
	// epoch advances on every login, logout, restore and refresh start.
	// Async work captures it and may only apply its result while it is
	// unchanged.
	epoch uint64
}

func NewController(refresher Refresher, store TokenStore, o Options) *Controller {
	c := &Controller{
		refresher: refresher,
		store:     store,
		buffer:    o.Buffer,
		scheduler: o.Scheduler,
		now:       o.Now,
		logger:    o.Logger,
		onEnded:   o.OnSessionEnded,
		state:     Unauthenticated,
	}
	if c.buffer <= 0 {
		c.buffer = DefaultBuffer
	}
	if c.scheduler == nil {
		c.scheduler = realScheduler{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns the current identity, or nil when not authenticated.
func (c *Controller) User() *Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// AccessToken returns the current access token, or "".
func (c *Controller) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pair == nil {
		return ""
	}
	return c.pair.AccessToken
}

// transitionLocked is the only place state changes.
func (c *Controller) transitionLocked(to State) error {
	if !canTransition(c.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.state, to)
	}
	c.logger.Debug(context.Background(), "session transition", "from", c.state.String(), "to", to.String())
	c.state = to
	return nil
}

// Restore resumes a stored session. A fresh access token is used as is; an
// expired one gets exactly one refresh attempt, and if that fails the stored
// tokens are cleared. The returned error is informational: the controller
// is always in a settled state afterwards.
func (c *Controller) Restore(ctx context.Context) error {
	c.mu.Lock()
	if err := c.transitionLocked(Restoring); err != nil {
		c.mu.Unlock()
		return err
	}
	c.epoch++
	e := c.epoch
	c.mu.Unlock()

	pair := c.store.Load(ctx)
	if pair == nil {
		c.settleUnauthenticated(e)
		return nil
	}

	if !tokens.IsExpired(pair.AccessToken, c.buffer, c.now()) {
		id, err := identityFrom(pair)
		if err == nil {
			return c.establish(ctx, e, pair, id, false)
		}
	}

	fresh, err := c.refresher.Refresh(ctx, pair.RefreshToken)
	if err == nil {
		var id *Identity
		if id, err = identityFrom(fresh); err == nil {
			return c.establish(ctx, e, fresh, id, true)
		}
	}

	c.logger.Info(ctx, "stored session could not be restored", "error", err)
	c.mu.Lock()
	stale := c.epoch != e
	c.mu.Unlock()
	if !stale {
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.logger.Warn(ctx, "clearing stored tokens failed", "error", cerr)
		}
	}
	c.settleUnauthenticated(e)
	return err
}

// establish finishes Restore with a usable pair.
func (c *Controller) establish(ctx context.Context, e uint64, pair *tokens.Pair, id *Identity, persist bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != e || c.state != Restoring {
		return ErrSuperseded
	}
	if persist {
		if err := c.store.Store(ctx, pair); err != nil {
			c.logger.Warn(ctx, "persisting refreshed tokens failed", "error", err)
		}
	}
	if err := c.transitionLocked(Authenticated); err != nil {
		return err
	}
	c.pair, c.user = pair, id
	c.armLocked()
	return nil
}

func (c *Controller) settleUnauthenticated(e uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch == e && c.state == Restoring {
		_ = c.transitionLocked(Unauthenticated)
	}
}

// Login installs a session from a successful login call. It is rejected
// while a logout is in flight.
func (c *Controller) Login(ctx context.Context, user Identity, pair tokens.Pair) error {
	if !pair.Complete() {
		return common.NewValidationError("Access token and refresh token are required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == LoggingOut {
		return ErrLogoutInProgress
	}
	if !canTransition(c.state, Authenticated) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.state, Authenticated)
	}

	if err := c.store.Store(ctx, &pair); err != nil {
		return err
	}

	c.epoch++
	c.stopTimerLocked()
	if err := c.transitionLocked(Authenticated); err != nil {
		return err
	}
	c.pair, c.user = &pair, &user
	c.armLocked()
	return nil
}

// Logout ends the session. The LoggingOut state is entered before anything
// else, so a refresh resolving meanwhile is discarded. A storage failure is
// returned but the in-memory session is gone regardless.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case LoggingOut:
		c.mu.Unlock()
		return nil
	case Unauthenticated:
		c.mu.Unlock()
		return c.store.Clear(ctx)
	}
	c.beginLogoutLocked()
	c.mu.Unlock()

	return c.finishLogout(ctx)
}

func (c *Controller) beginLogoutLocked() {
	_ = c.transitionLocked(LoggingOut)
	c.epoch++
	c.stopTimerLocked()
	c.pair, c.user = nil, nil
}

func (c *Controller) finishLogout(ctx context.Context) error {
	err := c.store.Clear(ctx)
	if err != nil {
		c.logger.Warn(ctx, "clearing stored tokens failed", "error", err)
	}

	c.mu.Lock()
	if c.state == LoggingOut {
		_ = c.transitionLocked(Unauthenticated)
	}
	c.mu.Unlock()
	return err
}

// RefreshNow refreshes immediately, replacing any pending timer. Failure
// ends the session, as with a silent refresh.
func (c *Controller) RefreshNow(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Authenticated {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	e, refreshToken := c.startRefreshLocked()
	c.mu.Unlock()

	return c.completeRefresh(ctx, e, refreshToken, false)
}

// silentRefresh is the timer callback. armedAt is the epoch the timer was
// armed under.
func (c *Controller) silentRefresh(armedAt uint64) {
	c.mu.Lock()
	if c.state != Authenticated || c.epoch != armedAt {
		c.mu.Unlock()
		return
	}
	e, refreshToken := c.startRefreshLocked()
	c.mu.Unlock()

	_ = c.completeRefresh(context.Background(), e, refreshToken, true)
}

func (c *Controller) startRefreshLocked() (uint64, string) {
	c.stopTimerLocked()
	c.epoch++
	return c.epoch, c.pair.RefreshToken
}

func (c *Controller) completeRefresh(ctx context.Context, e uint64, refreshToken string, silent bool) error {
	fresh, err := c.refresher.Refresh(ctx, refreshToken)

	var id *Identity
	if err == nil {
		id, err = identityFrom(fresh)
	}

	c.mu.Lock()
	if c.epoch != e || c.state != Authenticated {
		c.mu.Unlock()
		c.logger.Debug(ctx, "discarding stale refresh result")
		return ErrSuperseded
	}

	if err == nil {
		if err = c.store.Store(ctx, fresh); err == nil {
			_ = c.transitionLocked(Authenticated)
			c.pair, c.user = fresh, id
			c.armLocked()
			c.mu.Unlock()
			return nil
		}
	}

	c.logger.Info(ctx, "refresh failed, ending session", "error", err)
	c.beginLogoutLocked()
	c.mu.Unlock()

	_ = c.finishLogout(ctx)
	if silent && c.onEnded != nil {
		c.onEnded(err)
	}
	return err
}

// armLocked schedules the next silent refresh for the current access token.
func (c *Controller) armLocked() {
	c.stopTimerLocked()
	delay := tokens.RefreshDelay(c.pair.AccessToken, c.buffer, c.now())
	e := c.epoch
	c.timer = c.scheduler.AfterFunc(delay, func() { c.silentRefresh(e) })
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func identityFrom(pair *tokens.Pair) (*Identity, error) {
	claims, err := tokens.DecodeAccess(pair.AccessToken)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: claims.UserID, Username: claims.Username, IsAdmin: claims.IsAdmin}, nil
}
