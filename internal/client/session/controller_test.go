package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/dmitrijs2005/discbaboons/internal/tokens"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type memStore struct {
	mu      sync.Mutex
	pair    *tokens.Pair
	stores  int
	onClear func()
}

func (m *memStore) Store(_ context.Context, p *tokens.Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.pair = &cp
	m.stores++
	return nil
}

func (m *memStore) Load(context.Context) *tokens.Pair {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pair == nil {
		return nil
	}
	cp := *m.pair
	return &cp
}

func (m *memStore) Clear(context.Context) error {
	if m.onClear != nil {
		m.onClear()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = nil
	return nil
}

func (m *memStore) stored() *tokens.Pair {
	return m.Load(context.Background())
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls []string
	next  func(refreshToken string) (*tokens.Pair, error)
}

func (r *fakeRefresher) Refresh(_ context.Context, refreshToken string) (*tokens.Pair, error) {
	r.mu.Lock()
	r.calls = append(r.calls, refreshToken)
	next := r.next
	r.mu.Unlock()
	return next(refreshToken)
}

func (r *fakeRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func access(t *testing.T, userID int64, username string, admin bool, exp time.Time) string {
	t.Helper()
	claims := tokens.AccessClaims{
		UserID:   userID,
		Username: username,
		IsAdmin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

type fixture struct {
	c      *Controller
	sched  *fakeScheduler
	store  *memStore
	ref    *fakeRefresher
	ended  []error
	endedM sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sched: &fakeScheduler{},
		store: &memStore{},
		ref: &fakeRefresher{next: func(string) (*tokens.Pair, error) {
			return nil, errors.New("unexpected refresh")
		}},
	}
	f.c = NewController(f.ref, f.store, Options{
		Scheduler: f.sched,
		Now:       func() time.Time { return now },
		OnSessionEnded: func(err error) {
			f.endedM.Lock()
			f.ended = append(f.ended, err)
			f.endedM.Unlock()
		},
	})
	return f
}

func (f *fixture) login(t *testing.T) tokens.Pair {
	t.Helper()
	pair := tokens.Pair{AccessToken: access(t, 7, "alice", false, now.Add(15*time.Minute)), RefreshToken: "r1"}
	require.NoError(t, f.c.Login(context.Background(), Identity{UserID: 7, Username: "alice"}, pair))
	return pair
}

func TestRestore_NothingStored(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.c.Restore(context.Background()))

	assert.Equal(t, Unauthenticated, f.c.State())
	assert.Nil(t, f.c.User())
	assert.Zero(t, f.sched.pending())
}

func TestRestore_FreshTokenArmsTimer(t *testing.T) {
	f := newFixture(t)
	f.store.pair = &tokens.Pair{AccessToken: access(t, 3, "bob", true, now.Add(15*time.Minute)), RefreshToken: "r"}

	require.NoError(t, f.c.Restore(context.Background()))

	assert.Equal(t, Authenticated, f.c.State())
	assert.Equal(t, &Identity{UserID: 3, Username: "bob", IsAdmin: true}, f.c.User())
	assert.Equal(t, 13*time.Minute, f.sched.last().d)
	assert.Zero(t, f.ref.count())
}

func TestRestore_ExpiredTokenRefreshesOnce(t *testing.T) {
	f := newFixture(t)
	f.store.pair = &tokens.Pair{AccessToken: access(t, 3, "bob", false, now.Add(time.Minute)), RefreshToken: "old"}
	fresh := &tokens.Pair{AccessToken: access(t, 3, "bob", false, now.Add(15*time.Minute)), RefreshToken: "new"}
	f.ref.next = func(string) (*tokens.Pair, error) { return fresh, nil }

	require.NoError(t, f.c.Restore(context.Background()))

	assert.Equal(t, Authenticated, f.c.State())
	assert.Equal(t, []string{"old"}, f.ref.calls)
	assert.Equal(t, fresh, f.store.stored())
	assert.Equal(t, fresh.AccessToken, f.c.AccessToken())
	assert.Equal(t, 1, f.sched.pending())
}

func TestRestore_BothTokensInvalid(t *testing.T) {
	f := newFixture(t)
	f.store.pair = &tokens.Pair{AccessToken: "garbage", RefreshToken: "dead"}
	f.ref.next = func(string) (*tokens.Pair, error) { return nil, common.ErrInvalidRefreshToken }

	err := f.c.Restore(context.Background())

	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	assert.Equal(t, Unauthenticated, f.c.State())
	assert.Nil(t, f.store.stored())
	assert.Equal(t, 1, f.ref.count())
	assert.Zero(t, f.sched.pending())
}

func TestRestore_RejectedWhenAuthenticated(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	err := f.c.Restore(context.Background())

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, Authenticated, f.c.State())
}

func TestLogin_StoresAndArms(t *testing.T) {
	f := newFixture(t)
	pair := f.login(t)

	assert.Equal(t, Authenticated, f.c.State())
	assert.Equal(t, &pair, f.store.stored())
	assert.Equal(t, "alice", f.c.User().Username)
	assert.Equal(t, 13*time.Minute, f.sched.last().d)
}

func TestLogin_IncompletePair(t *testing.T) {
	f := newFixture(t)

	err := f.c.Login(context.Background(), Identity{UserID: 1}, tokens.Pair{AccessToken: "a"})

	var ve *common.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, Unauthenticated, f.c.State())
}

func TestLogin_ReplacesPendingTimer(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.login(t)

	assert.Equal(t, 1, f.sched.pending())
}

func TestSilentRefresh_Success(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	fresh := &tokens.Pair{AccessToken: access(t, 7, "alice", true, now.Add(20*time.Minute)), RefreshToken: "r2"}
	f.ref.next = func(string) (*tokens.Pair, error) { return fresh, nil }

	f.sched.last().f()

	assert.Equal(t, Authenticated, f.c.State())
	assert.Equal(t, []string{"r1"}, f.ref.calls)
	assert.Equal(t, fresh, f.store.stored())
	assert.True(t, f.c.User().IsAdmin)
	assert.Equal(t, 18*time.Minute, f.sched.last().d)
	assert.Equal(t, 1, f.sched.pending())
}

func TestSilentRefresh_FailureLogsOut(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.ref.next = func(string) (*tokens.Pair, error) { return nil, common.ErrInvalidRefreshToken }

	f.sched.last().f()

	assert.Equal(t, Unauthenticated, f.c.State())
	assert.Nil(t, f.store.stored())
	assert.Nil(t, f.c.User())
	require.Len(t, f.ended, 1)
	assert.ErrorIs(t, f.ended[0], common.ErrInvalidRefreshToken)
}

func TestLogout_DuringInFlightRefresh(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	late := &tokens.Pair{AccessToken: access(t, 7, "alice", false, now.Add(15*time.Minute)), RefreshToken: "late"}
	started := make(chan struct{})
	release := make(chan struct{})
	f.ref.next = func(string) (*tokens.Pair, error) {
		close(started)
		<-release
		return late, nil
	}

	timer := f.sched.last()
	done := make(chan struct{})
	go func() {
		timer.f()
		close(done)
	}()
	<-started

	require.NoError(t, f.c.Logout(context.Background()))
	close(release)
	<-done

	assert.Equal(t, Unauthenticated, f.c.State())
	assert.Nil(t, f.store.stored())
	assert.Equal(t, 1, f.store.stores)
	assert.Zero(t, f.sched.pending())
	assert.Empty(t, f.ended)
}

func TestLogin_RejectedWhileLoggingOut(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	clearing := make(chan struct{})
	release := make(chan struct{})
	f.store.onClear = func() {
		close(clearing)
		<-release
	}

	errc := make(chan error, 1)
	go func() { errc <- f.c.Logout(context.Background()) }()
	<-clearing

	assert.Equal(t, LoggingOut, f.c.State())
	pair := tokens.Pair{AccessToken: access(t, 7, "alice", false, now.Add(time.Hour)), RefreshToken: "x"}
	err := f.c.Login(context.Background(), Identity{UserID: 7}, pair)
	assert.ErrorIs(t, err, ErrLogoutInProgress)

	close(release)
	require.NoError(t, <-errc)
	assert.Equal(t, Unauthenticated, f.c.State())
}

func TestLogout_WhenUnauthenticatedClearsStorage(t *testing.T) {
	f := newFixture(t)
	f.store.pair = &tokens.Pair{AccessToken: "a", RefreshToken: "r"}

	require.NoError(t, f.c.Logout(context.Background()))

	assert.Nil(t, f.store.stored())
	assert.Equal(t, Unauthenticated, f.c.State())
}

func TestRefreshNow_ReplacesPendingTimer(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	old := f.sched.last()
	fresh := &tokens.Pair{AccessToken: access(t, 7, "alice", false, now.Add(30*time.Minute)), RefreshToken: "r2"}
	f.ref.next = func(string) (*tokens.Pair, error) { return fresh, nil }

	require.NoError(t, f.c.RefreshNow(context.Background()))

	assert.True(t, old.stopped)
	assert.Equal(t, 1, f.sched.pending())

	// a timer that fired despite Stop must not start a second refresh
	old.f()
	assert.Equal(t, 1, f.ref.count())
	assert.Equal(t, fresh.AccessToken, f.c.AccessToken())
}

func TestRefreshNow_NotAuthenticated(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.c.RefreshNow(context.Background()), ErrNotAuthenticated)
}

func TestRefreshNow_FailureEndsSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.ref.next = func(string) (*tokens.Pair, error) { return nil, common.ErrInvalidRefreshToken }

	err := f.c.RefreshNow(context.Background())

	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	assert.Equal(t, Unauthenticated, f.c.State())
	assert.Nil(t, f.store.stored())
	assert.Empty(t, f.ended)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{Unauthenticated, Restoring, true},
		{Unauthenticated, Authenticated, true},
		{Unauthenticated, LoggingOut, false},
		{Restoring, Authenticated, true},
		{Restoring, Unauthenticated, true},
		{Authenticated, Authenticated, true},
		{Authenticated, LoggingOut, true},
		{Authenticated, Restoring, false},
		{LoggingOut, Authenticated, false},
		{LoggingOut, Unauthenticated, true},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.ok, canTransition(tt.from, tt.to))
		})
	}
}
