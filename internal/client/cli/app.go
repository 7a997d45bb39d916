package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/discbaboons/internal/client/api"
	"github.com/dmitrijs2005/discbaboons/internal/client/config"
	"github.com/dmitrijs2005/discbaboons/internal/client/keychain"
	"github.com/dmitrijs2005/discbaboons/internal/client/session"
	"github.com/dmitrijs2005/discbaboons/internal/client/tokenstore"
	"github.com/dmitrijs2005/discbaboons/internal/filex"
	"github.com/dmitrijs2005/discbaboons/internal/logging"
	"github.com/dmitrijs2005/discbaboons/internal/tokens"
)

type authAPI interface {
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
	ForgotPassword(ctx context.Context, username, email string) (string, error)
	ChangePassword(ctx context.Context, resetCode, newPassword, username, email string) (string, error)
	ForgotUsername(ctx context.Context, email string) (string, error)
	Me(ctx context.Context, accessToken string) (*api.User, error)
}

type sessionController interface {
	State() session.State
	User() *session.Identity
	AccessToken() string
	Restore(ctx context.Context) error
	Login(ctx context.Context, user session.Identity, pair tokens.Pair) error
	Logout(ctx context.Context) error
	RefreshNow(ctx context.Context) error
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	api      authAPI
	session  sessionController
	keychain io.Closer
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewTextSlogLogger(os.Stderr, c.LogLevel)

	if err := filex.EnsureParentDir(c.KeychainPath); err != nil {
		return nil, fmt.Errorf("keychain directory: %w", err)
	}

	kc, err := keychain.Open(ctx, c.KeychainPath, c.KeychainSecretOrDefault())
	if err != nil {
		logger.Error(ctx, "error opening keychain", "path", c.KeychainPath, "error", err)
		return nil, err
	}

	client := api.New(c.ServerURL, c.RequestTimeout, logger)
	store := tokenstore.New(kc, logger)

	ctl := session.NewController(client, store, session.Options{
		Buffer: c.RefreshBuffer,
		Logger: logger,
		OnSessionEnded: func(err error) {
			printlnFn()
			printlnFn(sessionEndedMessage)
		},
	})

	return &App{
		config:   c,
		logger:   logger,
		api:      client,
		session:  ctl,
		keychain: kc,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// Run restores any stored session and then blocks in the REPL until the
// user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.close(ctx)

	printlnFn("Welcome to discbaboons CLI (type 'help' for commands)")

	if err := a.session.Restore(ctx); err != nil {
		printlnFn(userMessage(err))
	}
	if u := a.session.User(); u != nil {
		printlnFn("Signed in as " + u.Username)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close(ctx context.Context) {
	if a.keychain == nil {
		return
	}
	if err := a.keychain.Close(); err != nil {
		a.logger.Warn(ctx, "error closing keychain", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == session.Authenticated
}

func (a *App) getStatus() string {
	u := a.session.User()
	if u == nil {
		return ""
	}
	if u.IsAdmin {
		return fmt.Sprintf("(%s admin)", u.Username)
	}
	return fmt.Sprintf("(%s)", u.Username)
}
