package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/client/api"
	"github.com/dmitrijs2005/discbaboons/internal/client/session"
	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/dmitrijs2005/discbaboons/internal/tokens"
)

const sessionEndedMessage = "Your session has expired. Please log in again."

var errPasswordMismatch = errors.New("passwords do not match")

// userMessage renders err for the terminal.
func userMessage(err error) string {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, errPasswordMismatch):
		return "Passwords do not match"
	case errors.Is(err, session.ErrLogoutInProgress):
		return "Logout in progress. Please try again."
	case errors.Is(err, session.ErrNotAuthenticated):
		return "Not logged in"
	case errors.Is(err, session.ErrInvalidTransition):
		return "Please wait for the current operation to finish."
	default:
		return api.UserMessage(err)
	}
}

func (a *App) fail(err error) error {
	printlnFn(userMessage(err))
	return err
}

func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return a.fail(err)
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	res, err := a.api.Login(ctx, username, string(password))
	if err != nil {
		return a.fail(err)
	}

	id := session.Identity{UserID: res.User.ID, Username: res.User.Username, IsAdmin: res.User.IsAdmin}
	if err := a.session.Login(ctx, id, res.Tokens); err != nil {
		return a.fail(err)
	}

	printlnFn("Logged in as " + res.User.Username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		a.logger.Warn(ctx, "logout could not clear stored tokens", "error", err)
	}
	printlnFn("Logged out")
	return nil
}

// WhoAmI shows the server's view of the current user. A 401 gets one
// refresh and retry, which covers a timer that was late after sleep.
func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.fail(session.ErrNotAuthenticated)
	}

	u, err := a.api.Me(ctx, a.session.AccessToken())
	var se *api.ServerError
	if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
		if rerr := a.session.RefreshNow(ctx); rerr != nil {
			return a.fail(rerr)
		}
		u, err = a.api.Me(ctx, a.session.AccessToken())
	}
	if err != nil {
		return a.fail(err)
	}

	printlnFn(fmt.Sprintf("%s <%s>", u.Username, u.Email))
	printlnFn("  id:      ", u.ID)
	printlnFn("  admin:   ", u.IsAdmin)
	printlnFn("  created: ", u.CreatedAt.Format(time.RFC3339))
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.session.RefreshNow(ctx); err != nil {
		if errors.Is(err, common.ErrInvalidRefreshToken) {
			printlnFn(sessionEndedMessage)
			return err
		}
		return a.fail(err)
	}
	printlnFn("Session refreshed")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	state := a.session.State()
	u := a.session.User()
	if u == nil {
		printlnFn("State:", state.String())
		return nil
	}

	printlnFn("State:", state.String(), "as", u.Username)
	if exp, err := tokens.ExpiresAt(a.session.AccessToken()); err == nil {
		printlnFn("Access token expires:", exp.Local().Format(time.RFC3339))
	}
	return nil
}

func (a *App) ForgotPassword(ctx context.Context) error {
	account, err := GetSimpleText(a.reader, "Enter username or email", a.out)
	if err != nil {
		return a.fail(err)
	}
	username, email := splitAccount(account)

	msg, err := a.api.ForgotPassword(ctx, username, email)
	if err != nil {
		return a.fail(err)
	}
	printlnFn(msg)
	return nil
}

func (a *App) ResetPassword(ctx context.Context) error {
	account, err := GetSimpleText(a.reader, "Enter username or email", a.out)
	if err != nil {
		return a.fail(err)
	}
	code, err := GetSimpleText(a.reader, "Enter reset code", a.out)
	if err != nil {
		return a.fail(err)
	}

	pw, err := getPassword("Enter new password", a.out)
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(pw)

	confirm, err := getPassword("Repeat new password", a.out)
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(confirm)

	if string(pw) != string(confirm) {
		return a.fail(errPasswordMismatch)
	}

	username, email := splitAccount(account)
	msg, err := a.api.ChangePassword(ctx, code, string(pw), username, email)
	if err != nil {
		return a.fail(err)
	}
	printlnFn(msg)
	return nil
}

func (a *App) ForgotUsername(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.fail(err)
	}
	msg, err := a.api.ForgotUsername(ctx, email)
	if err != nil {
		return a.fail(err)
	}
	printlnFn(msg)
	return nil
}
