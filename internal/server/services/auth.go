// Package services contains server-side business logic. AuthService owns
// the token lifecycle: login, refresh rotation and the reset-code flow.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/dmitrijs2005/discbaboons/internal/dbx"
	"github.com/dmitrijs2005/discbaboons/internal/logging"
	"github.com/dmitrijs2005/discbaboons/internal/server/auth"
	"github.com/dmitrijs2005/discbaboons/internal/server/models"
	"github.com/dmitrijs2005/discbaboons/internal/server/notify"
	"github.com/dmitrijs2005/discbaboons/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/discbaboons/internal/server/repositories/resetcodes"
	"github.com/dmitrijs2005/discbaboons/internal/tokens"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ForgotPasswordMessage = "If an account with that information exists, a password reset code has been sent to the associated email address."
	ForgotUsernameMessage = "If an account associated with this email address exists, an email containing your username has been sent."
	ChangePasswordMessage = "Password has been successfully changed."
)

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	User   models.PublicUser
	Tokens tokens.Pair
}

// ForgotPasswordRequest identifies the account by username or email.
type ForgotPasswordRequest struct {
	Username string
	Email    string
}

// ChangePasswordRequest consumes a reset code.
type ChangePasswordRequest struct {
	ResetCode   string
	NewPassword string
	Username    string
	Email       string
}

type AuthService struct {
	db           dbx.DBTX
	repomanager  repomanager.RepositoryManager
	resetCodes   resetcodes.Repository
	notifier     notify.Notifier
	hasher       PasswordHasher
	jwt          *auth.JWTManager
	resetCodeTTL time.Duration
	logger       logging.Logger
	tracer       trace.Tracer

	// dummyHash is verified against when the user does not exist, so a
	// miss costs as much time as a wrong password.
	dummyHash string
}

func NewAuthService(
	db dbx.DBTX,
	rm repomanager.RepositoryManager,
	codes resetcodes.Repository,
	notifier notify.Notifier,
	hasher PasswordHasher,
	jwt *auth.JWTManager,
	resetCodeTTL time.Duration,
	logger logging.Logger,
	tracer trace.Tracer,
) (*AuthService, error) {
	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(seed)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		db:           db,
		repomanager:  rm,
		resetCodes:   codes,
		notifier:     notifier,
		hasher:       hasher,
		jwt:          jwt,
		resetCodeTTL: resetCodeTTL,
		logger:       logger,
		tracer:       tracer,
		dummyHash:    dummy,
	}, nil
}

// Login checks credentials and mints a token pair. Unknown user and wrong
// password both yield common.ErrAuthentication.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	username = normalizeUsername(username)
	if username == "" {
		return nil, common.NewValidationError("Username is required")
	}
	if password == "" {
		return nil, common.NewValidationError("Password is required")
	}

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrAuthentication
		}
		return nil, s.internal(ctx, span, "login lookup failed", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, span, "stored password hash unreadable", err, "user_id", user.ID)
	}
	if !ok {
		return nil, common.ErrAuthentication
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, s.internal(ctx, span, "token signing failed", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{User: user.Public(), Tokens: *pair}, nil
}

// RefreshToken validates refreshToken, re-reads the credential and rotates
// both tokens. The new access token carries the credential's current
// privileges. Every rejection is common.ErrInvalidRefreshToken.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.RefreshToken")
	defer span.End()

	if refreshToken == "" {
		return nil, common.NewValidationError("Refresh token is required")
	}

	claims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, common.ErrInvalidRefreshToken
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, s.internal(ctx, span, "refresh lookup failed", err)
	}

	if claims.TokenVersion != user.TokenVersion {
		return nil, common.ErrInvalidRefreshToken
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, s.internal(ctx, span, "token signing failed", err)
	}
	return pair, nil
}

// ForgotPassword stores a fresh reset code for the account (replacing any
// previous one) and mails it. The reply is the same whether or not the
// account exists.
func (s *AuthService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.ForgotPassword")
	defer span.End()

	user, err := s.resolveAccount(ctx, req.Username, req.Email, "Username or email is required")
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ForgotPasswordMessage, nil
		}
		if errors.Is(err, common.ErrValidation) {
			return "", err
		}
		return "", s.internal(ctx, span, "forgot-password lookup failed", err)
	}

	code, err := common.MakeResetCode()
	if err != nil {
		return "", s.internal(ctx, span, "reset code generation failed", err)
	}

	if err := s.resetCodes.Put(ctx, user.ID, code, s.resetCodeTTL); err != nil {
		return "", s.internal(ctx, span, "reset code store failed", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, user.Username, code, s.resetCodeTTL); err != nil {
		s.logger.Error(ctx, "reset email dispatch failed", "user_id", user.ID, "error", err)
	}

	return ForgotPasswordMessage, nil
}

// ChangePassword consumes a reset code. The ledger entry is removed only
// after the new hash is written, so a failed write leaves the code usable.
func (s *AuthService) ChangePassword(ctx context.Context, req ChangePasswordRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.ChangePassword")
	defer span.End()

	if req.ResetCode == "" || req.NewPassword == "" || (req.Username == "" && req.Email == "") {
		return "", common.NewValidationError("Reset code, new password, and username or email are required")
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return "", err
	}

	user, err := s.resolveAccount(ctx, req.Username, req.Email, "")
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidResetCode
		}
		if errors.Is(err, common.ErrValidation) {
			return "", err
		}
		return "", s.internal(ctx, span, "change-password lookup failed", err)
	}

	stored, err := s.resetCodes.Get(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidResetCode
		}
		return "", s.internal(ctx, span, "reset code lookup failed", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(req.ResetCode)) != 1 {
		return "", common.ErrInvalidResetCode
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return "", s.internal(ctx, span, "password hashing failed", err)
	}

	if _, err := s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, hash); err != nil {
		return "", s.internal(ctx, span, "password update failed", err, "user_id", user.ID)
	}

	if _, err := s.resetCodes.DeleteIfMatch(ctx, user.ID, req.ResetCode); err != nil {
		return "", s.internal(ctx, span, "reset code delete failed", err, "user_id", user.ID)
	}

	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return ChangePasswordMessage, nil
}

// ForgotUsername mails the username bound to email, if any. The reply is
// the same whether or not the account exists.
func (s *AuthService) ForgotUsername(ctx context.Context, email string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.ForgotUsername")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" {
		return "", common.NewValidationError("Email is required")
	}
	if !validEmail(email) {
		return "", common.NewValidationError("Invalid email format")
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ForgotUsernameMessage, nil
		}
		return "", s.internal(ctx, span, "forgot-username lookup failed", err)
	}

	if err := s.notifier.SendUsernameReminder(ctx, user.Email, user.Username); err != nil {
		s.logger.Error(ctx, "username email dispatch failed", "user_id", user.ID, "error", err)
	}

	return ForgotUsernameMessage, nil
}

// Me returns the public profile behind an authenticated access token.
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.PublicUser, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAuthorization
		}
		return nil, common.ErrorInternal
	}
	pub := user.Public()
	return &pub, nil
}

// --- helpers below ---

func (s *AuthService) issue(user *models.User) (*tokens.Pair, error) {
	return s.jwt.IssuePair(auth.Subject{
		UserID:       user.ID,
		Username:     user.Username,
		IsAdmin:      user.IsAdmin,
		TokenVersion: user.TokenVersion,
	})
}

// resolveAccount looks the account up by email when given, else by username.
// missingMsg, when non-empty, is the validation message for "neither given".
func (s *AuthService) resolveAccount(ctx context.Context, username, email, missingMsg string) (*models.User, error) {
	username = normalizeUsername(username)
	email = normalizeEmail(email)

	if username == "" && email == "" {
		return nil, common.NewValidationError(missingMsg)
	}

	repo := s.repomanager.Users(s.db)
	if email != "" {
		if !validEmail(email) {
			return nil, common.NewValidationError("Invalid email format")
		}
		return repo.GetByEmail(ctx, email)
	}
	return repo.GetByUsername(ctx, username)
}

func (s *AuthService) internal(ctx context.Context, span trace.Span, msg string, err error, args ...any) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.logger.Error(ctx, msg, append(args, "error", err)...)
	return common.ErrorInternal
}
