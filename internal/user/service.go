package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"sukesh_education/internal/apperror"
	"sukesh_education/internal/auth"
	"sukesh_education/internal/mail"
	"sukesh_education/internal/observability"
	"sukesh_education/internal/utils"
	"sukesh_education/internal/validation"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgResetRequested     = "If your email is registered, you will receive instructions to reset your password."
	MsgInvalidResetLink   = "This password reset link is invalid or has expired."
	MsgEmailTaken         = "Email already registered. Please use a different email."
)

var (
	// Compared against when the email is unknown so both failure paths cost one bcrypt check.
	dummyHashOnce     sync.Once
	dummyPasswordHash string
)

func dummyHash() string {
	dummyHashOnce.Do(func() {
		dummyPasswordHash, _ = auth.GeneratePasswordHash("not-a-real-password")
	})
	return dummyPasswordHash
}

type RegisterInput struct {
	Email           string `form:"email" json:"email" validate:"required,max=120,email"`
	Name            string `form:"name" json:"name" validate:"max=100"`
	Password        string `form:"password" json:"password" validate:"required,min=8,bcryptlen"`
	PasswordConfirm string `form:"password_confirm" json:"password_confirm" validate:"required,eqfield=Password"`
}

type resetInput struct {
	Password        string `form:"password" validate:"required,min=8,bcryptlen"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}

var passwordMessages = validation.Messages{
	"email.email":              "Enter a valid email address",
	"password.min":             "Password must be at least 8 characters long",
	"password_confirm.eqfield": "Passwords must match",
}

type Options struct {
	SessionTTL  time.Duration
	RememberTTL time.Duration
	ResetTTL    time.Duration
	JWTSecret   string
	BaseURL     string
}

type UserService struct {
	repo      UserRepositoryInterface
	db        *sqlx.DB
	tx        utils.Transactor
	sessions  auth.SessionStore
	notifier  mail.Notifier
	validator *validation.Validator
	metrics   *observability.Metrics
	opts      Options
	group     singleflight.Group
}

type UserServiceInterface interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, email, password string, remember bool) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*User, error)
	GetUserByID(ctx context.Context, id int) (*User, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password, passwordConfirm string) error
	EnsureUser(ctx context.Context, email, name, password string) (*User, error)
}

func NewUserService(
	repo UserRepositoryInterface,
	db *sqlx.DB,
	tx utils.Transactor,
	sessions auth.SessionStore,
	notifier mail.Notifier,
	validator *validation.Validator,
	metrics *observability.Metrics,
	opts Options,
) UserServiceInterface {
	return &UserService{
		repo:      repo,
		db:        db,
		tx:        tx,
		sessions:  sessions,
		notifier:  notifier,
		validator: validator,
		metrics:   metrics,
		opts:      opts,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the form and stores a new user with a bcrypt hash.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	user, err := s.register(ctx, input)
	s.metrics.ObserveAuth("register", err)
	return user, err
}

func (s *UserService) register(ctx context.Context, input RegisterInput) (*User, error) {
	if err := s.validator.Struct(input, passwordMessages); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, s.db, input.Email)
	if err == nil && existing != nil {
		return nil, emailTakenError()
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, apperror.NewInternal(err)
	}

	return s.createUser(ctx, input.Email, input.Name, input.Password)
}

func (s *UserService) createUser(ctx context.Context, email, name, password string) (*User, error) {
	hashedPassword, err := auth.GeneratePasswordHash(password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hash password: %w", err))
	}

	user := &User{
		Email:        email,
		Name:         NullableString(name),
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.tx.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := s.repo.Create(ctx, tx, user)
		return err
	})
	if err != nil {
		// Lost a race with a concurrent registration of the same email
		if utils.IsUniqueViolation(err) {
			return nil, emailTakenError()
		}
		return nil, apperror.NewPersistenceError(err)
	}

	return user, nil
}

func emailTakenError() error {
	return apperror.NewValidationError(apperror.FieldError{Field: "email", Message: MsgEmailTaken})
}

// Login checks the credentials and opens a session. Unknown email and wrong
// password produce the same AuthError.
func (s *UserService) Login(ctx context.Context, email, password string, remember bool) (*auth.Session, error) {
	session, err := s.login(ctx, normalizeEmail(email), password, remember)
	s.metrics.ObserveAuth("login", err)
	return session, err
}

func (s *UserService) login(ctx context.Context, email, password string, remember bool) (*auth.Session, error) {
	user, err := s.repo.GetByEmail(ctx, s.db, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, apperror.NewInternal(err)
		}
		auth.CheckPassword(dummyHash(), password)
		logrus.WithField("email", email).Info("Login failed")
		return nil, apperror.NewAuthError(MsgInvalidCredentials)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		logrus.WithField("user_id", user.ID).Info("Login failed")
		return nil, apperror.NewAuthError(MsgInvalidCredentials)
	}

	ttl := s.opts.SessionTTL
	if remember {
		ttl = s.opts.RememberTTL
	}

	session, err := s.sessions.Create(ctx, user.ID, remember, ttl)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("create session: %w", err))
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"remember": remember,
	}).Info("User logged in")
	return session, nil
}

// Logout ends the session; unknown or empty tokens are ignored.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.sessions.Delete(ctx, token)
	s.metrics.ObserveAuth("logout", err)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("delete session: %w", err))
	}
	return nil
}

// CurrentUser resolves a session token to its user. Concurrent lookups of the
// same token share one round trip, and each caller gets its own copy.
func (s *UserService) CurrentUser(ctx context.Context, token string) (*User, error) {
	// Waiters must not fail because the request that started the lookup went away.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(token, func() (interface{}, error) {
		session, err := s.sessions.Get(shared, token)
		if err != nil {
			return nil, err
		}
		return s.repo.GetByID(shared, s.db, session.UserID)
	})
	if err != nil {
		return nil, err
	}
	u := *v.(*User)
	return &u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (*User, error) {
	return s.repo.GetByID(ctx, s.db, id)
}

// RequestPasswordReset always answers with the same message so callers cannot
// learn which emails are registered.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if !s.validator.Email(email) {
		return "", apperror.NewValidationError(apperror.FieldError{Field: "email", Message: "Enter a valid email address"})
	}

	user, err := s.repo.GetByEmail(ctx, s.db, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			logrus.WithError(err).Error("Failed to look up user for password reset")
		}
		s.metrics.ObserveAuth("password_reset_request", nil)
		return MsgResetRequested, nil
	}

	err = s.sendResetLink(ctx, user)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to send password reset")
	}
	s.metrics.ObserveAuth("password_reset_request", err)

	return MsgResetRequested, nil
}

func (s *UserService) sendResetLink(ctx context.Context, user *User) error {
	token, expiresAt, err := auth.GenerateResetToken(user.ID, user.PasswordHash, s.opts.ResetTTL, s.opts.JWTSecret)
	if err != nil {
		return err
	}

	resetURL := strings.TrimRight(s.opts.BaseURL, "/") + "/auth/reset-password?token=" + url.QueryEscape(token)

	return s.notifier.NotifyPasswordReset(ctx, &mail.PasswordResetMessage{
		UserID:    user.ID,
		Email:     user.Email,
		ResetURL:  resetURL,
		ExpiresAt: expiresAt,
	})
}

// ResetPassword replaces the password of the token's user. A token stops
// working once the password it was issued against has changed.
func (s *UserService) ResetPassword(ctx context.Context, token, password, passwordConfirm string) error {
	err := s.resetPassword(ctx, token, password, passwordConfirm)
	s.metrics.ObserveAuth("password_reset", err)
	return err
}

func (s *UserService) resetPassword(ctx context.Context, token, password, passwordConfirm string) error {
	claims, err := auth.ValidateResetToken(token, s.opts.JWTSecret)
	if err != nil {
		return apperror.NewAuthError(MsgInvalidResetLink)
	}

	user, err := s.repo.GetByID(ctx, s.db, claims.UserID)
	if err != nil {
		return apperror.NewAuthError(MsgInvalidResetLink)
	}
	if auth.PasswordFingerprint(user.PasswordHash) != claims.Fingerprint {
		return apperror.NewAuthError(MsgInvalidResetLink)
	}

	if err := s.validator.Struct(resetInput{Password: password, PasswordConfirm: passwordConfirm}, passwordMessages); err != nil {
		return err
	}

	hashedPassword, err := auth.GeneratePasswordHash(password)
	if err != nil {
		return apperror.NewInternal(err)
	}

	if err := s.tx.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		return s.repo.UpdatePassword(ctx, tx, user.ID, hashedPassword)
	}); err != nil {
		return apperror.NewPersistenceError(err)
	}

	logrus.WithField("user_id", user.ID).Info("Password reset completed")
	return nil
}

// EnsureUser creates the account unless the email already exists.
func (s *UserService) EnsureUser(ctx context.Context, email, name, password string) (*User, error) {
	email = normalizeEmail(email)

	existing, err := s.repo.GetByEmail(ctx, s.db, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if len(password) < auth.MinPasswordLength {
		return nil, apperror.NewValidationError(apperror.FieldError{Field: "password", Message: passwordMessages["password.min"]})
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.NewValidationError(apperror.FieldError{
			Field:   "password",
			Message: fmt.Sprintf("Password cannot be longer than %d bytes", auth.MaxPasswordBytes),
		})
	}

	return s.createUser(ctx, email, name, password)
}
