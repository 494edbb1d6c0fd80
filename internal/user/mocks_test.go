package user

import (
	"context"
	"time"

	"sukesh_education/internal/auth"
	"sukesh_education/internal/mail"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepositoryInterface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, tx *sqlx.Tx, user *User) (int, error) {
	args := m.Called(ctx, tx, user)
	if id := args.Int(0); id != 0 {
		user.ID = id
	}
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, q sqlx.QueryerContext, email string) (*User, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, tx *sqlx.Tx, id int, profile *Profile) error {
	return m.Called(ctx, tx, id, profile).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, tx *sqlx.Tx, id int, passwordHash string) error {
	return m.Called(ctx, tx, id, passwordHash).Error(0)
}

func (m *MockUserRepository) UpdateYearLevel(ctx context.Context, tx *sqlx.Tx, id int, yearLevel string) error {
	return m.Called(ctx, tx, id, yearLevel).Error(0)
}

func (m *MockUserRepository) UpdateSubjects(ctx context.Context, tx *sqlx.Tx, id int, subjects *string) error {
	return m.Called(ctx, tx, id, subjects).Error(0)
}

func (m *MockUserRepository) UpdateProfilePicture(ctx context.Context, tx *sqlx.Tx, id int, pictureURL string) error {
	return m.Called(ctx, tx, id, pictureURL).Error(0)
}

// MockSessionStore is a mock implementation of auth.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context, userID int, remember bool, ttl time.Duration) (*auth.Session, error) {
	args := m.Called(ctx, userID, remember, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockSessionStore) Get(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// MockNotifier is a mock implementation of mail.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyPasswordReset(ctx context.Context, msg *mail.PasswordResetMessage) error {
	return m.Called(ctx, msg).Error(0)
}

// fakeTransactor runs fn without a database and can simulate a failed commit.
type fakeTransactor struct {
	commitErr error
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	return f.commitErr
}
