package profile

import (
	"context"
	"io"

	"sukesh_education/internal/user"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of user.UserRepositoryInterface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, tx *sqlx.Tx, u *user.User) (int, error) {
	args := m.Called(ctx, tx, u)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*user.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, q sqlx.QueryerContext, email string) (*user.User, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, tx *sqlx.Tx, id int, profile *user.Profile) error {
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

// MockStorage is a mock implementation of storage.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Save(ctx context.Context, name string, body io.Reader, contentType string) (string, error) {
	args := m.Called(name, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, name string) error {
	return m.Called(name).Error(0)
}

// MockProfileService is a mock implementation of ProfileServiceInterface
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) UpdateProfile(ctx context.Context, userID int, form ProfileForm) error {
	return m.Called(userID, form).Error(0)
}

func (m *MockProfileService) ChangePassword(ctx context.Context, userID int, form PasswordForm) error {
	return m.Called(userID, form).Error(0)
}

func (m *MockProfileService) UploadProfilePicture(ctx context.Context, userID int, upload *Upload) (string, error) {
	args := m.Called(userID, upload)
	return args.String(0), args.Error(1)
}

func (m *MockProfileService) SaveProfileBasics(ctx context.Context, userID int, basics Basics) error {
	return m.Called(userID, basics).Error(0)
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
