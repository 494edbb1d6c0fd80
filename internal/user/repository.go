package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

const userColumns = `id, email, name, password_hash, created_at, year_level, hsc_subjects,
	address, phone_number, date_of_birth, bio, profile_picture`

type UserRepository struct {
	bindType int
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, tx *sqlx.Tx, user *User) (int, error)
	GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*User, error)
	GetByEmail(ctx context.Context, q sqlx.QueryerContext, email string) (*User, error)
	UpdateProfile(ctx context.Context, tx *sqlx.Tx, id int, profile *Profile) error
	UpdatePassword(ctx context.Context, tx *sqlx.Tx, id int, passwordHash string) error
	UpdateYearLevel(ctx context.Context, tx *sqlx.Tx, id int, yearLevel string) error
	UpdateSubjects(ctx context.Context, tx *sqlx.Tx, id int, subjects *string) error
	UpdateProfilePicture(ctx context.Context, tx *sqlx.Tx, id int, pictureURL string) error
}

// NewUserRepository builds a repository whose queries are rebound for driverName.
func NewUserRepository(driverName string) UserRepositoryInterface {
	return &UserRepository{bindType: sqlx.BindType(driverName)}
}

func (r *UserRepository) rebind(query string) string {
	return sqlx.Rebind(r.bindType, query)
}

// Create inserts a new user and returns its id
func (r *UserRepository) Create(ctx context.Context, tx *sqlx.Tx, user *User) (int, error) {
	query := r.rebind(`
		INSERT INTO users (email, name, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	var id int
	err := tx.QueryRowxContext(ctx, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&id)
	if err != nil {
		logrus.WithError(err).WithField("email", user.Email).Error("Failed to create user")
		return 0, err
	}

	user.ID = id
	logrus.WithFields(logrus.Fields{
		"user_id": id,
		"email":   user.Email,
	}).Info("User created successfully")

	return id, nil
}

func (r *UserRepository) GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*User, error) {
	query := r.rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)

	user := &User{}
	if err := sqlx.GetContext(ctx, q, user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).WithField("user_id", id).Error("Failed to get user by ID")
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, q sqlx.QueryerContext, email string) (*User, error) {
	query := r.rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)

	user := &User{}
	if err := sqlx.GetContext(ctx, q, user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).Error("Failed to get user by email")
		return nil, err
	}

	return user, nil
}

// UpdateProfile overwrites the personal details; nil fields become NULL.
func (r *UserRepository) UpdateProfile(ctx context.Context, tx *sqlx.Tx, id int, profile *Profile) error {
	query := r.rebind(`
		UPDATE users
		SET name = ?, address = ?, phone_number = ?, date_of_birth = ?, bio = ?
		WHERE id = ?
	`)

	result, err := tx.ExecContext(ctx, query,
		profile.Name,
		profile.Address,
		profile.PhoneNumber,
		profile.DateOfBirth,
		profile.Bio,
		id,
	)
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("Failed to update profile")
		return err
	}

	return requireOneRow(result, id, "Profile updated successfully")
}

func (r *UserRepository) UpdatePassword(ctx context.Context, tx *sqlx.Tx, id int, passwordHash string) error {
	query := r.rebind(`UPDATE users SET password_hash = ? WHERE id = ?`)

	result, err := tx.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("Failed to update password")
		return err
	}

	return requireOneRow(result, id, "Password updated successfully")
}

func (r *UserRepository) UpdateYearLevel(ctx context.Context, tx *sqlx.Tx, id int, yearLevel string) error {
	query := r.rebind(`UPDATE users SET year_level = ? WHERE id = ?`)

	result, err := tx.ExecContext(ctx, query, yearLevel, id)
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("Failed to update year level")
		return err
	}

	return requireOneRow(result, id, "Year level updated successfully")
}

// UpdateSubjects stores the comma-joined selection; nil clears it.
func (r *UserRepository) UpdateSubjects(ctx context.Context, tx *sqlx.Tx, id int, subjects *string) error {
	query := r.rebind(`UPDATE users SET hsc_subjects = ? WHERE id = ?`)

	result, err := tx.ExecContext(ctx, query, subjects, id)
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("Failed to update subjects")
		return err
	}

	return requireOneRow(result, id, "Subjects updated successfully")
}

func (r *UserRepository) UpdateProfilePicture(ctx context.Context, tx *sqlx.Tx, id int, pictureURL string) error {
	query := r.rebind(`UPDATE users SET profile_picture = ? WHERE id = ?`)

	result, err := tx.ExecContext(ctx, query, pictureURL, id)
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("Failed to update profile picture")
		return err
	}

	return requireOneRow(result, id, "Profile picture updated successfully")
}

func requireOneRow(result sql.Result, id int, msg string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	logrus.WithField("user_id", id).Info(msg)
	return nil
}
