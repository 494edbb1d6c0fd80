package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"sukesh_education/internal/apperror"
	"sukesh_education/internal/auth"
	"sukesh_education/internal/observability"
	"sukesh_education/internal/storage"
	"sukesh_education/internal/user"
	"sukesh_education/internal/utils"
	"sukesh_education/internal/validation"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const (
	MsgIncorrectPassword = "Incorrect current password."
	MsgNoFilePart        = "No file part"
	MsgNoSelectedFile    = "No selected file"
	MsgInvalidFilename   = "Invalid filename"
	MsgUnsupportedImage  = "Only JPEG, PNG, GIF and WebP images are allowed."
	MsgYearLevelRequired = "Year level is required"
	MsgNoData            = "No data provided"
)

// DefaultMaxUploadBytes applies when no upload limit is configured.
const DefaultMaxUploadBytes int64 = 5 << 20

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type ProfileForm struct {
	Name        string `form:"name" json:"name" validate:"max=100"`
	Address     string `form:"address" json:"address" validate:"max=200"`
	PhoneNumber string `form:"phone_number" json:"phone_number" validate:"omitempty,max=20,phone"`
	DateOfBirth string `form:"date_of_birth" json:"date_of_birth" validate:"omitempty,datetime=2006-01-02,notfuture"`
	Bio         string `form:"bio" json:"bio" validate:"max=1000"`
}

type PasswordForm struct {
	CurrentPassword string `form:"current_password" validate:"required"`
	NewPassword     string `form:"new_password" validate:"required,min=8,bcryptlen"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=NewPassword"`
}

var passwordMessages = validation.Messages{
	"new_password.min":         "Password must be at least 8 characters long",
	"confirm_password.eqfield": "Passwords must match",
}

// Upload is a picture received from a multipart form. A nil *Upload means the
// form had no file part at all.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Basics is the JSON body of /save-profile. Subjects is nil when the key was absent.
type Basics struct {
	YearLevel string
	Subjects  *[]string
}

type ProfileServiceInterface interface {
	UpdateProfile(ctx context.Context, userID int, form ProfileForm) error
	ChangePassword(ctx context.Context, userID int, form PasswordForm) error
	UploadProfilePicture(ctx context.Context, userID int, upload *Upload) (string, error)
	SaveProfileBasics(ctx context.Context, userID int, basics Basics) error
}

type ProfileService struct {
	repo      user.UserRepositoryInterface
	db        *sqlx.DB
	tx        utils.Transactor
	storage   storage.Storage
	validator *validation.Validator
	metrics   *observability.Metrics
	maxBytes  int64
}

func NewProfileService(
	repo user.UserRepositoryInterface,
	db *sqlx.DB,
	tx utils.Transactor,
	store storage.Storage,
	validator *validation.Validator,
	metrics *observability.Metrics,
	maxUploadBytes int64,
) ProfileServiceInterface {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ProfileService{
		repo:      repo,
		db:        db,
		tx:        tx,
		storage:   store,
		validator: validator,
		metrics:   metrics,
		maxBytes:  maxUploadBytes,
	}
}

func (f *ProfileForm) trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.Address = strings.TrimSpace(f.Address)
	f.PhoneNumber = strings.TrimSpace(f.PhoneNumber)
	f.DateOfBirth = strings.TrimSpace(f.DateOfBirth)
	f.Bio = strings.TrimSpace(f.Bio)
}

// UpdateProfile replaces the personal details of userID. Blank fields are stored as NULL.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int, form ProfileForm) error {
	err := s.updateProfile(ctx, userID, form)
	s.metrics.ObserveProfileUpdate("details", err)
	return err
}

func (s *ProfileService) updateProfile(ctx context.Context, userID int, form ProfileForm) error {
	form.trim()
	if err := s.validator.Struct(form, nil); err != nil {
		return err
	}

	profile := &user.Profile{
		Name:        user.NullableString(form.Name),
		Address:     user.NullableString(form.Address),
		PhoneNumber: user.NullableString(form.PhoneNumber),
		Bio:         user.NullableString(form.Bio),
	}
	if form.DateOfBirth != "" {
		dob, err := time.Parse(validation.DateLayout, form.DateOfBirth)
		if err != nil {
			return apperror.NewValidationError(apperror.FieldError{Field: "date_of_birth", Message: "Not a valid date value."})
		}
		profile.DateOfBirth = &dob
	}

	if err := s.tx.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		return s.repo.UpdateProfile(ctx, tx, userID, profile)
	}); err != nil {
		return apperror.NewPersistenceError(err)
	}
	return nil
}

// ChangePassword requires the current password. On any failure the stored hash
// is left as it was.
func (s *ProfileService) ChangePassword(ctx context.Context, userID int, form PasswordForm) error {
	err := s.changePassword(ctx, userID, form)
	s.metrics.ObserveProfileUpdate("password", err)
	return err
}

func (s *ProfileService) changePassword(ctx context.Context, userID int, form PasswordForm) error {
	if err := s.validator.Struct(form, passwordMessages); err != nil {
		return err
	}

	u, err := s.repo.GetByID(ctx, s.db, userID)
	if err != nil {
		return apperror.NewInternal(err)
	}

	if !auth.CheckPassword(u.PasswordHash, form.CurrentPassword) {
		logrus.WithField("user_id", userID).Info("Password change rejected")
		return apperror.NewAuthError(MsgIncorrectPassword)
	}

	hashedPassword, err := auth.GeneratePasswordHash(form.NewPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hash password: %w", err))
	}

	if err := s.tx.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		return s.repo.UpdatePassword(ctx, tx, userID, hashedPassword)
	}); err != nil {
		return apperror.NewPersistenceError(err)
	}
	return nil
}

// UploadProfilePicture stores the image and records its URL on the user.
func (s *ProfileService) UploadProfilePicture(ctx context.Context, userID int, upload *Upload) (string, error) {
	pictureURL, size, err := s.uploadProfilePicture(ctx, userID, upload)
	s.metrics.ObserveUpload(size, err)
	return pictureURL, err
}

func (s *ProfileService) uploadProfilePicture(ctx context.Context, userID int, upload *Upload) (string, int64, error) {
	if upload == nil {
		return "", 0, apperror.NewBadRequest(MsgNoFilePart)
	}
	if upload.Filename == "" {
		return "", 0, apperror.NewBadRequest(MsgNoSelectedFile)
	}
	if upload.Body == nil {
		return "", 0, apperror.NewBadRequest(MsgNoFilePart)
	}

	filename := utils.SecureFilename(upload.Filename)
	if filename == "" {
		return "", 0, apperror.NewBadRequest(MsgInvalidFilename)
	}
	name := fmt.Sprintf("%d_%s", userID, filename)

	if upload.Size > s.maxBytes {
		return "", 0, s.tooLarge()
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, s.maxBytes+1))
	if err != nil {
		return "", 0, apperror.NewBadRequest("Could not read the uploaded file.")
	}
	if int64(len(data)) > s.maxBytes {
		return "", 0, s.tooLarge()
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"mime":    mtype.String(),
		}).Info("Rejected profile picture")
		return "", 0, apperror.NewBadRequest(MsgUnsupportedImage)
	}

	pictureURL, err := s.storage.Save(ctx, name, bytes.NewReader(data), mtype.String())
	if err != nil {
		return "", 0, apperror.NewPersistenceError(fmt.Errorf("store picture: %w", err))
	}

	if err := s.tx.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		return s.repo.UpdateProfilePicture(ctx, tx, userID, pictureURL)
	}); err != nil {
		if delErr := s.storage.Delete(ctx, name); delErr != nil {
			logrus.WithError(delErr).WithField("name", name).Warn("Failed to remove orphaned picture")
		}
		return "", 0, apperror.NewPersistenceError(err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"url":     pictureURL,
	}).Info("Profile picture uploaded")
	return pictureURL, int64(len(data)), nil
}

func (s *ProfileService) tooLarge() error {
	return errTooLarge(s.maxBytes)
}

func errTooLarge(maxBytes int64) error {
	limit := fmt.Sprintf("%d KB", maxBytes>>10)
	if maxBytes >= 1<<20 {
		limit = fmt.Sprintf("%d MB", maxBytes>>20)
	}
	return apperror.NewBadRequest("File is too large. The limit is " + limit + ".")
}

// SaveProfileBasics stores the year level and, when given, the subject list.
func (s *ProfileService) SaveProfileBasics(ctx context.Context, userID int, basics Basics) error {
	err := s.saveProfileBasics(ctx, userID, basics)
	s.metrics.ObserveProfileUpdate("year_level", err)
	return err
}

func (s *ProfileService) saveProfileBasics(ctx context.Context, userID int, basics Basics) error {
	yearLevel := strings.TrimSpace(basics.YearLevel)
	if yearLevel == "" {
		return apperror.NewBadRequest(MsgYearLevelRequired)
	}
	if len(yearLevel) > 20 {
		return apperror.NewValidationError(apperror.FieldError{Field: "year_level", Message: "Field cannot be longer than 20 characters."})
	}

	var subjects *string
	if basics.Subjects != nil {
		joined := strings.Join(*basics.Subjects, ",")
		if len(joined) > 500 {
			return apperror.NewValidationError(apperror.FieldError{Field: "hsc_subjects", Message: "Field cannot be longer than 500 characters."})
		}
		subjects = user.NullableString(joined)
	}

	err := s.tx.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateYearLevel(ctx, tx, userID, yearLevel); err != nil {
			return err
		}
		if basics.Subjects != nil {
			return s.repo.UpdateSubjects(ctx, tx, userID, subjects)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return apperror.NewInternal(err)
		}
		return apperror.NewPersistenceError(err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"year_level": yearLevel,
	}).Info("Saved profile basics")
	return nil
}
