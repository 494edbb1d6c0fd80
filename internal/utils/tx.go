package utils

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type SQLTransactor struct {
	DB *sqlx.DB
}

func NewTransactor(db *sqlx.DB) Transactor {
	return &SQLTransactor{DB: db}
}

func (t *SQLTransactor) WithinTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return WithTransaction(ctx, t.DB, fn)
}

// WithTransaction commits when fn returns nil and rolls back on error or panic.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	logrus.Debug("Transaction started")

	defer func() {
		if r := recover(); r != nil {
			logrus.Warn("Panic occurred, rolling back transaction")
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		logrus.WithError(err).Debug("Error occurred, rolling back transaction")
		return err
	}

	if err := tx.Commit(); err != nil {
		logrus.WithError(err).Error("Failed to commit transaction")
		return err
	}

	logrus.Debug("Transaction committed successfully")
	return nil
}
