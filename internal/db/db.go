package db

import (
	"fmt"
	"time"

	"sukesh_education/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const maxRetries = 5

// Connect opens the configured database and retries the ping with a linear backoff.
func Connect(dbCfg *config.DBConfig) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Open(dbCfg.Driver, dbCfg.DSN())
		if err != nil {
			logrus.WithError(err).Warnf("Failed to open database connection (attempt %d/%d)", i+1, maxRetries)
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		if err = db.Ping(); err != nil {
			logrus.WithError(err).Warnf("Failed to ping database (attempt %d/%d)", i+1, maxRetries)
			if err := db.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close database connection")
			}
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		break
	}

	if err != nil {
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", dbCfg.Driver, maxRetries, err)
	}

	if dbCfg.Driver == "sqlite3" {
		// SQLite serialises writers; one connection avoids SQLITE_BUSY between tx and reads.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(100)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	logrus.WithField("driver", dbCfg.Driver).Info("Database connection established successfully")
	return db, nil
}

// Init is Connect for binaries that cannot run without a database.
func Init(dbCfg *config.DBConfig) *sqlx.DB {
	db, err := Connect(dbCfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	return db
}
