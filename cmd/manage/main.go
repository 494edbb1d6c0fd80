package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"sukesh_education/internal/auth"
	"sukesh_education/internal/config"
	"sukesh_education/internal/db"
	"sukesh_education/internal/handler"
	"sukesh_education/internal/observability"
	"sukesh_education/internal/user"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	app := &cli.App{
		Name:  "manage",
		Usage: "database and account maintenance",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "apply pending schema migrations",
				Action: migrate,
			},
			{
				Name:  "reset-db",
				Usage: "drop and recreate every table (all data is lost)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"},
				},
				Action: resetDB,
			},
			{
				Name:   "seed",
				Usage:  "create the demo account " + user.TestUserEmail,
				Action: seed,
			},
			{
				Name:   "purge-sessions",
				Usage:  "delete expired rows from the sessions table",
				Action: purgeSessions,
			},
			{
				Name:  "create-user",
				Usage: "create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "password", Usage: "prompted for when omitted", EnvVars: []string{"MANAGE_PASSWORD"}},
				},
				Action: createUser,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("Command failed")
	}
}

func withDB(fn func(cfg *config.Config, database *sqlx.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	database, err := db.Connect(&cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	return fn(cfg, database)
}

func migrate(c *cli.Context) error {
	return withDB(func(cfg *config.Config, database *sqlx.DB) error {
		if err := db.Migrate(c.Context, database); err != nil {
			return err
		}
		version, err := db.Version(c.Context, database)
		if err != nil {
			return err
		}
		fmt.Printf("Schema at version %d\n", version)
		return nil
	})
}

func resetDB(c *cli.Context) error {
	if !c.Bool("yes") {
		fmt.Print("This deletes every account. Type 'yes' to continue: ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			return errors.New("aborted")
		}
	}

	return withDB(func(cfg *config.Config, database *sqlx.DB) error {
		return db.Reset(c.Context, database)
	})
}

func seed(c *cli.Context) error {
	return withDB(func(cfg *config.Config, database *sqlx.DB) error {
		if err := db.Migrate(c.Context, database); err != nil {
			return err
		}
		_, err := user.SeedTestUser(c.Context, newUserService(cfg, database))
		return err
	})
}

func purgeSessions(c *cli.Context) error {
	return withDB(func(cfg *config.Config, database *sqlx.DB) error {
		removed, err := auth.NewSQLSessionStore(database).DeleteExpired(c.Context)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired sessions\n", removed)
		return nil
	})
}

func createUser(c *cli.Context) error {
	password := c.String("password")
	if password == "" {
		var err error
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	return withDB(func(cfg *config.Config, database *sqlx.DB) error {
		u, err := newUserService(cfg, database).EnsureUser(c.Context, c.String("email"), c.String("name"), password)
		if err != nil {
			return err
		}
		fmt.Printf("User %d: %s\n", u.ID, u.Email)
		return nil
	})
}

func newUserService(cfg *config.Config, database *sqlx.DB) user.UserServiceInterface {
	// Offline tool: no Redis, no broker
	return handler.NewUserService(database, nil, nil, cfg, observability.NewMetrics(prometheus.NewRegistry()))
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Print("Confirm password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
