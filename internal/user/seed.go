package user

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Demo account created by `manage seed` and on desktop start.
const (
	TestUserEmail    = "test@example.com"
	TestUserName     = "Test User"
	TestUserPassword = "password123"
)

// SeedTestUser makes sure the demo account exists.
func SeedTestUser(ctx context.Context, svc UserServiceInterface) (*User, error) {
	u, err := svc.EnsureUser(ctx, TestUserEmail, TestUserName, TestUserPassword)
	if err != nil {
		return nil, err
	}
	logrus.WithField("email", TestUserEmail).Info("Test user available")
	return u, nil
}
