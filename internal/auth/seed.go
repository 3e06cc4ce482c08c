package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SeedAdmin makes sure username exists and holds the Admin role.
// It is idempotent: an existing user keeps their ID, and an existing
// profile is promoted to Admin if needed. Returns the admin's user ID.
func SeedAdmin(ctx context.Context, users UserRepository, roles RoleRepository, profiles ProfileRepository, username, email string, logger *slog.Logger) (string, error) {
	if username == "" {
		return "", nil
	}

	adminRole, err := roles.GetByName(ctx, RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("loading admin role: %w", err)
	}

	user, err := users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrUserNotFound):
		user = &User{Username: username, Email: email}
		if err := users.Create(ctx, user); err != nil {
			return "", fmt.Errorf("creating bootstrap admin: %w", err)
		}
		logger.Warn("bootstrap admin user created", "username", username, "user_id", user.ID)
	case err != nil:
		return "", fmt.Errorf("loading bootstrap admin: %w", err)
	}

	profile, err := profiles.GetByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		profile = &Profile{UserID: user.ID, RoleID: adminRole.ID, DisplayName: "Bootstrap administrator"}
		if err := profiles.Create(ctx, profile); err != nil {
			return "", fmt.Errorf("creating bootstrap admin profile: %w", err)
		}
		logger.Info("bootstrap admin profile created", "user_id", user.ID)
	case err != nil:
		return "", fmt.Errorf("loading bootstrap admin profile: %w", err)
	case profile.RoleID != adminRole.ID:
		profile.RoleID = adminRole.ID
		if err := profiles.Update(ctx, profile); err != nil {
			return "", fmt.Errorf("promoting bootstrap admin: %w", err)
		}
		logger.Warn("bootstrap admin profile promoted to admin", "user_id", user.ID)
	default:
		logger.Info("bootstrap admin present, skipping seed", "user_id", user.ID)
	}

	return user.ID, nil
}
