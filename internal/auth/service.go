// Package auth decides whether callers may log in, register, or change
// their password, on top of the user store.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"userweb/internal/logging"
	"userweb/internal/password"
	"userweb/internal/store"
)

type Service struct {
	db  *sql.DB
	log logging.Logger

	// Compared against when the username is unknown, so both failure
	// branches of Authenticate pay for one bcrypt comparison.
	dummyHash string
}

func NewService(db *sql.DB, log logging.Logger) *Service {
	dummy, err := password.Hash(uuid.NewString())
	if err != nil {
		// Verify fails closed on an empty hash; only the timing
		// leveling degrades.
		log.Warn(context.Background(), "failed to precompute dummy hash", "error", err)
	}

	return &Service{db: db, log: log, dummyHash: dummy}
}

// Authenticate checks username and password against the store. Unknown
// user and wrong password both come back as ErrAuthFailed.
func (s *Service) Authenticate(ctx context.Context, username, plain string) (*store.User, error) {
	users := store.NewUserRepo(s.db)

	u, err := users.GetByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		password.Verify(s.dummyHash, plain)
		return nil, ErrAuthFailed
	}
	if err != nil {
		return nil, err
	}

	if !password.Verify(u.PasswordHash, plain) {
		return nil, ErrAuthFailed
	}

	s.log.Info(ctx, "user authenticated", "username", u.Username)
	return u, nil
}

// Register creates a user with the requested roles in one transaction.
// Every requested role must exist; otherwise nothing is written and an
// UnknownRoleError names the offender. A duplicate username yields
// store.ErrUsernameTaken.
func (s *Service) Register(ctx context.Context, username, plain string, roles []string) (*store.User, error) {
	hash, err := password.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	u := &store.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
	}

	err = store.WithTx(ctx, s.db, func(ctx context.Context, tx store.DBTX) error {
		roleRepo := store.NewRoleRepo(tx)

		resolved := make([]store.Role, 0, len(roles))
		for _, name := range roles {
			role, err := roleRepo.GetByName(ctx, name)
			if errors.Is(err, store.ErrNotFound) {
				return &UnknownRoleError{Role: name}
			}
			if err != nil {
				return err
			}
			resolved = append(resolved, *role)
		}

		if err := store.NewUserRepo(tx).Create(ctx, u); err != nil {
			return err
		}

		for _, role := range resolved {
			if err := roleRepo.Assign(ctx, u.ID, role.ID); err != nil {
				return err
			}
			u.Roles = append(u.Roles, role.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "username", u.Username, "roles", u.Roles)
	return u, nil
}

// ChangePassword re-verifies the caller's current password before
// overwriting the stored hash.
func (s *Service) ChangePassword(ctx context.Context, username, current, newPlain string) error {
	users := store.NewUserRepo(s.db)

	u, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if !password.Verify(u.PasswordHash, current) {
		return ErrWrongCurrentPassword
	}

	hash, err := password.Hash(newPlain)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}

	if err := users.UpdatePassword(ctx, username, hash); err != nil {
		return err
	}

	s.log.Info(ctx, "password changed", "username", username)
	return nil
}

// ListUsers returns all users with their roles, for the listing page.
func (s *Service) ListUsers(ctx context.Context) ([]store.User, error) {
	return store.NewUserRepo(s.db).List(ctx)
}

// ListRoles returns the assignable roles, for the registration form.
func (s *Service) ListRoles(ctx context.Context) ([]store.Role, error) {
	return store.NewRoleRepo(s.db).List(ctx)
}

// Bootstrap creates the initial admin account when the users table is
// empty. Registration requires a logged-in session, so the first
// account has to come from somewhere else.
func (s *Service) Bootstrap(ctx context.Context, username, plain string) error {
	if username == "" || plain == "" {
		return nil
	}

	n, err := store.NewUserRepo(s.db).Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if _, err := s.Register(ctx, username, plain, []string{"admin"}); err != nil {
		return fmt.Errorf("auth: bootstrap admin: %w", err)
	}
	return nil
}
