package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pokerfinder/internal/domain/account"
)

// AccountStoreForRegister defines the store interface needed by RegisterAccount.
type AccountStoreForRegister interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
}

// RegisterAccountInput carries input for the orchestrator.
type RegisterAccountInput struct {
	Email       string
	DisplayName string
	Password    string
	Role        string // empty means player; the first account is always admin
}

// RegisterAccountDeps holds dependencies for RegisterAccount.
type RegisterAccountDeps struct {
	AccountStore AccountStoreForRegister
	GenerateID   func() string
	Now          func() time.Time
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ExecuteRegisterAccount creates a player account.
// PRE: Valid email, display name and password >= MinPasswordLength chars
// POST: Account created with hashed password; returns its ID
// INVARIANT: Email must be unique
func ExecuteRegisterAccount(ctx context.Context, input RegisterAccountInput, deps RegisterAccountDeps) (string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := deps.AccountStore.GetByEmail(ctx, email); err == nil {
		return "", ErrEmailAlreadyExists
	}

	role := input.Role
	if role == "" {
		role = account.RolePlayer
	}
	n, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return "", err
	}
	if n == 0 {
		role = account.RoleAdmin
	}

	acct := account.Account{
		ID:          deps.GenerateID(),
		Email:       email,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Role:        role,
		CreatedAt:   deps.Now(),
	}
	if err := acct.Validate(); err != nil {
		return "", err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return "", err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return "", err
	}

	slog.Info("auth_event", "event", "account_registered", "account_id", acct.ID, "role", acct.Role)
	return acct.ID, nil
}

// ExecuteSeedAdmin creates an administrator when no accounts exist yet.
// PRE: email and password satisfy account validation
// POST: No-op when any account exists
func ExecuteSeedAdmin(ctx context.Context, deps RegisterAccountDeps, email, password string) error {
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if _, err := ExecuteRegisterAccount(ctx, RegisterAccountInput{
		Email:       email,
		DisplayName: "Admin",
		Password:    password,
		Role:        account.RoleAdmin,
	}, deps); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return nil
}
