package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"pokerfinder/internal/domain/account"
)

func loginFixture(t *testing.T) (*mockAccountStore, LoginDeps, *time.Time) {
	t.Helper()
	a := account.Account{ID: "a1", Email: "ace@example.com", DisplayName: "Ace", Role: account.RolePlayer}
	if err := a.SetPassword("correct horse"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	store := newMockAccountStore(a)
	now := time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)
	deps := LoginDeps{AccountStore: store, Now: func() time.Time { return now }}
	return store, deps, &now
}

// TestExecuteLogin_Success returns the account identity.
func TestExecuteLogin_Success(t *testing.T) {
	_, deps, _ := loginFixture(t)
	res, err := ExecuteLogin(context.Background(), LoginInput{Email: "ace@example.com", Password: "correct horse"}, deps)
	if err != nil {
		t.Fatalf("ExecuteLogin: %v", err)
	}
	if res.AccountID != "a1" || res.DisplayName != "Ace" || res.Role != account.RolePlayer {
		t.Errorf("result = %+v", res)
	}
}

// TestExecuteLogin_Lockout locks after repeated failures and unlocks later.
func TestExecuteLogin_Lockout(t *testing.T) {
	store, deps, now := loginFixture(t)
	bad := LoginInput{Email: "ace@example.com", Password: "wrong password"}
	for i := 0; i < account.MaxFailedLogins; i++ {
		if _, err := ExecuteLogin(context.Background(), bad, deps); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}
	good := LoginInput{Email: "ace@example.com", Password: "correct horse"}
	if _, err := ExecuteLogin(context.Background(), good, deps); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("locked: err = %v, want ErrAccountLocked", err)
	}

	*now = now.Add(account.LockoutDuration)
	if _, err := ExecuteLogin(context.Background(), good, deps); err != nil {
		t.Fatalf("after lockout: %v", err)
	}
	if a := store.accounts["a1"]; a.FailedLogins != 0 || !a.LockedUntil.IsZero() {
		t.Errorf("counter not reset: %+v", a)
	}
}

// TestExecuteLogin_Unknown hides whether the email exists.
func TestExecuteLogin_Unknown(t *testing.T) {
	_, deps, _ := loginFixture(t)
	if _, err := ExecuteLogin(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever123"}, deps); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v", err)
	}
	if _, err := ExecuteLogin(context.Background(), LoginInput{}, deps); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("empty: err = %v", err)
	}
}

// TestExecuteRegisterAccount covers first-admin, duplicates and validation.
func TestExecuteRegisterAccount(t *testing.T) {
	store := newMockAccountStore()
	n := 0
	deps := RegisterAccountDeps{
		AccountStore: store,
		GenerateID:   func() string { n++; return string(rune('a'+n-1)) + "-id" },
		Now:          func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) },
	}
	ctx := context.Background()

	id, err := ExecuteRegisterAccount(ctx, RegisterAccountInput{Email: " Boss@Example.com ", DisplayName: "Boss", Password: "long enough pw"}, deps)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if a := store.accounts[id]; a.Role != account.RoleAdmin || a.Email != "boss@example.com" {
		t.Errorf("first account = %+v, want admin", a)
	}

	id, err = ExecuteRegisterAccount(ctx, RegisterAccountInput{Email: "p@example.com", DisplayName: "P", Password: "long enough pw"}, deps)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if store.accounts[id].Role != account.RolePlayer {
		t.Errorf("second account role = %s", store.accounts[id].Role)
	}

	if _, err := ExecuteRegisterAccount(ctx, RegisterAccountInput{Email: "P@example.com", DisplayName: "Q", Password: "long enough pw"}, deps); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Errorf("duplicate: err = %v", err)
	}
	if _, err := ExecuteRegisterAccount(ctx, RegisterAccountInput{Email: "q@example.com", DisplayName: "Q", Password: "short"}, deps); !errors.Is(err, account.ErrPasswordTooShort) {
		t.Errorf("short password: err = %v", err)
	}
	if _, err := ExecuteRegisterAccount(ctx, RegisterAccountInput{Email: "r@example.com", Password: "long enough pw"}, deps); !errors.Is(err, account.ErrEmptyDisplayName) {
		t.Errorf("no display name: err = %v", err)
	}
}

// TestExecuteSeedAdmin seeds only into an empty store.
func TestExecuteSeedAdmin(t *testing.T) {
	store := newMockAccountStore()
	deps := RegisterAccountDeps{
		AccountStore: store,
		GenerateID:   func() string { return "admin-id" },
		Now:          time.Now,
	}
	if err := ExecuteSeedAdmin(context.Background(), deps, "ops@example.com", "long enough pw"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if a := store.accounts["admin-id"]; !a.IsAdmin() || a.DisplayName != "Admin" {
		t.Errorf("seeded = %+v", a)
	}
	deps.GenerateID = func() string { return "second" }
	if err := ExecuteSeedAdmin(context.Background(), deps, "other@example.com", "long enough pw"); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if len(store.accounts) != 1 {
		t.Errorf("reseed created an account: %d", len(store.accounts))
	}
}
