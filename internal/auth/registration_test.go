package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yourusername/login-system/internal/account"
)

func validRegistration() RegistrationInput {
	return RegistrationInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
}

func TestRegisterCreatesAccount(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	hasher := testHasher()
	metrics := NewMetrics(prometheus.NewRegistry())
	r := NewRegistrar(store, hasher, metrics, testLogger)

	in := validRegistration()
	in.Email = "  Alice@Example.com "
	acc, err := r.Register(ctx, in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if acc.ID == "" {
		t.Fatal("expected store-assigned id")
	}

	byEmail, err := store.FindByEmail(ctx, "alice@example.com")
	if err != nil || byEmail == nil || byEmail.ID != acc.ID {
		t.Fatalf("lookup by email = (%#v, %v)", byEmail, err)
	}
	byName, err := store.FindByUsername(ctx, "alice")
	if err != nil || byName == nil || byName.ID != acc.ID {
		t.Fatalf("lookup by username = (%#v, %v)", byName, err)
	}
	if byName.PasswordHash == "secret123" || !hasher.Verify("secret123", byName.PasswordHash) {
		t.Fatal("stored password must be a verifiable hash, not plaintext")
	}
	if got := testutil.ToFloat64(metrics.Registrations.WithLabelValues(resultSuccess)); got != 1 {
		t.Fatalf("success counter = %v", got)
	}
}

func TestRegisterPasswordMismatchSkipsStore(t *testing.T) {
	store := newCountingStore()
	r := NewRegistrar(store, testHasher(), nil, testLogger)

	in := validRegistration()
	in.ConfirmPassword = "different"
	_, err := r.Register(context.Background(), in)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if msgs := verr.For(FieldConfirmPassword); len(msgs) != 1 || msgs[0] != "Passwords must match." {
		t.Fatalf("unexpected confirm messages: %#v", msgs)
	}
	if n := store.calls.Load(); n != 0 {
		t.Fatalf("store was called %d times, want 0", n)
	}
}

func TestRegisterStructuralValidation(t *testing.T) {
	cases := []struct {
		name  string
		input RegistrationInput
		field string
		msg   string
	}{
		{"username too short", RegistrationInput{Username: "a", Email: "a@b.co", Password: "x", ConfirmPassword: "x"}, FieldUsername, "between 2 and 20"},
		{"username too long", RegistrationInput{Username: strings.Repeat("a", 21), Email: "a@b.co", Password: "x", ConfirmPassword: "x"}, FieldUsername, "between 2 and 20"},
		{"username blank after trim", RegistrationInput{Username: "   ", Email: "a@b.co", Password: "x", ConfirmPassword: "x"}, FieldUsername, "required"},
		{"bad email", RegistrationInput{Username: "alice", Email: "not-an-email", Password: "x", ConfirmPassword: "x"}, FieldEmail, "Invalid email"},
		{"missing password", RegistrationInput{Username: "alice", Email: "a@b.co"}, FieldPassword, "required"},
		{"password too long", RegistrationInput{Username: "alice", Email: "a@b.co", Password: strings.Repeat("p", 73), ConfirmPassword: strings.Repeat("p", 73)}, FieldPassword, "72 bytes"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newCountingStore()
			r := NewRegistrar(store, testHasher(), nil, testLogger)
			_, err := r.Register(context.Background(), tc.input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			msgs := verr.For(tc.field)
			if len(msgs) == 0 || !strings.Contains(msgs[0], tc.msg) {
				t.Fatalf("messages for %s = %#v, want containing %q", tc.field, msgs, tc.msg)
			}
			if store.calls.Load() != 0 {
				t.Fatal("structural failures must not touch the store")
			}
		})
	}
}

func TestRegisterTwentyRuneUsernameAccepted(t *testing.T) {
	r := NewRegistrar(newCountingStore(), testHasher(), nil, testLogger)
	in := validRegistration()
	in.Username = strings.Repeat("ä", 20)
	if _, err := r.Register(context.Background(), in); err != nil {
		t.Fatalf("20-character username rejected: %v", err)
	}
}

func TestRegisterReportsBothConflicts(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	r := NewRegistrar(store, testHasher(), nil, testLogger)
	if _, err := r.Register(ctx, validRegistration()); err != nil {
		t.Fatal(err)
	}

	_, err := r.Register(ctx, validRegistration())
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if got := conflict.For(FieldUsername); len(got) != 1 || got[0] != MsgUsernameTaken {
		t.Fatalf("username messages = %#v", got)
	}
	if got := conflict.For(FieldEmail); len(got) != 1 || got[0] != MsgEmailTaken {
		t.Fatalf("email messages = %#v", got)
	}
	if n := store.creates.Load(); n != 1 {
		t.Fatalf("conflicting registration must not insert; creates = %d", n)
	}
}

func TestRegisterEmailConflictOnly(t *testing.T) {
	ctx := context.Background()
	r := NewRegistrar(newCountingStore(), testHasher(), nil, testLogger)
	if _, err := r.Register(ctx, validRegistration()); err != nil {
		t.Fatal(err)
	}

	in := validRegistration()
	in.Username = "alice2"
	_, err := r.Register(ctx, in)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(conflict.For(FieldUsername)) != 0 {
		t.Fatal("username is free and must not be reported")
	}
	if got := conflict.For(FieldEmail); len(got) != 1 || !strings.Contains(got[0], "already in use") {
		t.Fatalf("email messages = %#v", got)
	}
}

func TestRegisterStorageDuplicateBecomesConflict(t *testing.T) {
	store := newCountingStore()
	store.createErr = &account.DuplicateKeyError{Field: account.FieldEmail}
	r := NewRegistrar(store, testHasher(), nil, testLogger)

	_, err := r.Register(context.Background(), validRegistration())
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError from storage constraint, got %v", err)
	}
	if got := conflict.For(FieldEmail); len(got) != 1 {
		t.Fatalf("email messages = %#v", got)
	}
}

func TestRegisterStorageFailure(t *testing.T) {
	store := newCountingStore()
	store.findErr = errStoreDown
	r := NewRegistrar(store, testHasher(), nil, testLogger)

	_, err := r.Register(context.Background(), validRegistration())
	if !IsStorageError(err) || !errors.Is(err, errStoreDown) {
		t.Fatalf("expected StorageError wrapping store failure, got %v", err)
	}
}
