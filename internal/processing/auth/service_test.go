package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	insertFn      func(ctx context.Context, email, passwordHash string) (*User, error)
	findByEmailFn func(ctx context.Context, email string) (*User, string, error)
}

func (m *mockUserRepo) Insert(ctx context.Context, email, passwordHash string) (*User, error) {
	if m.insertFn == nil {
		return &User{ID: 1, Email: email, CreatedAt: time.Now()}, nil
	}
	return m.insertFn(ctx, email, passwordHash)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, string, error) {
	if m.findByEmailFn == nil {
		return nil, "", ErrUserNotFound
	}
	return m.findByEmailFn(ctx, email)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(hash)
}

func TestRegister_NormalizesEmailAndHashesPassword(t *testing.T) {
	var gotEmail, gotHash string
	repo := &mockUserRepo{
		insertFn: func(_ context.Context, email, passwordHash string) (*User, error) {
			gotEmail, gotHash = email, passwordHash
			return &User{ID: 1, Email: email}, nil
		},
	}
	svc := NewService(repo, "test-secret", time.Hour)

	user, err := svc.Register(context.Background(), "  Alice@Example.COM  ", "s3cretpass")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != 1 {
		t.Errorf("got user ID %d, want 1", user.ID)
	}
	if gotEmail != "alice@example.com" {
		t.Errorf("got email %q, want lowercased trimmed form", gotEmail)
	}
	if gotHash == "s3cretpass" {
		t.Error("password was stored in the clear")
	}
	if bcrypt.CompareHashAndPassword([]byte(gotHash), []byte("s3cretpass")) != nil {
		t.Error("stored hash does not verify against the original password")
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	repo := &mockUserRepo{
		insertFn: func(_ context.Context, _, _ string) (*User, error) {
			return nil, ErrEmailTaken
		},
	}
	svc := NewService(repo, "test-secret", time.Hour)

	_, err := svc.Register(context.Background(), "alice@example.com", "s3cretpass")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got: %v", err)
	}
}

func TestLoginAndVerify_RoundTrip(t *testing.T) {
	hash := mustHash(t, "s3cretpass")
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*User, string, error) {
			return &User{ID: 42, Email: email}, hash, nil
		},
	}
	svc := NewService(repo, "test-secret", time.Hour)

	token, user, err := svc.Login(context.Background(), "alice@example.com", "s3cretpass")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != 42 {
		t.Errorf("got user ID %d, want 42", user.ID)
	}

	identity, err := svc.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if identity.ID != 42 || identity.Email != "alice@example.com" {
		t.Errorf("got identity %+v, want ID 42 with the login email", identity)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash := mustHash(t, "s3cretpass")
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*User, string, error) {
			return &User{ID: 42, Email: email}, hash, nil
		},
	}
	svc := NewService(repo, "test-secret", time.Hour)

	_, _, err := svc.Login(context.Background(), "alice@example.com", "wrongpass")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestLogin_UnknownEmailIndistinguishableFromBadPassword(t *testing.T) {
	svc := NewService(&mockUserRepo{}, "test-secret", time.Hour)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	hash := mustHash(t, "s3cretpass")
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*User, string, error) {
			return &User{ID: 42, Email: email}, hash, nil
		},
	}
	svc := NewService(repo, "test-secret", time.Minute)
	issuedAt := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	token, _, err := svc.Login(context.Background(), "alice@example.com", "s3cretpass")
	if err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for an expired token, got: %v", err)
	}
}

func TestVerify_GarbageToken(t *testing.T) {
	svc := NewService(&mockUserRepo{}, "test-secret", time.Hour)

	if _, err := svc.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got: %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	hash := mustHash(t, "s3cretpass")
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*User, string, error) {
			return &User{ID: 42, Email: email}, hash, nil
		},
	}
	issuer := NewService(repo, "secret-a", time.Hour)
	verifier := NewService(repo, "secret-b", time.Hour)

	token, _, err := issuer.Login(context.Background(), "alice@example.com", "s3cretpass")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for a foreign signature, got: %v", err)
	}
}
