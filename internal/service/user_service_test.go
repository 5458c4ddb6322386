package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Hritabrataghosh/neon-tasks/internal/domain"
)

type fakeUserRepo struct {
	byEmail map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]domain.User)}
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

func (f *fakeUserRepo) Create(_ context.Context, u domain.User) (domain.User, error) {
	if _, exists := f.byEmail[u.Email]; exists {
		// same shape the unique email index produces
		return domain.User{}, mongo.WriteException{
			WriteErrors: []mongo.WriteError{{Code: 11000}},
		}
	}
	u.ID = primitive.NewObjectID()
	f.byEmail[u.Email] = u
	return u, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	u, err := svc.Register(ctx, "neo", "Neo@Example.com", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID.IsZero() {
		t.Error("registered user must have an id")
	}
	if u.Email != "neo@example.com" {
		t.Errorf("email = %q, want lowercased", u.Email)
	}
	if u.PasswordHash == "correct horse" || !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Error("password must be stored as a bcrypt hash")
	}

	// login is case-insensitive on email
	got, err := svc.ValidateCredentials(ctx, "NEO@example.COM", "correct horse")
	if err != nil {
		t.Fatalf("ValidateCredentials: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("logged in as %s, want %s", got.ID.Hex(), u.ID.Hex())
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "neo", "neo@example.com", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cases := []struct {
		name            string
		email, password string
	}{
		{"wrong password", "neo@example.com", "battery staple"},
		{"unknown email", "ghost@example.com", "correct horse"},
		{"empty password", "neo@example.com", ""},
		{"empty email", "", "correct horse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ValidateCredentials(ctx, tc.email, tc.password); err != ErrInvalidCredentials {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "first", "shared@example.com", "password-one"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	// normalization means differently-cased emails collide too
	if _, err := svc.Register(ctx, "second", "Shared@Example.com", "password-two"); err != ErrEmailTaken {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterRejectsBlankFields(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	cases := []struct {
		name                      string
		username, email, password string
	}{
		{"blank username", "  ", "a@example.com", "pw"},
		{"blank email", "neo", "   ", "pw"},
		{"blank password", "neo", "a@example.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.username, tc.email, tc.password); err != ErrInvalidCredentials {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestRegisterTrimsUsername(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	u, err := svc.Register(context.Background(), "  neo  ", "neo@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Username != "neo" {
		t.Errorf("username = %q, want trimmed", u.Username)
	}
	if u.CreatedAt.IsZero() || u.CreatedAt.After(time.Now().Add(time.Minute)) {
		t.Errorf("createdAt = %v", u.CreatedAt)
	}
}
