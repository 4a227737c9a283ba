package sandbox

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/security"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/google/uuid"
)

const resetTokenTTL = time.Hour

// User is a sandbox account.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
}

type resetToken struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// Params groups dependencies for the sandbox state.
type Params struct {
	Password    config.PasswordConfig
	ShippingFee types.Money
	Catalog     []products.Product
	Logger      *logger.Logger
	Now         func() time.Time
}

// Store is the in-memory state behind the sandbox API.
type Store struct {
	password config.PasswordConfig
	shipping types.Money
	logg     *logger.Logger
	now      func() time.Time

	mu          sync.Mutex
	users       map[string]*User
	usersByID   map[uuid.UUID]*User
	catalog     []products.Product
	carts       map[uuid.UUID][]cart.Line
	favourites  map[uuid.UUID][]types.ID
	resetTokens map[string]resetToken
}

func NewStore(params Params) *Store {
	s := &Store{
		password:    params.Password,
		shipping:    params.ShippingFee,
		logg:        params.Logger,
		now:         params.Now,
		users:       map[string]*User{},
		usersByID:   map[uuid.UUID]*User{},
		carts:       map[uuid.UUID][]cart.Line{},
		favourites:  map[uuid.UUID][]types.ID{},
		resetTokens: map[string]resetToken{},
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, p := range params.Catalog {
		s.catalog = append(s.catalog, p.Normalize())
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Emails are unique case-insensitively.
func (s *Store) Register(ctx context.Context, name, email, password string) (User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, pkgerrors.New(pkgerrors.CodeValidation, "Name is required.")
	}
	if err := security.ValidateSignupPassword(password); err != nil {
		return User{}, err
	}
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return User{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		return User{}, pkgerrors.New(pkgerrors.CodeConflict, "An account with that email already exists.")
	}
	user := &User{ID: uuid.New(), Name: name, Email: email, PasswordHash: hash}
	s.users[email] = user
	s.usersByID[user.ID] = user
	s.logg.Info(s.logg.WithField(ctx, "user_id", user.ID.String()), "sandbox account registered")
	return *user, nil
}

// Authenticate checks credentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (User, error) {
	s.mu.Lock()
	user, ok := s.users[normalizeEmail(email)]
	var snapshot User
	if ok {
		snapshot = *user
	}
	s.mu.Unlock()

	invalid := pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid email or password.")
	if !ok {
		return User{}, invalid
	}
	match, err := security.VerifyPassword(password, snapshot.PasswordHash)
	if err != nil {
		return User{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		s.logg.Debug(s.logg.WithField(ctx, "user_id", snapshot.ID.String()), "sandbox login rejected")
		return User{}, invalid
	}
	return snapshot, nil
}

func (s *Store) UserByID(id uuid.UUID) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.usersByID[id]
	if !ok {
		return User{}, false
	}
	return *user, true
}

// RequestPasswordReset issues a reset token when the account exists. The
// sandbox has no mailer, so the token is logged.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) (string, bool, error) {
	s.mu.Lock()
	user, ok := s.users[normalizeEmail(email)]
	s.mu.Unlock()
	if !ok {
		return "", false, nil
	}

	token, err := security.GenerateResetToken(32)
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	s.mu.Lock()
	s.resetTokens[token] = resetToken{userID: user.ID, expiresAt: s.now().Add(resetTokenTTL)}
	s.mu.Unlock()

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":     user.ID.String(),
		"reset_token": token,
	}), "sandbox password reset requested")
	return token, true, nil
}

// ResetPassword consumes a reset token.
func (s *Store) ResetPassword(ctx context.Context, token, password string) error {
	if err := security.ValidateSignupPassword(password); err != nil {
		return err
	}
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.resetTokens[token]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.resetTokens, token)
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid or expired reset token.")
	}
	delete(s.resetTokens, token)
	user, ok := s.usersByID[entry.userID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid or expired reset token.")
	}
	user.PasswordHash = hash
	s.logg.Info(s.logg.WithField(ctx, "user_id", user.ID.String()), "sandbox password reset")
	return nil
}
