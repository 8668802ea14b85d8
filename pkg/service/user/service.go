// Package user implements account lifecycle: signup, login with opaque
// bearer-token issuance, logout, and cache-backed lookup.
package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaiwa-dev/kaiwa/pkg/config"
	"github.com/kaiwa-dev/kaiwa/pkg/observability/logger"
	"github.com/kaiwa-dev/kaiwa/pkg/query"
	"github.com/kaiwa-dev/kaiwa/pkg/repository"
	"github.com/kaiwa-dev/kaiwa/pkg/session"
)

var (
	// ErrAlreadyExists indicates a signup name or email collision.
	ErrAlreadyExists = errors.New("user already exists with email or name")
	// ErrNotFound indicates no account matches the given identity.
	ErrNotFound = errors.New("user not found")
	// ErrPasswordMismatch indicates the password does not verify.
	ErrPasswordMismatch = errors.New("password does not match")
)

// Tokens mix digits with lower- and uppercase letters.
const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Collection is the logical collection accounts live in.
var Collection = repository.NewCollection("user")

// User is an account document. Password holds the bcrypt hash and is
// stripped from everything the service returns.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresAt int64  `json:"expiresAt"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// SignupInput is the data required to open an account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// FindOptions controls lookup behavior.
type FindOptions struct {
	// CacheEnabled consults the session cache before the document store and
	// populates it on a store hit.
	CacheEnabled bool
}

// Service implements account operations on top of the document repository,
// with the session cache short-circuiting repeat lookups.
type Service struct {
	repo  *repository.Repository
	cache session.Cache
	cfg   config.AuthConfig
	log   logger.Logger
	now   func() time.Time
}

// NewService creates a user Service.
func NewService(repo *repository.Repository, cache session.Cache, cfg config.AuthConfig, log logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("session cache is required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:  repo,
		cache: cache,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}, nil
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Signup opens an account. The name and email must both be unused; the
// password is stored as a bcrypt hash. Returns the created user without
// the password.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	_, found, err := s.repo.ConditionalFindOne(ctx, Collection, query.ConditionalQuery{
		Where: query.Conditional{
			Or: []query.Predicate{
				query.Eq("name", in.Name),
				query.Eq("email", in.Email),
			},
		},
	})
	if err != nil {
		return User{}, fmt.Errorf("failed to check for existing user: %w", err)
	}
	if found {
		return User{}, ErrAlreadyExists
	}

	cost := s.cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), cost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	doc, err := s.repo.Create(ctx, Collection, repository.Document{
		"name":      in.Name,
		"email":     in.Email,
		"password":  string(hash),
		"token":     "",
		"expiresAt": int64(0),
	}, repository.CreateOptions{DocumentID: "USER-" + uuid.NewString()})
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}

	u := fromDocument(doc)
	u.Password = ""
	return u, nil
}

// Login verifies the password for the account registered under email, issues
// a fresh token valid for the configured TTL, and returns the refreshed user
// without the password.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	doc, found, err := s.repo.FindOne(ctx, Collection, query.Query{
		Where: []query.Predicate{query.Eq("email", email)},
	})
	if err != nil {
		return User{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if !found {
		return User{}, ErrNotFound
	}
	u := fromDocument(doc)

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return User{}, ErrPasswordMismatch
	}

	token, err := generateToken(s.cfg.TokenLength)
	if err != nil {
		return User{}, fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.repo.UpdateByID(ctx, Collection, u.ID, repository.Document{
		"token":     token,
		"expiresAt": s.now().Add(s.cfg.TokenTTL).Unix(),
	}); err != nil {
		return User{}, fmt.Errorf("failed to store token: %w", err)
	}

	refreshed, found, err := s.repo.FindByID(ctx, Collection, u.ID)
	if err != nil {
		return User{}, fmt.Errorf("failed to reload user: %w", err)
	}
	if !found {
		return User{}, ErrNotFound
	}

	out := fromDocument(refreshed)
	out.Password = ""
	return out, nil
}

// Logout revokes the account's token and drops its cached session entry.
func (s *Service) Logout(ctx context.Context, id string) error {
	err := s.repo.UpdateByID(ctx, Collection, id, repository.Document{
		"token":     "",
		"expiresAt": int64(0),
	})
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if err := s.cache.Del(ctx, session.UserKey(id)); err != nil {
		s.log.Warn("failed to drop cached session", "userId", id, "error", err)
	}
	return nil
}

// FindByID fetches an account by id, consulting the session cache first when
// enabled. The password never leaves the service; the token does, so callers
// can verify credentials.
func (s *Service) FindByID(ctx context.Context, id string, opts FindOptions) (User, bool, error) {
	key := session.UserKey(id)
	if opts.CacheEnabled {
		var cached User
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			return User{}, false, fmt.Errorf("failed to read session cache: %w", err)
		}
		if hit {
			return cached, true, nil
		}
	}

	doc, found, err := s.repo.FindByID(ctx, Collection, id)
	if err != nil {
		return User{}, false, fmt.Errorf("failed to find user: %w", err)
	}
	if !found {
		return User{}, false, nil
	}

	u := fromDocument(doc)
	u.Password = ""
	if opts.CacheEnabled {
		if err := s.cache.Set(ctx, key, u); err != nil {
			s.log.Warn("failed to populate session cache", "userId", id, "error", err)
		}
	}
	return u, true, nil
}

func fromDocument(doc repository.Document) User {
	return User{
		ID:        asString(doc["id"]),
		Name:      asString(doc["name"]),
		Email:     asString(doc["email"]),
		Password:  asString(doc["password"]),
		Token:     asString(doc["token"]),
		ExpiresAt: asInt64(doc["expiresAt"]),
		CreatedAt: asInt64(doc["createdAt"]),
		UpdatedAt: asInt64(doc["updatedAt"]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// generateToken returns a random token of the given length drawn from the
// mixed alphabet.
func generateToken(length int) (string, error) {
	if length <= 0 {
		length = 128
	}
	max := big.NewInt(int64(len(tokenAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tokenAlphabet[n.Int64()]
	}
	return string(out), nil
}
