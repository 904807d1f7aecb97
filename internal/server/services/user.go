// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and profile settings.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/server/auth"
	"github.com/truthmate/truthmate/internal/server/config"
	"github.com/truthmate/truthmate/internal/server/models"
	"github.com/truthmate/truthmate/internal/server/repositories/repomanager"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// dummyHash is compared against when the email is unknown so both login
// failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("truthmate-dummy-password")
	return h
})

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// RegisterInput carries registration fields. Empty strings mean "absent".
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// ProfileUpdate carries optional settings changes; nil fields are untouched.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint a session token
// - Profile / UpdateProfile: settings page
type UserService struct {
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte
	sessionTTL  time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		repomanager: m,
		jwtSecret:   []byte(cfg.SecretKey),
		sessionTTL:  cfg.SessionTTL,
	}
}

// Register validates in, hashes the password and stores the user. An email
// already registered (compared lowercased) yields common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := models.NormalizeEmail(in.Email)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, common.MissingFields(missing...)
	}

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(in.Password) < models.MinPasswordLength {
		return nil, common.InvalidField("password", "password must be at least %d characters", models.MinPasswordLength)
	}
	if len(in.Password) > models.MaxPasswordLength {
		return nil, common.InvalidField("password", "password must be at most %d bytes", models.MaxPasswordLength)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hashing password: %w", common.ErrorInternal, err)
	}

	u, err := s.repomanager.Users().Create(ctx, &models.User{Name: name, Email: email, Password: hash})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks the credentials and issues a session token. Unknown email and
// wrong password are indistinguishable: both return common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		var missing []string
		if email == "" {
			missing = append(missing, "email")
		}
		if password == "" {
			missing = append(missing, "password")
		}
		return nil, common.MissingFields(missing...)
	}

	// No stored hash can match a password bcrypt refuses to hash.
	if len(password) > models.MaxPasswordLength {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = auth.CheckPassword(dummyHash(), password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	ok, err := auth.CheckPassword(user.Password, password)
	if err != nil {
		return nil, fmt.Errorf("%w: checking password: %w", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	token, expiresAt, err := auth.GenerateToken(user.ID, s.jwtSecret, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: signing token: %w", common.ErrorInternal, err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a session token to a user id without touching storage.
func (s *UserService) Authenticate(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repomanager.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of upd with the same validation
// as registration. Taking another user's email yields common.ErrorConflict.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	u, err := s.repomanager.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, common.InvalidField("name", "name must not be empty")
		}
		if err := validateName(name); err != nil {
			return nil, err
		}
		u.Name = name
	}
	if upd.Email != nil {
		email := models.NormalizeEmail(*upd.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		u.Email = email
	}

	updated, err := s.repomanager.Users().Update(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return updated, nil
}

func validateName(name string) error {
	if utf8.RuneCountInString(name) > models.MaxNameLength {
		return common.InvalidField("name", "name must be at most %d characters", models.MaxNameLength)
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > models.MaxEmailLength {
		return common.InvalidField("email", "email must be at most %d characters", models.MaxEmailLength)
	}
	if !emailPattern.MatchString(email) {
		return common.InvalidField("email", "invalid email address")
	}
	return nil
}
