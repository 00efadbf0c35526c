package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/pcnexus-api/internal/common"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour

	// RoleCustomer is granted to every registered user.
	RoleCustomer = "customer"
	// RoleAdmin gates staff endpoints.
	RoleAdmin = "admin"
)

// User is the client-safe view of an account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	FullName  string    `json:"fullName,omitempty"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName prefers the full name over the username.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName
	}
	return u.Username
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=150,alphanumunicode"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"omitempty,min=6,max=20"`
	FullName string `json:"fullName" validate:"omitempty,max=200"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// Session is the token pair returned by login and refresh.
type Session struct {
	User          *User     `json:"user,omitempty"`
	AccessToken   string    `json:"accessToken"`
	AccessExpiry  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken  string    `json:"refreshToken"`
	RefreshExpiry time.Time `json:"refreshTokenExpiresAt"`
}

// Config configures the auth service.
type Config struct {
	Store           Store
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
	ClockSkew       time.Duration
}

// Service coordinates registration, login and token lifecycle.
type Service struct {
	store      Store
	tokens     Tokens
	refreshTTL time.Duration
	now        func() time.Time
	validate   *validator.Validate
}

// NewService constructs a Service with defaults for unset durations.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("auth: store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "pcnexus-api"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "pcnexus-web"
	}
	skew := cfg.ClockSkew
	if skew < 0 {
		skew = 0
	}
	return &Service{
		store: cfg.Store,
		tokens: Tokens{
			Secret:    []byte(secret),
			Issuer:    issuer,
			Audience:  audience,
			TTL:       accessTTL,
			ClockSkew: skew,
		},
		refreshTTL: refreshTTL,
		now:        time.Now,
		validate:   common.NewValidator(),
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a customer account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := s.validate.Struct(in); err != nil {
		return User{}, common.ValidationFailed("invalid registration", err)
	}
	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.store.CreateUser(ctx, Credentials{
		User: User{
			Username: in.Username,
			Email:    in.Email,
			Phone:    in.Phone,
			FullName: in.FullName,
			Roles:    []string{RoleCustomer},
		},
		PasswordHash: hash,
	})
	switch {
	case errors.Is(err, ErrEmailTaken):
		return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
	case errors.Is(err, ErrUsernameTaken):
		return User{}, common.NewAppError("USERNAME_TAKEN", "username is already taken", http.StatusConflict, err)
	case err != nil:
		return User{}, err
	}
	return u, nil
}

func invalidCredentials() error {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid username or password", http.StatusUnauthorized, nil)
}

func invalidRefresh() error {
	return common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)
}

// Login verifies a username or email with its password and opens a session.
func (s *Service) Login(ctx context.Context, login, password string) (Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return Session{}, invalidCredentials()
	}
	creds, err := s.store.CredentialsByLogin(ctx, login)
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, invalidCredentials()
	}
	if err != nil {
		return Session{}, err
	}
	ok, err := argon2id.ComparePasswordAndHash(password, creds.PasswordHash)
	if err != nil || !ok {
		return Session{}, invalidCredentials()
	}
	sess, err := s.openSession(ctx, creds.User)
	if err != nil {
		return Session{}, err
	}
	user := creds.User
	sess.User = &user
	return sess, nil
}

func (s *Service) openSession(ctx context.Context, u User) (Session, error) {
	access, accessExp, err := s.tokens.Sign(Claims{UserID: u.ID, Roles: u.Roles}, s.now())
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, hash, err := newRefreshToken()
	if err != nil {
		return Session{}, err
	}
	refreshExp := s.now().Add(s.refreshTTL)
	if err := s.store.CreateRefreshToken(ctx, RefreshToken{ID: uuid.NewString(), UserID: u.ID, Hash: hash, ExpiresAt: refreshExp}); err != nil {
		return Session{}, err
	}
	return Session{AccessToken: access, AccessExpiry: accessExp, RefreshToken: refresh, RefreshExpiry: refreshExp}, nil
}

// Refresh rotates a refresh token and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return Session{}, invalidRefresh()
	}
	hashed := hashToken(token)
	stored, err := s.store.RefreshTokenByHash(ctx, hashed)
	if errors.Is(err, ErrTokenNotFound) {
		return Session{}, invalidRefresh()
	}
	if err != nil {
		return Session{}, err
	}
	if !s.now().Before(stored.ExpiresAt) {
		_ = s.store.RevokeRefreshToken(ctx, hashed)
		return Session{}, invalidRefresh()
	}
	u, err := s.store.UserByID(ctx, stored.UserID)
	if err != nil {
		_ = s.store.RevokeRefreshToken(ctx, hashed)
		return Session{}, invalidRefresh()
	}
	access, accessExp, err := s.tokens.Sign(Claims{UserID: u.ID, Roles: u.Roles}, s.now())
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}
	next, nextHash, err := newRefreshToken()
	if err != nil {
		return Session{}, err
	}
	refreshExp := s.now().Add(s.refreshTTL)
	if err := s.store.RotateRefreshToken(ctx, stored.ID, nextHash, refreshExp); err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return Session{}, invalidRefresh()
		}
		return Session{}, err
	}
	return Session{AccessToken: access, AccessExpiry: accessExp, RefreshToken: next, RefreshExpiry: refreshExp}, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil
	}
	return s.store.RevokeRefreshToken(ctx, hashToken(token))
}

// Me fetches the current authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	u, err := s.store.UserByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	return u, err
}

// ParseAccessToken validates an access token and returns its claims.
func (s *Service) ParseAccessToken(token string) (Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	claims, err := s.tokens.Parse(trimmed, s.now())
	if err != nil {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return claims, nil
}

func newRefreshToken() (token, hash string, err error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(buf)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
