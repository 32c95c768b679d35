package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("identity: password must be at least 8 characters")
)

// Service is the identity provider for the process. Besides credential
// handling it tracks the currently signed-in identity and reports every
// change to the single attached listener (the session hub).
type Service struct {
	repo        Repository
	tokenSecret []byte
	tokenTTL    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	current  *Identity
	listener func(*Identity)
}

// NewService creates a new identity service.
func NewService(repo Repository, tokenSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		tokenSecret: []byte(tokenSecret),
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

// CreateIdentity registers a new account. The new identity is not
// signed in; callers sign in explicitly afterwards.
func (s *Service) CreateIdentity(ctx context.Context, params CreateIdentityParams) (*Identity, error) {
	if len(params.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if params.Email == "" || params.DisplayName == "" {
		return nil, fmt.Errorf("identity: email and display_name are required")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}

	var phone *string
	if p := strings.TrimSpace(params.Phone); p != "" {
		phone = &p
	}

	ident, err := s.repo.Create(ctx, CreateRecordParams{
		Email:        strings.ToLower(strings.TrimSpace(params.Email)),
		DisplayName:  strings.TrimSpace(params.DisplayName),
		Phone:        phone,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		return nil, err
	}

	return &ident, nil
}

// SignIn authenticates and makes the identity current for the process.
func (s *Service) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	ident, hash, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return SignInResult{}, ErrInvalidCredentials
		}
		return SignInResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return SignInResult{}, ErrInvalidCredentials
	}

	token, err := s.generateToken(ident.ID)
	if err != nil {
		return SignInResult{}, fmt.Errorf("identity: generate token: %w", err)
	}

	s.setCurrent(&ident)

	return SignInResult{
		Token:    token,
		Identity: ident,
	}, nil
}

// SignOut clears the current identity for the process.
func (s *Service) SignOut(ctx context.Context) {
	s.setCurrent(nil)
}

// Resume restores the session from a previously issued token, the way
// a persisted sign-in survives a restart. An empty or invalid token
// resolves the session to signed-out; the error is informational and
// the session is resolved either way.
func (s *Service) Resume(ctx context.Context, token string) error {
	if token == "" {
		s.setCurrent(nil)
		return nil
	}

	id, err := s.VerifyToken(token)
	if err != nil {
		s.setCurrent(nil)
		return err
	}

	ident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.setCurrent(nil)
		return err
	}

	s.setCurrent(&ident)
	return nil
}

// GetByID retrieves identity information by ID.
func (s *Service) GetByID(ctx context.Context, id string) (*Identity, error) {
	ident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

// VerifyToken validates a session token and returns the identity ID.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.tokenSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("identity: parse token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		id, ok := claims["sub"].(string)
		if !ok || id == "" {
			return "", fmt.Errorf("identity: invalid subject in token")
		}
		return id, nil
	}

	return "", fmt.Errorf("identity: invalid token")
}

// CurrentIdentity attaches the provider listener. At most one listener
// is supported per service; attaching replaces the previous one. The
// session hub is the only expected caller.
func (s *Service) CurrentIdentity(fn func(*Identity)) (stop func()) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.listener = nil
		s.mu.Unlock()
	}
}

// setCurrent updates the current identity and notifies the listener
// while still holding the lock, so notifications arrive in the order
// the transitions happened.
func (s *Service) setCurrent(ident *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ident
	if s.listener != nil {
		s.listener(ident)
	}
}

func (s *Service) generateToken(id string) (string, error) {
	nowTime := s.now()
	claims := jwt.MapClaims{
		"sub": id,
		"exp": nowTime.Add(s.tokenTTL).Unix(),
		"iat": nowTime.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.tokenSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
