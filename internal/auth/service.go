package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

var (
	// ErrDuplicateEmail is returned when registering with an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const minPasswordLength = 8

type Service interface {
	Register(ctx context.Context, email, password, displayName string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	// ValidateToken returns the ledger user id and role carried by token.
	ValidateToken(ctx context.Context, token string) (string, string, error)
	SetRole(ctx context.Context, email, role string) (*models.User, error)
}

type service struct {
	repo   UserStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewService returns the auth service. Tokens are HS256-signed with secret
// and expire after ttl.
func NewService(repo UserStore, secret []byte, ttl time.Duration) Service {
	return &service{repo: repo, secret: secret, ttl: ttl, cost: bcrypt.DefaultCost, now: time.Now}
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Register creates a learner account. Admins are promoted out of band.
func (s *service) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is invalid", models.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalidInput, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, email, string(hash), strings.TrimSpace(displayName), models.RoleLearner)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, ErrDuplicateEmail) || (errors.As(err, &pgErr) && pgErr.Code == "23505") {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	tok, err := s.issueToken(u.ID, u.Role)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

func (s *service) SetRole(ctx context.Context, email, role string) (*models.User, error) {
	if role != models.RoleLearner && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrInvalidInput, role)
	}
	return s.repo.SetRole(ctx, normalizeEmail(email), role)
}

func (s *service) issueToken(userID uuid.UUID, role string) (string, error) {
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(_ context.Context, token string) (string, string, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return "", "", ErrInvalidToken
	}
	if _, err := uuid.Parse(c.Subject); err != nil {
		return "", "", fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return c.Subject, c.Role, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
