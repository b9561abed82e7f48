package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/domain"
)

const minPasswordLength = 6

type Store interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type TokenIssuer interface {
	Issue(u domain.User) (string, time.Time, error)
}

type Service struct {
	store  Store
	tokens TokenIssuer
	logger *slog.Logger
}

func NewService(store Store, tokens TokenIssuer, logger *slog.Logger) *Service {
	return &Service{store: store, tokens: tokens, logger: logger}
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

var errInvalidCredentials = fmt.Errorf("%w: invalid username or password", domain.ErrUnauthenticated)

// Login verifies credentials and issues a bearer token. Inactive users are
// refused.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.store.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	if !u.Active {
		return nil, fmt.Errorf("%w: user is inactive", domain.ErrUnauthenticated)
	}

	token, expires, err := s.tokens.Issue(*u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", u.ID)
	return &Session{Token: token, ExpiresAt: expires, User: *u}, nil
}

type RegisterInput struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	TicketCount int    `json:"ticketCount"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidArgument)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidArgument, minPasswordLength)
	}
	if in.TicketCount < 0 {
		return nil, fmt.Errorf("%w: ticket count must not be negative", domain.ErrInvalidArgument)
	}
	role := domain.RoleUser
	if in.Role != "" {
		parsed, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		TicketCount:  in.TicketCount,
		Active:       true,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// EnsureAdmin creates the bootstrap admin unless the username already exists.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.store.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	_, err = s.Register(ctx, RegisterInput{Username: username, Password: password, Role: string(domain.RoleAdmin)})
	if errors.Is(err, domain.ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", "username", username)
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.store.List(ctx)
}

// Get allows admins and the user themself.
func (s *Service) Get(ctx context.Context, caller *auth.Identity, id int64) (*domain.User, error) {
	if !caller.IsAdmin() && (caller == nil || caller.UserID != id) {
		return nil, fmt.Errorf("%w: cannot read another user", domain.ErrForbidden)
	}
	return s.store.GetByID(ctx, id)
}

func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	if err := s.store.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.logger.Info("user activation changed", "user_id", id, "active", active)
	return nil
}
