package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/core/ports"
)

// RegisterInput is the payload for AuthService.Register.
type RegisterInput struct {
	Username    string `validate:"required,min=3,max=32,alphanum"`
	Email       string `validate:"required,email,max=254"`
	Password    string `validate:"required,min=8,max=72"`
	DisplayName string `validate:"max=64"`
	Location    *domain.GeoPoint
}

// Session is returned after a successful register or login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// AuthService registers accounts and exchanges credentials for bearer tokens.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	events   ports.EventPublisher
	validate *validator.Validate
}

// NewAuthService creates a new AuthService. events may be nil.
func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, events ports.EventPublisher) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		events:   events,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, describeValidation(err))
	}
	if in.Location != nil {
		if err := in.Location.Validate(); err != nil {
			return nil, err
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		DisplayName:  in.DisplayName,
		Location:     in.Location,
	}
	if _, err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}

	publish(ctx, s.events, domain.DomainEvent{Type: domain.EventUserRegistered, EntityID: user.ID, Location: user.Location})
	return s.session(user)
}

// Login verifies credentials; login may be a username or an email.
func (s *AuthService) Login(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, fmt.Errorf("%w: login and password are required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Compare(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	return s.session(user)
}

// Authenticate resolves a bearer token to a user id.
func (s *AuthService) Authenticate(token string) (int64, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return id, nil
}

func (s *AuthService) session(user *domain.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: user}, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "alphanum":
			msgs = append(msgs, field+" may only contain letters and digits")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
