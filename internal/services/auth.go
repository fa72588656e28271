package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bioqa/manager/internal/models"
	"github.com/bioqa/manager/internal/repository"
	"github.com/bioqa/manager/pkg/utils"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmailExists       = errors.New("email already registered")
	ErrInvalidCredential = errors.New("invalid email or password")
)

// AuthService issues and validates caller identities.
type AuthService struct {
	users         models.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	logger        *logrus.Logger
}

type AuthResult struct {
	Token string
	User  *models.User
}

func NewAuthService(users models.UserRepository, jwtSecret string, jwtExpiration time.Duration, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:         users,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		logger:        logger,
	}
}

func (s *AuthService) Register(email, username, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if email == "" || password == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}

	existing, err := s.users.GetByEmail(email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Roles:        models.StringArray{"user"},
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	token, err := utils.GenerateToken(s.jwtSecret, s.jwtExpiration, user.Email, user.Roles)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := utils.GenerateToken(s.jwtSecret, s.jwtExpiration, user.Email, user.Roles)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
