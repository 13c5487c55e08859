package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/21namanpandey/e-library/apperr"
	"github.com/21namanpandey/e-library/models"
	"github.com/21namanpandey/e-library/store"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserService struct {
	store    UserStore
	tokens   TokenSigner
	logger   *slog.Logger
	validate *validator.Validate
	cost     int
}

func NewUserService(store UserStore, tokens TokenSigner, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		store:    store,
		tokens:   tokens,
		logger:   logger.With("component", "users"),
		validate: validator.New(),
		cost:     bcrypt.DefaultCost,
	}
}

// Register creates a user and returns an access token for it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return "", apperr.Validation("All fields are required")
	}
	if err := s.validate.Var(in.Email, "email"); err != nil {
		return "", apperr.Validation("Invalid email address")
	}

	existing, err := s.store.UserByEmail(ctx, in.Email)
	if err != nil {
		return "", apperr.Internal("Error while getting user", err)
	}
	if existing != nil {
		return "", apperr.Conflict("User already exists with this email.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return "", apperr.Internal("Error while hashing password", err)
	}
	user := &models.User{Name: in.Name, Email: in.Email, Password: string(hash)}
	id, err := s.store.CreateUser(ctx, user)
	if errors.Is(err, store.ErrDuplicateEmail) {
		return "", apperr.Conflict("User already exists with this email.")
	}
	if err != nil {
		return "", apperr.Internal("Error while creating user", err)
	}

	token, err := s.tokens.Issue(id.Hex(), user.Email)
	if err != nil {
		return "", apperr.Upstream("Error while signing the jwt token", err)
	}
	s.logger.Info("user registered", "id", id.Hex())
	return token, nil
}

// Login checks the credentials and returns an access token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return "", apperr.Validation("All fields are required")
	}

	user, err := s.store.UserByEmail(ctx, in.Email)
	if err != nil {
		return "", apperr.Internal("Error while getting user", err)
	}
	if user == nil {
		return "", apperr.NotFound("User not found.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", apperr.Validation("Username or password incorrect!")
	}

	token, err := s.tokens.Issue(user.ID.Hex(), user.Email)
	if err != nil {
		return "", apperr.Upstream("Error while signing the jwt token", err)
	}
	return token, nil
}
