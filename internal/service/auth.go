package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/repository"
	"arriendo-cajas-backend/internal/security"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type authService struct {
	users repository.UserRepository
}

func NewAuthService(users repository.UserRepository) AuthService {
	return &authService{users: users}
}

func principalOf(u *domain.User) *domain.Principal {
	return &domain.Principal{
		UserID:     u.ID,
		Email:      u.Email,
		Role:       u.Role,
		DriverID:   u.DriverID,
		CustomerID: u.CustomerID,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Principal, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Error("Login lookup failed", "error", err)
		}
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive || !security.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	logger.Info("User logged in", "userID", user.ID, "role", user.Role)
	return user, principalOf(user), nil
}

func (s *authService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, domain.NewValidationError("email", "is not a valid address")
	}
	if !in.Role.IsValid() {
		return nil, domain.NewValidationError("role", "must be admin, driver or customer")
	}
	if in.Role == domain.RoleDriver && in.DriverID == nil {
		return nil, domain.NewValidationError("driver_id", "is required for driver users")
	}
	if in.Role == domain.RoleCustomer && in.CustomerID == nil {
		return nil, domain.NewValidationError("customer_id", "is required for customer users")
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, domain.NewValidationError("password", err.Error())
	}

	user := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         in.Role,
		DriverID:     in.DriverID,
		CustomerID:   in.CustomerID,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
