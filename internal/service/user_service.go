package service

import (
	"strings"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// UserService handles ledger owners
type UserService struct {
	userRepo domain.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo domain.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// EnsureUser returns the user, creating it with the default categories on first contact
func (s *UserService) EnsureUser(id int64, username *string) (*domain.User, error) {
	if id == 0 {
		return nil, domain.ErrInvalidUserID
	}
	if username != nil {
		trimmed := strings.TrimSpace(*username)
		if trimmed == "" {
			username = nil
		} else {
			username = &trimmed
		}
	}

	user, created, err := s.userRepo.Ensure(&domain.User{ID: id, Username: username}, domain.DefaultCategoryNames)
	if err != nil {
		return nil, err
	}
	if created {
		log.Info().Int64("user_id", id).Int("categories", len(domain.DefaultCategoryNames)).Msg("Registered new ledger user")
	}
	return user, nil
}

// GetUser retrieves a user by id
func (s *UserService) GetUser(id int64) (*domain.User, error) {
	return s.userRepo.GetByID(id)
}
