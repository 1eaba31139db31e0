package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// CategoryService handles the category lifecycle
type CategoryService struct {
	categoryRepo domain.CategoryRepository
	reportCache  domain.ReportImageCache
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository, reportCache domain.ReportImageCache) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, reportCache: reportCache}
}

// DeleteCategoryResult tells where the expenses of a deleted category went
type DeleteCategoryResult struct {
	MovedTo *domain.Category `json:"movedTo"`
	Moved   int64            `json:"moved"`
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if utf8.RuneCountInString(name) > domain.MaxCategoryNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

// ListCategories retrieves all categories of a user
func (s *CategoryService) ListCategories(userID int64) ([]*domain.Category, error) {
	return s.categoryRepo.GetAllByUser(userID)
}

// GetCategory retrieves one category of a user
func (s *CategoryService) GetCategory(userID int64, id int32) (*domain.Category, error) {
	return s.categoryRepo.GetByID(userID, id)
}

// CreateCategory creates a category; names are unique per user ignoring case
func (s *CategoryService) CreateCategory(userID int64, name string) (*domain.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}
	return s.categoryRepo.Create(&domain.Category{UserID: userID, Name: name})
}

// RenameCategory changes a category's name
func (s *CategoryService) RenameCategory(userID int64, id int32, name string) (*domain.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.Rename(userID, id, name)
	if err != nil {
		return nil, err
	}
	invalidateReportImages(s.reportCache, userID, 0, 0)
	return category, nil
}

// ReassignCategory moves every expense of fromID into toID and deletes fromID
func (s *CategoryService) ReassignCategory(userID int64, fromID, toID int32) (int64, error) {
	if fromID == toID {
		return 0, domain.ErrSelfReassign
	}
	if _, err := s.categoryRepo.GetByID(userID, fromID); err != nil {
		return 0, err
	}
	if _, err := s.categoryRepo.GetByID(userID, toID); err != nil {
		return 0, err
	}

	moved, err := s.categoryRepo.ReassignAndDelete(userID, fromID, toID)
	if err != nil {
		return 0, err
	}

	log.Info().
		Int64("user_id", userID).
		Int32("from_category", fromID).
		Int32("to_category", toID).
		Int64("moved", moved).
		Msg("Category reassigned")

	invalidateReportImages(s.reportCache, userID, 0, 0)
	return moved, nil
}

// DeleteCategory removes a category. Its expenses move to replacementID when given,
// otherwise to the user's fallback category, which is created when missing.
func (s *CategoryService) DeleteCategory(userID int64, id int32, replacementID *int32) (*DeleteCategoryResult, error) {
	category, err := s.categoryRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	count, err := s.categoryRepo.Count(userID)
	if err != nil {
		return nil, err
	}
	if count <= 1 {
		return nil, domain.ErrLastCategory
	}

	var target *domain.Category
	if replacementID != nil {
		if *replacementID == id {
			return nil, domain.ErrSelfReassign
		}
		target, err = s.categoryRepo.GetByID(userID, *replacementID)
		if err != nil {
			return nil, err
		}
	} else {
		if strings.EqualFold(category.Name, domain.FallbackCategoryName) {
			return nil, domain.ErrFallbackIsSelf
		}
		target, err = s.fallbackCategory(userID)
		if err != nil {
			return nil, err
		}
	}

	moved, err := s.ReassignCategory(userID, id, target.ID)
	if err != nil {
		return nil, err
	}
	return &DeleteCategoryResult{MovedTo: target, Moved: moved}, nil
}

// GetCategoryStats summarizes the expenses of a category
func (s *CategoryService) GetCategoryStats(userID int64, id int32) (*domain.CategoryStats, error) {
	return s.categoryRepo.GetStats(userID, id)
}

// fallbackCategory finds or creates the user's fallback category
func (s *CategoryService) fallbackCategory(userID int64) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByName(userID, domain.FallbackCategoryName)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, err
	}

	category, err = s.categoryRepo.Create(&domain.Category{UserID: userID, Name: domain.FallbackCategoryName})
	if errors.Is(err, domain.ErrCategoryAlreadyExists) {
		// created concurrently
		return s.categoryRepo.GetByName(userID, domain.FallbackCategoryName)
	}
	return category, err
}
