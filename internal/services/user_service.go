package services

import (
	"errors"
	"fmt"

	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"gorm.io/gorm"
)

// UserService is the address registry: a bidirectional address <-> id
// mapping with stable numeric ids. Removed ids are never handed out again.
type UserService interface {
	// GetUserID returns the user's id, or 0 if the address is not registered.
	GetUserID(address string) (uint, error)
	// GetOrCreateUserID returns the existing id or registers the address.
	GetOrCreateUserID(address string) (uint, error)
	// RegisterUser registers a new address; fails if already present.
	RegisterUser(address string) (uint, error)
	// GetUserIDNonZero returns the id or fails if the address is unknown.
	GetUserIDNonZero(address string) (uint, error)
	// GetUserAddress returns the address for an id, or "" if absent.
	GetUserAddress(id uint) (string, error)
	// RemoveUserByAddress unregisters an address and returns its old id,
	// or 0 if the address was not registered.
	RemoveUserByAddress(address string) (uint, error)
	// RemoveUserByID unregisters by id and returns the old address.
	RemoveUserByID(id uint) (string, error)
}

type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserService
func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) GetUserID(address string) (uint, error) {
	var user models.User
	err := s.db.Where("address = ?", utils.NormalizeAddress(address)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (s *userService) GetOrCreateUserID(address string) (uint, error) {
	id, err := s.GetUserID(address)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		return id, nil
	}
	return s.RegisterUser(address)
}

func (s *userService) RegisterUser(address string) (uint, error) {
	if !utils.IsValidAddress(address) {
		return 0, fmt.Errorf("%w: malformed address %q", ErrInvalidInput, address)
	}

	id, err := s.GetUserID(address)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		return 0, ErrAddressAlreadyRegistered
	}

	user := models.User{Address: utils.NormalizeAddress(address)}
	if err := s.db.Create(&user).Error; err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (s *userService) GetUserIDNonZero(address string) (uint, error) {
	id, err := s.GetUserID(address)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, ErrUnknownAddress
	}
	return id, nil
}

func (s *userService) GetUserAddress(id uint) (string, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.Address, nil
}

func (s *userService) RemoveUserByAddress(address string) (uint, error) {
	var user models.User
	err := s.db.Where("address = ?", utils.NormalizeAddress(address)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Removing an absent entry is not an error.
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	if err := s.db.Delete(&user).Error; err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (s *userService) RemoveUserByID(id uint) (string, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if err := s.db.Delete(&user).Error; err != nil {
		return "", err
	}
	return user.Address, nil
}
