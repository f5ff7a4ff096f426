package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// AddressService manages delivery addresses
type AddressService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB, log logrus.FieldLogger) *AddressService {
	return &AddressService{db: db, log: log}
}

// CreateAddressRequest represents address creation data
type CreateAddressRequest struct {
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	Phone        string `json:"phone" binding:"required,max=20"`
	AddressLine1 string `json:"address_line1" binding:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	PostalCode   string `json:"postal_code" binding:"required"`
	Country      string `json:"country" binding:"required,len=2"`
	IsDefault    bool   `json:"is_default"`
}

// UpdateAddressRequest represents address update data
type UpdateAddressRequest struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Phone        *string `json:"phone" binding:"omitempty,max=20"`
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	PostalCode   *string `json:"postal_code"`
	Country      *string `json:"country" binding:"omitempty,len=2"`
}

// ListAddresses returns the user's addresses, default first
func (s *AddressService) ListAddresses(ctx context.Context, userID uint) ([]Address, error) {
	var addresses []Address
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC, id DESC").
		Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve addresses: %w", err)
	}
	return addresses, nil
}

// GetAddress retrieves one of the user's addresses
func (s *AddressService) GetAddress(ctx context.Context, userID, addressID uint) (*Address, error) {
	return findAddress(s.db.WithContext(ctx), userID, addressID)
}

// CreateAddress adds an address. The first address a user saves becomes the default.
func (s *AddressService) CreateAddress(ctx context.Context, userID uint, req *CreateAddressRequest) (*Address, error) {
	address := Address{
		UserID:       userID,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
		AddressLine1: strings.TrimSpace(req.AddressLine1),
		AddressLine2: strings.TrimSpace(req.AddressLine2),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		Country:      strings.ToUpper(req.Country),
		IsDefault:    req.IsDefault,
	}
	if err := validateAddress(&address); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Address{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}
		if existing == 0 {
			address.IsDefault = true
		}
		if address.IsDefault {
			if err := unsetDefault(tx, userID); err != nil {
				return err
			}
		}
		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// UpdateAddress edits an address in place
func (s *AddressService) UpdateAddress(ctx context.Context, userID, addressID uint, req *UpdateAddressRequest) (*Address, error) {
	db := s.db.WithContext(ctx)
	address, err := findAddress(db, userID, addressID)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&address.FirstName, req.FirstName)
	set(&address.LastName, req.LastName)
	set(&address.Phone, req.Phone)
	set(&address.AddressLine1, req.AddressLine1)
	set(&address.AddressLine2, req.AddressLine2)
	set(&address.City, req.City)
	set(&address.State, req.State)
	set(&address.PostalCode, req.PostalCode)
	if req.Country != nil {
		address.Country = strings.ToUpper(*req.Country)
	}
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	if err := db.Save(address).Error; err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return address, nil
}

// DeleteAddress soft-deletes an address. Orders keep their shipping snapshot.
// If the default goes, the most recent remaining address takes over.
func (s *AddressService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		address, err := findAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		if err := tx.Delete(address).Error; err != nil {
			return fmt.Errorf("failed to delete address: %w", err)
		}
		if !address.IsDefault {
			return nil
		}

		var next Address
		err = tx.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load addresses: %w", err)
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
}

// SetDefault makes an address the user's default
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID uint) (*Address, error) {
	var address *Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if address, err = findAddress(tx, userID, addressID); err != nil {
			return err
		}
		if err := unsetDefault(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(address).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func findAddress(db *gorm.DB, userID, addressID uint) (*Address, error) {
	var address Address
	err := db.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("address not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve address: %w", err)
	}
	return &address, nil
}

func unsetDefault(tx *gorm.DB, userID uint) error {
	if err := tx.Model(&Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error; err != nil {
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}

func validateAddress(a *Address) error {
	switch {
	case a.FirstName == "":
		return apperror.Validation("first name is required")
	case a.AddressLine1 == "":
		return apperror.Validation("address line 1 is required")
	case a.City == "":
		return apperror.Validation("city is required")
	case len(a.Country) != 2:
		return apperror.Validation("country must be a 2-letter ISO code")
	}
	return nil
}
