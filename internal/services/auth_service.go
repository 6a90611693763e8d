package services

import (
	"errors"
	"time"

	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/models"
	"luckyaces-backend/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid utorid or password")
	ErrResetTokenNotFound = errors.New("reset token not found")
	ErrResetTokenExpired  = errors.New("reset token expired or already used")
	ErrResetTokenMismatch = errors.New("reset token does not belong to this utorid")
)

// LoginUser verifies credentials, stamps LastLogin and issues a bearer token.
func LoginUser(utorid, password string) (string, time.Time, *models.User, error) {
	var user models.User
	if err := database.DB.Where("utorid = ?", utorid).First(&user).Error; err != nil {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}

	if !user.Activated() {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}

	token, expiresAt, err := utils.GenerateToken(user.ID, user.UTORid, user.Role)
	if err != nil {
		return "", time.Time{}, nil, err
	}

	now := time.Now()
	database.DB.Model(&user).Update("last_login", now)
	InvalidateUserCache(user.ID)

	return token, expiresAt, &user, nil
}

// RequestPasswordReset issues a fresh reset token for the utorid and
// invalidates any earlier unredeemed token for the same user.
func RequestPasswordReset(utorid string) (*models.PasswordReset, error) {
	user, err := FindUserByUTORid(utorid)
	if err != nil {
		return nil, err
	}

	reset := &models.PasswordReset{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(resetTokenLifetime),
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PasswordReset{}).
			Where("user_id = ? AND used = ?", user.ID, false).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Create(reset).Error
	})
	if err != nil {
		return nil, err
	}

	return reset, nil
}

// ResetPassword redeems a reset token and sets the user's password. The
// token must exist, be unexpired and unused, and belong to the given utorid.
func ResetPassword(token, utorid, password string) error {
	var reset models.PasswordReset
	if err := database.DB.Where("token = ?", token).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetTokenNotFound
		}
		return err
	}

	if reset.Used || reset.Expired(time.Now()) {
		return ErrResetTokenExpired
	}

	var user models.User
	if err := database.DB.First(&user, reset.UserID).Error; err != nil {
		return err
	}
	if user.UTORid != utorid {
		return ErrResetTokenMismatch
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", string(hashed)).Error; err != nil {
			return err
		}
		return tx.Model(&reset).Update("used", true).Error
	})
	if err != nil {
		return err
	}

	InvalidateUserCache(user.ID)
	return nil
}
