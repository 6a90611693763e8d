package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUserExists     = errors.New("user with this utorid or email already exists")
	ErrRoleNotAllowed = errors.New("caller may not assign this role")
)

// resetTokenLifetime is how long an activation / password-reset token stays
// redeemable.
const resetTokenLifetime = time.Hour

func FindUserByID(userID uint) (models.User, error) {
	// Try cache
	cacheKey := fmt.Sprintf("user:%d", userID)
	if database.RedisClient != nil {
		val, err := database.RedisClient.Get(database.Ctx, cacheKey).Result()
		if err == nil {
			var user models.User
			if err := json.Unmarshal([]byte(val), &user); err == nil {
				return user, nil
			}
		}
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, err
	}

	// Set cache
	if database.RedisClient != nil {
		if data, err := json.Marshal(user); err == nil {
			database.RedisClient.Set(database.Ctx, cacheKey, data, time.Hour)
		}
	}

	return user, nil
}

func FindUserByUTORid(utorid string) (models.User, error) {
	var user models.User
	if err := database.DB.Where("utorid = ?", utorid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, err
	}
	return user, nil
}

// InvalidateUserCache drops the cached copy of a user. Every balance or
// profile mutation must call it after committing.
func InvalidateUserCache(userID uint) {
	if database.RedisClient != nil {
		database.RedisClient.Del(database.Ctx, fmt.Sprintf("user:%d", userID))
	}
}

// CreateUser registers a new account and issues its activation reset token.
// The account cannot log in until the token is redeemed with a password.
func CreateUser(utorid, name, email string) (*models.User, *models.PasswordReset, error) {
	var existing models.User
	result := database.DB.Where("utorid = ? OR email = ?", utorid, email).First(&existing)
	if result.Error == nil {
		return nil, nil, ErrUserExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil, result.Error
	}

	user := &models.User{
		UTORid: utorid,
		Name:   name,
		Email:  email,
		Role:   models.RoleRegular,
	}

	reset := &models.PasswordReset{
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(resetTokenLifetime),
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		reset.UserID = user.ID
		return tx.Create(reset).Error
	})
	if err != nil {
		return nil, nil, err
	}

	return user, reset, nil
}

// UserFilter defines criteria for listing users.
type UserFilter struct {
	Name      string // matches utorid or display name
	Role      *models.Role
	Verified  *bool
	Activated *bool
	Page      int
	Limit     int
}

// FindUsers retrieves a paginated, filtered list of users.
func FindUsers(filter UserFilter) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := database.DB.Model(&models.User{})

	if filter.Name != "" {
		pattern := "%" + filter.Name + "%"
		query = query.Where("utorid LIKE ? OR name LIKE ?", pattern, pattern)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Verified != nil {
		query = query.Where("verified = ?", *filter.Verified)
	}
	if filter.Activated != nil {
		if *filter.Activated {
			query = query.Where("password <> ''")
		} else {
			query = query.Where("password = ''")
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("id asc").Limit(filter.Limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// UpdateUserByManager applies manager-level edits (email, verified,
// suspicious, role) to a user. Role assignment is limited by the actor's own
// role: managers may only hand out regular or cashier, superusers anything.
// Promoting a user to cashier clears the suspicious flag.
func UpdateUserByManager(id uint, updates map[string]interface{}, actor models.User) (*models.User, error) {
	if roleVal, ok := updates["role"]; ok {
		newRole := models.Role(fmt.Sprint(roleVal))
		if !newRole.Valid() {
			return nil, fmt.Errorf("unknown role %q", roleVal)
		}
		if !actor.Role.AtLeast(models.RoleSuperuser) && newRole.AtLeast(models.RoleManager) {
			return nil, ErrRoleNotAllowed
		}
		updates["role"] = string(newRole)
		if newRole == models.RoleCashier {
			updates["suspicious"] = false
		}
	}

	var user models.User
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	InvalidateUserCache(id)

	database.DB.First(&user, id)
	return &user, nil
}

// UpdateProfile applies self-service edits (name, email, birthday, avatar).
func UpdateProfile(id uint, updates map[string]interface{}) (*models.User, error) {
	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}

	InvalidateUserCache(id)

	database.DB.First(&user, id)
	return &user, nil
}

// ChangePassword verifies the old password and stores a bcrypt hash of the
// new one.
func ChangePassword(id uint, oldPassword, newPassword string) error {
	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := database.DB.Model(&user).Update("password", string(hashed)).Error; err != nil {
		return err
	}

	InvalidateUserCache(id)
	return nil
}
