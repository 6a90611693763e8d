package services

import (
	"os"
	"testing"
	"time"

	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestActivationFlow(t *testing.T) {
	setupTestDB()
	os.Setenv("JWT_SECRET", "test_secret")

	user, reset, err := CreateUser("newkid01", "New Kid", "new.kid@mail.utoronto.ca")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleRegular, user.Role)
	assert.False(t, user.Activated())
	assert.NotEmpty(t, reset.Token)

	// Logging in before activation fails.
	_, _, _, err = LoginUser(user.UTORid, "Password1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Redeeming the token with the wrong utorid fails.
	err = ResetPassword(reset.Token, "wrongkid", "Password1!")
	assert.ErrorIs(t, err, ErrResetTokenMismatch)

	assert.NoError(t, ResetPassword(reset.Token, user.UTORid, "Password1!"))

	// The token is single use.
	err = ResetPassword(reset.Token, user.UTORid, "Password2!")
	assert.ErrorIs(t, err, ErrResetTokenExpired)

	token, expiresAt, loggedIn, err := LoginUser(user.UTORid, "Password1!")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.NotNil(t, loggedIn.LastLogin)

	_, _, _, err = LoginUser(user.UTORid, "WrongPassword1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = LoginUser("nobody99", "Password1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserDuplicate(t *testing.T) {
	setupTestDB()

	_, _, err := CreateUser("dupuser1", "Dup User", "dup.user@mail.utoronto.ca")
	assert.NoError(t, err)

	_, _, err = CreateUser("dupuser1", "Another Name", "other@mail.utoronto.ca")
	assert.ErrorIs(t, err, ErrUserExists)

	_, _, err = CreateUser("dupuser2", "Another Name", "dup.user@mail.utoronto.ca")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRequestPasswordReset(t *testing.T) {
	setupTestDB()

	user, first, err := CreateUser("resetme1", "Reset Me", "reset.me@mail.utoronto.ca")
	assert.NoError(t, err)

	second, err := RequestPasswordReset(user.UTORid)
	assert.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	// Requesting a new token invalidates the old one.
	err = ResetPassword(first.Token, user.UTORid, "Password1!")
	assert.ErrorIs(t, err, ErrResetTokenExpired)

	assert.NoError(t, ResetPassword(second.Token, user.UTORid, "Password1!"))

	_, err = RequestPasswordReset("nobody99")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	setupTestDB()

	user, reset, err := CreateUser("lateone1", "Late One", "late.one@mail.utoronto.ca")
	assert.NoError(t, err)

	database.DB.Model(reset).Update("expires_at", time.Now().Add(-time.Minute))

	err = ResetPassword(reset.Token, user.UTORid, "Password1!")
	assert.ErrorIs(t, err, ErrResetTokenExpired)

	err = ResetPassword("no-such-token", user.UTORid, "Password1!")
	assert.ErrorIs(t, err, ErrResetTokenNotFound)
}

func TestChangePassword(t *testing.T) {
	setupTestDB()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("OldPass1!"), bcrypt.DefaultCost)
	user := models.User{
		UTORid:   "changer1",
		Name:     "Changer",
		Email:    "changer@mail.utoronto.ca",
		Password: string(hashed),
		Role:     models.RoleRegular,
	}
	assert.NoError(t, database.DB.Create(&user).Error)

	assert.ErrorIs(t, ChangePassword(user.ID, "WrongOld1!", "NewPass1!"), ErrInvalidCredentials)
	assert.NoError(t, ChangePassword(user.ID, "OldPass1!", "NewPass1!"))

	fresh := reloadUser(t, user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(fresh.Password), []byte("NewPass1!")))

	assert.ErrorIs(t, ChangePassword(9999, "x", "y"), ErrUserNotFound)
}
