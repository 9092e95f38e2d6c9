package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akash12888/note-taking-app/internal/auth"
	"github.com/akash12888/note-taking-app/internal/models"
)

func TestSignupFlowCompletes(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &recordingMailer{}

	svc, err := NewAuthService(db, newTestTokenService(t), mailer,
		WithCodeGenerator(fixedCode("482913")),
	)
	require.NoError(t, err)

	input := SignupInput{Name: "Ava", Email: "ava@example.com", DateOfBirth: mustDate(t, "1990-01-01")}
	require.NoError(t, svc.RequestSignupCode(context.Background(), input))

	var stored models.User
	require.NoError(t, db.First(&stored).Error)
	assert.False(t, stored.IsVerified)
	require.NotNil(t, stored.OTPCodeHash)
	require.NotNil(t, stored.OTPExpiresAt)

	require.Len(t, mailer.messages, 1)
	assert.Equal(t, "ava@example.com", mailer.messages[0].To)
	assert.Contains(t, mailer.messages[0].Body, "482913")

	// Wrong code first.
	_, _, err = svc.VerifySignup(context.Background(), "ava@example.com", "000000")
	require.ErrorIs(t, err, ErrInvalidCode)

	user, token, err := svc.VerifySignup(context.Background(), "ava@example.com", "482913")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, user.IsVerified)
	assert.Nil(t, user.OTPCodeHash)
	assert.Nil(t, user.OTPExpiresAt)
}

func TestSignupCodeSingleUse(t *testing.T) {
	db := openServiceTestDB(t)

	svc, err := NewAuthService(db, newTestTokenService(t), nil,
		WithCodeGenerator(fixedCode("555123")),
	)
	require.NoError(t, err)

	require.NoError(t, svc.RequestSignupCode(context.Background(), SignupInput{Name: "Ava", Email: "ava@example.com"}))

	_, _, err = svc.VerifySignup(context.Background(), "ava@example.com", "555123")
	require.NoError(t, err)

	_, _, err = svc.VerifySignup(context.Background(), "ava@example.com", "555123")
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestSignupCodeSuperseded(t *testing.T) {
	db := openServiceTestDB(t)

	codes := []string{"111111", "222222"}
	svc, err := NewAuthService(db, newTestTokenService(t), nil,
		WithCodeGenerator(func(int) (string, error) {
			code := codes[0]
			if len(codes) > 1 {
				codes = codes[1:]
			}
			return code, nil
		}),
	)
	require.NoError(t, err)

	input := SignupInput{Name: "Ava", Email: "ava@example.com"}
	require.NoError(t, svc.RequestSignupCode(context.Background(), input))
	require.NoError(t, svc.RequestSignupCode(context.Background(), input))

	// The first code was replaced by the second request.
	_, _, err = svc.VerifySignup(context.Background(), "ava@example.com", "111111")
	require.ErrorIs(t, err, ErrInvalidCode)

	_, _, err = svc.VerifySignup(context.Background(), "ava@example.com", "222222")
	require.NoError(t, err)
}

func TestSignupCodeExpiry(t *testing.T) {
	db := openServiceTestDB(t)
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	svc, err := NewAuthService(db, newTestTokenService(t), nil,
		WithCodeGenerator(fixedCode("909090")),
		WithCodeExpiry(5*time.Minute),
		WithClock(func() time.Time { return current }),
	)
	require.NoError(t, err)

	require.NoError(t, svc.RequestSignupCode(context.Background(), SignupInput{Name: "Ava", Email: "ava@example.com"}))

	current = current.Add(6 * time.Minute)

	_, _, err = svc.VerifySignup(context.Background(), "ava@example.com", "909090")
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestSignupRejectsVerifiedEmail(t *testing.T) {
	db := openServiceTestDB(t)

	svc, err := NewAuthService(db, newTestTokenService(t), nil,
		WithCodeGenerator(fixedCode("121212")),
	)
	require.NoError(t, err)

	require.NoError(t, svc.RequestSignupCode(context.Background(), SignupInput{Name: "Ava", Email: "ava@example.com"}))
	_, _, err = svc.VerifySignup(context.Background(), "ava@example.com", "121212")
	require.NoError(t, err)

	err = svc.RequestSignupCode(context.Background(), SignupInput{Name: "Ava", Email: "ava@example.com"})
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestSigninRequiresVerifiedAccount(t *testing.T) {
	db := openServiceTestDB(t)

	svc, err := NewAuthService(db, newTestTokenService(t), nil,
		WithCodeGenerator(fixedCode("343434")),
	)
	require.NoError(t, err)

	// No account at all.
	err = svc.RequestSigninCode(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	// Unverified account looks the same.
	require.NoError(t, svc.RequestSignupCode(context.Background(), SignupInput{Name: "Ava", Email: "ava@example.com"}))
	err = svc.RequestSigninCode(context.Background(), "ava@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSignInWithCode(t *testing.T) {
	db := openServiceTestDB(t)

	svc, err := NewAuthService(db, newTestTokenService(t), nil,
		WithCodeGenerator(fixedCode("787878")),
	)
	require.NoError(t, err)

	require.NoError(t, svc.RequestSignupCode(context.Background(), SignupInput{Name: "Ava", Email: "ava@example.com"}))
	_, _, err = svc.VerifySignup(context.Background(), "ava@example.com", "787878")
	require.NoError(t, err)

	require.NoError(t, svc.RequestSigninCode(context.Background(), "ava@example.com"))

	_, _, err = svc.SignIn(context.Background(), "ava@example.com", "000000")
	require.ErrorIs(t, err, ErrSignInDenied)

	user, token, err := svc.SignIn(context.Background(), "AVA@example.com", "787878")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "ava@example.com", user.Email)
}

func TestSignInRejectsUnverifiedEvenWithValidCode(t *testing.T) {
	db := openServiceTestDB(t)

	svc, err := NewAuthService(db, newTestTokenService(t), nil,
		WithCodeGenerator(fixedCode("646464")),
	)
	require.NoError(t, err)

	require.NoError(t, svc.RequestSignupCode(context.Background(), SignupInput{Name: "Ava", Email: "ava@example.com"}))

	// The code itself is valid, but the account never completed signup.
	_, _, err = svc.SignIn(context.Background(), "ava@example.com", "646464")
	require.ErrorIs(t, err, ErrSignInDenied)
}

func TestResolveFederatedCreatesVerifiedUser(t *testing.T) {
	db := openServiceTestDB(t)

	svc, err := NewAuthService(db, newTestTokenService(t), nil)
	require.NoError(t, err)

	claims, _ := json.Marshal(map[string]any{"sub": "google-1", "email": "ava@example.com"})
	identity := &auth.Identity{
		Subject:   "google-1",
		Email:     "ava@example.com",
		Name:      "Ava",
		Picture:   "https://example.com/ava.png",
		RawClaims: claims,
	}

	user, token, err := svc.ResolveFederated(context.Background(), identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, user.IsVerified)
	require.NotNil(t, user.GoogleID)
	assert.Equal(t, "google-1", *user.GoogleID)
	assert.Equal(t, "https://example.com/ava.png", user.ProfilePicture)

	// A repeat callback resolves to the same record.
	again, _, err := svc.ResolveFederated(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResolveFederatedLinksExistingAccount(t *testing.T) {
	db := openServiceTestDB(t)

	svc, err := NewAuthService(db, newTestTokenService(t), nil,
		WithCodeGenerator(fixedCode("515151")),
	)
	require.NoError(t, err)

	// Unverified local signup for the same email.
	require.NoError(t, svc.RequestSignupCode(context.Background(), SignupInput{Name: "Ava", Email: "ava@example.com"}))

	identity := &auth.Identity{Subject: "google-7", Email: "ava@example.com", Name: "Ava"}
	user, _, err := svc.ResolveFederated(context.Background(), identity)
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, db.Where("id = ?", user.ID).First(&stored).Error)
	assert.True(t, stored.IsVerified)
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "google-7", *stored.GoogleID)
	assert.Nil(t, stored.OTPCodeHash)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResolveFederatedRequiresEmail(t *testing.T) {
	db := openServiceTestDB(t)

	svc, err := NewAuthService(db, newTestTokenService(t), nil)
	require.NoError(t, err)

	_, _, err = svc.ResolveFederated(context.Background(), &auth.Identity{Subject: "google-9"})
	require.ErrorIs(t, err, ErrEmailUnavailable)
}

func TestCurrentUser(t *testing.T) {
	db := openServiceTestDB(t)

	svc, err := NewAuthService(db, newTestTokenService(t), nil,
		WithCodeGenerator(fixedCode("010101")),
	)
	require.NoError(t, err)

	require.NoError(t, svc.RequestSignupCode(context.Background(), SignupInput{Name: "Ava", Email: "ava@example.com"}))
	user, _, err := svc.VerifySignup(context.Background(), "ava@example.com", "010101")
	require.NoError(t, err)

	found, err := svc.CurrentUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)

	_, err = svc.CurrentUser(context.Background(), "missing-id")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSignupUpdatesPendingProfile(t *testing.T) {
	db := openServiceTestDB(t)

	svc, err := NewAuthService(db, newTestTokenService(t), nil,
		WithCodeGenerator(fixedCode("272727")),
	)
	require.NoError(t, err)

	require.NoError(t, svc.RequestSignupCode(context.Background(), SignupInput{Name: "Ava", Email: "ava@example.com"}))
	require.NoError(t, svc.RequestSignupCode(context.Background(), SignupInput{
		Name:        "Ava Lovelace",
		Email:       "ava@example.com",
		DateOfBirth: mustDate(t, "1990-01-01"),
	}))

	var stored models.User
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "Ava Lovelace", stored.Name)
	require.NotNil(t, stored.DateOfBirth)
}
