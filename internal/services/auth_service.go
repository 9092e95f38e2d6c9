package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/akash12888/note-taking-app/internal/auth"
	"github.com/akash12888/note-taking-app/internal/models"
	"github.com/akash12888/note-taking-app/pkg/crypto"
	"github.com/akash12888/note-taking-app/pkg/mail"
	"github.com/akash12888/note-taking-app/pkg/metrics"
	"github.com/akash12888/note-taking-app/pkg/otp"
)

const defaultCodeExpiry = 5 * time.Minute

var (
	// ErrEmailExists signals a verified account already owns the email.
	ErrEmailExists = errors.New("auth: email already registered")
	// ErrUserNotFound indicates no verified account exists for the email.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrInvalidCode covers a wrong, expired or already consumed signup code.
	ErrInvalidCode = errors.New("auth: invalid or expired code")
	// ErrSignInDenied is deliberately vague: wrong code, expired code or an
	// unverified account all surface the same way on the sign-in path.
	ErrSignInDenied = errors.New("auth: sign in rejected")
	// ErrEmailUnavailable means the federated provider supplied no usable email.
	ErrEmailUnavailable = errors.New("auth: federated profile has no email")
)

// SignupInput carries the profile fields of a first-time signup request.
type SignupInput struct {
	Name        string
	Email       string
	DateOfBirth *time.Time
}

// AuthOption customises the AuthService.
type AuthOption func(*AuthService)

// WithCodeExpiry overrides the one-time code lifetime.
func WithCodeExpiry(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.codeExpiry = d
		}
	}
}

// WithCodeLength adjusts the number of digits in generated codes.
func WithCodeLength(length int) AuthOption {
	return func(s *AuthService) {
		if length > 0 {
			s.codeLength = length
		}
	}
}

// WithClock injects a custom time source.
func WithClock(clock func() time.Time) AuthOption {
	return func(s *AuthService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithCodeGenerator replaces the random code generator.
func WithCodeGenerator(generate func(length int) (string, error)) AuthOption {
	return func(s *AuthService) {
		if generate != nil {
			s.generate = generate
		}
	}
}

// AuthService owns the passwordless signup and sign-in lifecycle: code
// issuance, verification and session token issuance.
type AuthService struct {
	db         *gorm.DB
	mailer     mail.Mailer
	tokens     *auth.JWTService
	codeExpiry time.Duration
	codeLength int
	now        func() time.Time
	generate   func(length int) (string, error)
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(db *gorm.DB, tokens *auth.JWTService, mailer mail.Mailer, opts ...AuthOption) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("auth service: token service is required")
	}

	service := &AuthService{
		db:         db,
		mailer:     mailer,
		tokens:     tokens,
		codeExpiry: defaultCodeExpiry,
		codeLength: otp.DefaultLength,
		now:        time.Now,
		generate:   otp.Generate,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// RequestSignupCode creates or refreshes an unverified account and mails a
// fresh one-time code. Re-requesting supersedes any earlier code.
func (s *AuthService) RequestSignupCode(ctx context.Context, input SignupInput) error {
	email := normaliseEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" {
		return errors.New("auth service: email is required")
	}
	if name == "" {
		return errors.New("auth service: name is required")
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.IsVerified {
			metrics.OTPRequests.WithLabelValues("signup", "email_exists").Inc()
			return ErrEmailExists
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first contact; a fresh record is created below
	default:
		return fmt.Errorf("auth service: lookup user: %w", err)
	}

	code, hash, expiresAt, err := s.issueCode()
	if err != nil {
		return err
	}

	if existing.ID != "" {
		updates := map[string]any{
			"name":           name,
			"date_of_birth":  input.DateOfBirth,
			"otp_code_hash":  hash,
			"otp_expires_at": expiresAt,
		}
		if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("auth service: refresh signup code: %w", err)
		}
	} else {
		user := models.User{
			Name:         name,
			Email:        email,
			DateOfBirth:  input.DateOfBirth,
			OTPCodeHash:  &hash,
			OTPExpiresAt: &expiresAt,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrEmailExists
			}
			return fmt.Errorf("auth service: create user: %w", err)
		}
	}

	if err := s.deliverCode(ctx, email, name, code); err != nil {
		metrics.OTPRequests.WithLabelValues("signup", "delivery_failed").Inc()
		return err
	}

	metrics.OTPRequests.WithLabelValues("signup", "ok").Inc()
	return nil
}

// RequestSigninCode attaches a fresh code to an existing verified account.
func (s *AuthService) RequestSigninCode(ctx context.Context, email string) error {
	email = normaliseEmail(email)
	if email == "" {
		return errors.New("auth service: email is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ? AND is_verified = ?", email, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.OTPRequests.WithLabelValues("signin", "not_found").Inc()
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("auth service: lookup user: %w", err)
	}

	code, hash, expiresAt, err := s.issueCode()
	if err != nil {
		return err
	}

	updates := map[string]any{
		"otp_code_hash":  hash,
		"otp_expires_at": expiresAt,
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return fmt.Errorf("auth service: refresh signin code: %w", err)
	}

	if err := s.deliverCode(ctx, email, user.Name, code); err != nil {
		metrics.OTPRequests.WithLabelValues("signin", "delivery_failed").Inc()
		return err
	}

	metrics.OTPRequests.WithLabelValues("signin", "ok").Inc()
	return nil
}

// VerifySignup redeems a signup code, marks the account verified and issues
// a session token. A code can be redeemed at most once: the claim is a
// single conditional update so concurrent attempts cannot both succeed.
func (s *AuthService) VerifySignup(ctx context.Context, email, code string) (*models.User, string, error) {
	email = normaliseEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		metrics.OTPVerifications.WithLabelValues("signup", "invalid").Inc()
		return nil, "", ErrInvalidCode
	}

	claim := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? AND otp_code_hash = ? AND otp_expires_at > ?", email, crypto.HashCode(code), s.now()).
		Updates(map[string]any{
			"is_verified":    true,
			"otp_code_hash":  nil,
			"otp_expires_at": nil,
		})
	if claim.Error != nil {
		return nil, "", fmt.Errorf("auth service: claim signup code: %w", claim.Error)
	}
	if claim.RowsAffected == 0 {
		metrics.OTPVerifications.WithLabelValues("signup", "invalid").Inc()
		return nil, "", ErrInvalidCode
	}

	user, token, err := s.sessionFor(ctx, email)
	if err != nil {
		return nil, "", err
	}

	metrics.OTPVerifications.WithLabelValues("signup", "ok").Inc()
	return user, token, nil
}

// SignIn redeems a sign-in code for an already verified account and issues a
// session token. Unverified accounts are rejected the same way as a wrong
// code so the response never reveals which check failed.
func (s *AuthService) SignIn(ctx context.Context, email, code string) (*models.User, string, error) {
	email = normaliseEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		metrics.OTPVerifications.WithLabelValues("signin", "denied").Inc()
		return nil, "", ErrSignInDenied
	}

	claim := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? AND otp_code_hash = ? AND otp_expires_at > ? AND is_verified = ?",
			email, crypto.HashCode(code), s.now(), true).
		Updates(map[string]any{
			"otp_code_hash":  nil,
			"otp_expires_at": nil,
		})
	if claim.Error != nil {
		return nil, "", fmt.Errorf("auth service: claim signin code: %w", claim.Error)
	}
	if claim.RowsAffected == 0 {
		metrics.OTPVerifications.WithLabelValues("signin", "denied").Inc()
		return nil, "", ErrSignInDenied
	}

	user, token, err := s.sessionFor(ctx, email)
	if err != nil {
		return nil, "", err
	}

	metrics.OTPVerifications.WithLabelValues("signin", "ok").Inc()
	return user, token, nil
}

// ResolveFederated maps a verified federated identity onto a local account
// and issues a session token. Resolution order is external id, then email
// (which links and promotes the account), then a fresh verified record.
func (s *AuthService) ResolveFederated(ctx context.Context, identity *auth.Identity) (*models.User, string, error) {
	if identity == nil {
		return nil, "", errors.New("auth service: identity is required")
	}
	email := normaliseEmail(identity.Email)
	if email == "" {
		metrics.FederatedSignins.WithLabelValues("no_email").Inc()
		return nil, "", ErrEmailUnavailable
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("google_id = ?", identity.Subject).First(&user).Error
	switch {
	case err == nil:
		// known federated account
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.linkOrCreateFederated(ctx, email, identity)
		if err != nil {
			metrics.FederatedSignins.WithLabelValues("error").Inc()
			return nil, "", err
		}
	default:
		return nil, "", fmt.Errorf("auth service: lookup federated user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("auth service: issue token: %w", err)
	}

	metrics.FederatedSignins.WithLabelValues("ok").Inc()
	return &user, token, nil
}

func (s *AuthService) linkOrCreateFederated(ctx context.Context, email string, identity *auth.Identity) (models.User, error) {
	subject := identity.Subject

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"google_id":      subject,
			"is_verified":    true,
			"otp_code_hash":  nil,
			"otp_expires_at": nil,
		}
		if identity.Picture != "" {
			updates["profile_picture"] = identity.Picture
		}
		if len(identity.RawClaims) > 0 {
			updates["profile"] = datatypes.JSON(identity.RawClaims)
		}
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return models.User{}, fmt.Errorf("auth service: link federated account: %w", err)
		}
		return user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		name := strings.TrimSpace(identity.Name)
		if name == "" {
			name = email
		}
		user = models.User{
			Name:           name,
			Email:          email,
			IsVerified:     true,
			GoogleID:       &subject,
			ProfilePicture: identity.Picture,
		}
		if len(identity.RawClaims) > 0 {
			user.Profile = datatypes.JSON(identity.RawClaims)
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			if isUniqueConstraintError(err) {
				// lost a race with a concurrent callback for the same account
				var winner models.User
				if lookupErr := s.db.WithContext(ctx).Where("email = ?", email).First(&winner).Error; lookupErr == nil {
					return winner, nil
				}
			}
			return models.User{}, fmt.Errorf("auth service: create federated user: %w", err)
		}
		return user, nil
	default:
		return models.User{}, fmt.Errorf("auth service: lookup user by email: %w", err)
	}
}

// CurrentUser resolves a user by id, such as after validating a session token.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth service: lookup user: %w", err)
	}
	return &user, nil
}

// TokenTTL exposes the session token lifetime for cookie expiry alignment.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *AuthService) issueCode() (code, hash string, expiresAt time.Time, err error) {
	code, err = s.generate(s.codeLength)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("auth service: generate code: %w", err)
	}
	return code, crypto.HashCode(code), s.now().Add(s.codeExpiry), nil
}

func (s *AuthService) deliverCode(ctx context.Context, email, name, code string) error {
	if s.mailer == nil {
		return nil
	}

	minutes := int(s.codeExpiry.Minutes())
	msg := mail.Message{
		To:      email,
		Subject: "Your verification code",
		Body: fmt.Sprintf("Hi %s,\r\n\r\nYour verification code is %s. It expires in %d minutes.\r\n\r\nIf you did not request this code you can ignore this email.\r\n",
			name, code, minutes),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			return nil
		}
		return fmt.Errorf("auth service: send code email: %w", err)
	}
	return nil
}

func (s *AuthService) sessionFor(ctx context.Context, email string) (*models.User, string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, "", fmt.Errorf("auth service: reload user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("auth service: issue token: %w", err)
	}

	return &user, token, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
