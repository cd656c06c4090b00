package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"anonchat/internal/model"
	"anonchat/internal/observability"
	"anonchat/internal/pkg/jwtutil"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyVerified   = errors.New("account is already verified")
	ErrCodeExpired       = errors.New("verification code has expired")
	ErrCodeInvalid       = errors.New("incorrect verification code")
	ErrNotVerified       = errors.New("account is not verified")
)

// UserStore is the persistence contract shared by the MySQL and MongoDB backends.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	Save(ctx context.Context, user *model.User) error
	GetVerifiedByUsername(ctx context.Context, username string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SetAcceptingMessages(ctx context.Context, username string, accepting bool) error
	AppendMessage(ctx context.Context, username string, message *model.Message) error
	ListMessages(ctx context.Context, username string, limit int) ([]model.Message, error)
	ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}

type VerificationMailer interface {
	SendVerificationEmail(ctx context.Context, email, username, code string) error
}

type AuthOptions struct {
	JWTSecret     string
	JWTExpiration time.Duration
	CodeTTL       time.Duration
	BcryptCost    int
}

type AuthService struct {
	users  UserStore
	mailer VerificationMailer
	opts   AuthOptions

	now     func() time.Time
	newCode func() (string, error)
}

type SignUpInput struct {
	Username string
	Email    string
	Password string
}

type SignUpOutcome string

const (
	SignUpCreated SignUpOutcome = "created"
	SignUpUpdated SignUpOutcome = "updated"
)

type SignUpResult struct {
	User      *model.User
	Outcome   SignUpOutcome
	EmailSent bool
}

type SignInInput struct {
	Identifier string
	Password   string
}

type AuthResult struct {
	Token string
	User  *model.User
}

func NewAuthService(users UserStore, mailer VerificationMailer, opts AuthOptions) *AuthService {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:   users,
		mailer:  mailer,
		opts:    opts,
		now:     time.Now,
		newCode: generateVerifyCode,
	}
}

// SignUp registers a new account or refreshes the credentials and code of an
// unverified one. Verified owners of the username or email are never touched.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := input.Password

	if username == "" || email == "" || password == "" {
		observability.SignupOutcomes.WithLabelValues("error").Inc()
		return nil, ErrInvalidInput
	}

	verifiedByName, err := s.users.GetVerifiedByUsername(ctx, username)
	if err != nil {
		observability.SignupOutcomes.WithLabelValues("error").Inc()
		return nil, err
	}
	if verifiedByName != nil {
		observability.SignupOutcomes.WithLabelValues("username_taken").Inc()
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		observability.SignupOutcomes.WithLabelValues("error").Inc()
		return nil, err
	}

	code, err := s.newCode()
	if err != nil {
		observability.SignupOutcomes.WithLabelValues("error").Inc()
		return nil, err
	}
	expiry := s.now().Add(s.opts.CodeTTL)

	result := &SignUpResult{}
	switch {
	case existingByEmail != nil && existingByEmail.IsVerified:
		observability.SignupOutcomes.WithLabelValues("email_taken").Inc()
		return nil, ErrEmailExists
	case existingByEmail != nil:
		hash, err := s.hashPassword(password)
		if err != nil {
			observability.SignupOutcomes.WithLabelValues("error").Inc()
			return nil, err
		}
		existingByEmail.PasswordHash = hash
		existingByEmail.VerifyCode = code
		existingByEmail.VerifyCodeExpiry = expiry
		if err := s.users.Save(ctx, existingByEmail); err != nil {
			observability.SignupOutcomes.WithLabelValues("error").Inc()
			return nil, err
		}
		result.User = existingByEmail
		result.Outcome = SignUpUpdated
	default:
		hash, err := s.hashPassword(password)
		if err != nil {
			observability.SignupOutcomes.WithLabelValues("error").Inc()
			return nil, err
		}
		user := &model.User{
			Username:            username,
			Email:               email,
			PasswordHash:        hash,
			VerifyCode:          code,
			VerifyCodeExpiry:    expiry,
			IsVerified:          false,
			IsAcceptingMessages: true,
			Messages:            []model.Message{},
		}
		if err := s.users.Create(ctx, user); err != nil {
			observability.SignupOutcomes.WithLabelValues("error").Inc()
			return nil, err
		}
		result.User = user
		result.Outcome = SignUpCreated
	}
	observability.SignupOutcomes.WithLabelValues(string(result.Outcome)).Inc()

	if err := s.mailer.SendVerificationEmail(ctx, result.User.Email, result.User.Username, code); err != nil {
		observability.VerificationEmails.WithLabelValues("failed").Inc()
		slog.WarnContext(ctx, "send verification email failed",
			"username", result.User.Username,
			"error", err,
		)
		return result, nil
	}
	observability.VerificationEmails.WithLabelValues("sent").Inc()
	result.EmailSent = true
	return result, nil
}

// VerifyCode flips an account to verified when code matches and is unexpired.
func (s *AuthService) VerifyCode(ctx context.Context, username, code string) error {
	username = strings.TrimSpace(username)
	code = strings.TrimSpace(code)
	if username == "" || code == "" {
		return ErrInvalidInput
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	if !user.CodeUsable(s.now()) {
		return ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(user.VerifyCode), []byte(code)) != 1 {
		return ErrCodeInvalid
	}

	user.IsVerified = true
	user.VerifyCode = ""
	return s.users.Save(ctx, user)
}

// SignIn authenticates by email address and password.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (*AuthResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(identifier))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredential
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}

	token, err := jwtutil.GenerateToken(s.opts.JWTSecret, s.opts.JWTExpiration, user.Identity(), user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// IsUsernameAvailable reports whether no verified account owns username.
func (s *AuthService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	existing, err := s.users.GetVerifiedByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return false, err
	}
	return existing == nil, nil
}

func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrInvalidInput
	}
	return s.users.GetByUsername(ctx, username)
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(hash), nil
}

// generateVerifyCode returns a uniformly random six digit code in [100000, 999999].
func generateVerifyCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate verify code failed: %w", err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
