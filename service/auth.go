package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cyberinferno/go-chat-server/logger"
	"github.com/cyberinferno/go-chat-server/protocol"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLen = 6

// AuthService handles login, registration, logout and the OTP / password
// reset flows. Verification codes and reset tokens live in the TokenStore;
// their "delivery" is a log event standing in for an email sender.
type AuthService struct {
	store    *Store
	tokens   TokenStore
	log      logger.Logger
	otpTTL   time.Duration
	resetTTL time.Duration
}

// NewAuthService builds an AuthService.
//
// Parameters:
//   - store: The user store
//   - tokens: Store for verification codes and reset tokens
//   - log: Logger; nil means no logging
//   - otpTTL: Lifetime of verification codes
//   - resetTTL: Lifetime of password reset tokens
//
// Returns:
//   - A new AuthService
func NewAuthService(store *Store, tokens TokenStore, log logger.Logger, otpTTL, resetTTL time.Duration) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthService{store: store, tokens: tokens, log: log, otpTTL: otpTTL, resetTTL: resetTTL}
}

// HandleLogin validates credentials and, on success, returns the user's
// public profile with "userId" set. The session layer registers the
// connection from that field; this service never touches the registry.
func (s *AuthService) HandleLogin(req *protocol.Packet) *protocol.Packet {
	username := strings.TrimSpace(req.GetString("username"))
	password := req.GetString("password")
	if username == "" || password == "" {
		return protocol.Failure(protocol.LoginResponse, "username and password are required")
	}

	u, ok := s.store.GetByUsername(username)
	if !ok {
		s.log.Warn("login failed: user not found", logger.Field{Key: "username", Value: username})
		return protocol.Failure(protocol.LoginResponse, "invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("login failed: wrong password", logger.Field{Key: "username", Value: username})
		return protocol.Failure(protocol.LoginResponse, "invalid username or password")
	}

	_ = s.store.UpdateUser(u.ID, func(u *User) error {
		u.Status = StatusOnline
		return nil
	})

	s.log.Info("user logged in", logger.Field{Key: "user_id", Value: u.ID})

	return protocol.NewResponse(protocol.LoginResponse).
		Set("message", "login successful").
		Set("userId", u.ID).
		Set("username", u.Username).
		Set("email", u.Email).
		Set("fullName", u.FullName).
		Set("avatarUrl", u.AvatarURL).
		Set("statusMessage", u.StatusMessage)
}

// HandleRegister creates an account and issues a verification code.
func (s *AuthService) HandleRegister(req *protocol.Packet) *protocol.Packet {
	username := strings.TrimSpace(req.GetString("username"))
	email := strings.TrimSpace(req.GetString("email"))
	password := req.GetString("password")
	fullName := strings.TrimSpace(req.GetString("fullName"))

	if username == "" {
		return protocol.Failure(protocol.RegisterResponse, "username is required")
	}
	if len(password) < minPasswordLen {
		return protocol.Failure(protocol.RegisterResponse,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if !emailPattern.MatchString(email) {
		return protocol.Failure(protocol.RegisterResponse, "invalid email format")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("bcrypt failed", logger.Field{Key: "error", Value: err})
		return protocol.Failure(protocol.RegisterResponse, "could not process password")
	}

	u, err := s.store.CreateUser(User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
	})
	switch {
	case errors.Is(err, ErrUsernameTaken):
		return protocol.Failure(protocol.RegisterResponse, "username already exists")
	case errors.Is(err, ErrEmailTaken):
		return protocol.Failure(protocol.RegisterResponse, "email already registered")
	case err != nil:
		s.log.Error("create user failed", logger.Field{Key: "error", Value: err})
		return protocol.Failure(protocol.RegisterResponse, "could not create account")
	}

	if err := s.issueOTP(u.Email); err != nil {
		s.log.Error("otp issue failed", logger.Field{Key: "error", Value: err})
	}

	s.log.Info("user registered", logger.Field{Key: "user_id", Value: u.ID})

	return protocol.NewResponse(protocol.RegisterResponse).
		Set("message", "registration successful, verification code sent").
		Set("userId", u.ID)
}

// HandleLogout marks the user offline. Removing the connection registry
// entry is the session layer's job.
func (s *AuthService) HandleLogout(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.LogoutResponse, "userId is required")
	}

	err := s.store.UpdateUser(userID, func(u *User) error {
		u.Status = StatusOffline
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return protocol.Failure(protocol.LogoutResponse, "unknown user")
	}

	s.log.Info("user logged out", logger.Field{Key: "user_id", Value: userID})

	return protocol.NewResponse(protocol.LogoutResponse).Set("message", "logout successful")
}

// HandleVerifyOTP redeems a verification code and marks the account
// verified. Codes are single-use: any redemption attempt consumes the
// stored code, so after a wrong guess the client must request a new one
// via RESEND_OTP.
func (s *AuthService) HandleVerifyOTP(req *protocol.Packet) *protocol.Packet {
	email := strings.TrimSpace(req.GetString("email"))
	code := strings.TrimSpace(req.GetString("otp"))
	if email == "" || code == "" {
		return protocol.Failure(protocol.VerifyOTPResponse, "email and otp are required")
	}

	stored, found, err := s.tokens.Consume(context.Background(), otpKey(email))
	if err != nil {
		s.log.Error("token store error", logger.Field{Key: "error", Value: err})
		return protocol.Failure(protocol.VerifyOTPResponse, "verification unavailable, try again")
	}
	if !found || stored != code {
		return protocol.Failure(protocol.VerifyOTPResponse, "invalid or expired verification code")
	}

	u, ok := s.store.GetByEmail(email)
	if !ok {
		return protocol.Failure(protocol.VerifyOTPResponse, "unknown email")
	}

	_ = s.store.UpdateUser(u.ID, func(u *User) error {
		u.Verified = true
		return nil
	})

	return protocol.NewResponse(protocol.VerifyOTPResponse).Set("message", "account verified")
}

// HandleResendOTP issues a fresh verification code for the account.
func (s *AuthService) HandleResendOTP(req *protocol.Packet) *protocol.Packet {
	email := strings.TrimSpace(req.GetString("email"))
	if email == "" {
		return protocol.Failure(protocol.ResendOTPResponse, "email is required")
	}

	if _, ok := s.store.GetByEmail(email); !ok {
		return protocol.Failure(protocol.ResendOTPResponse, "unknown email")
	}

	if err := s.issueOTP(email); err != nil {
		s.log.Error("otp issue failed", logger.Field{Key: "error", Value: err})
		return protocol.Failure(protocol.ResendOTPResponse, "could not send verification code")
	}

	return protocol.NewResponse(protocol.ResendOTPResponse).Set("message", "verification code sent")
}

// HandleForgotPassword issues a password reset token. The response is the
// same whether or not the email is registered, so the endpoint cannot be
// used to probe for accounts.
func (s *AuthService) HandleForgotPassword(req *protocol.Packet) *protocol.Packet {
	email := strings.TrimSpace(req.GetString("email"))
	if email == "" {
		return protocol.Failure(protocol.ForgotPasswordResponse, "email is required")
	}

	resp := protocol.NewResponse(protocol.ForgotPasswordResponse).
		Set("message", "if the email is registered, a reset token has been sent")

	if _, ok := s.store.GetByEmail(email); !ok {
		return resp
	}

	token := uuid.NewString()
	if err := s.tokens.Put(context.Background(), resetKey(email), token, s.resetTTL); err != nil {
		s.log.Error("reset token store failed", logger.Field{Key: "error", Value: err})
		return protocol.Failure(protocol.ForgotPasswordResponse, "could not issue reset token")
	}

	// Stand-in for the email sender.
	s.log.Debug("reset token issued",
		logger.Field{Key: "email", Value: email},
		logger.Field{Key: "token", Value: token})

	return resp
}

// HandleResetPassword redeems a reset token and sets a new password.
func (s *AuthService) HandleResetPassword(req *protocol.Packet) *protocol.Packet {
	email := strings.TrimSpace(req.GetString("email"))
	token := strings.TrimSpace(req.GetString("token"))
	newPassword := req.GetString("newPassword")

	if email == "" || token == "" {
		return protocol.Failure(protocol.ResetPasswordResponse, "email and token are required")
	}
	if len(newPassword) < minPasswordLen {
		return protocol.Failure(protocol.ResetPasswordResponse,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	stored, found, err := s.tokens.Consume(context.Background(), resetKey(email))
	if err != nil {
		s.log.Error("token store error", logger.Field{Key: "error", Value: err})
		return protocol.Failure(protocol.ResetPasswordResponse, "reset unavailable, try again")
	}
	if !found || stored != token {
		return protocol.Failure(protocol.ResetPasswordResponse, "invalid or expired reset token")
	}

	u, ok := s.store.GetByEmail(email)
	if !ok {
		return protocol.Failure(protocol.ResetPasswordResponse, "unknown email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("bcrypt failed", logger.Field{Key: "error", Value: err})
		return protocol.Failure(protocol.ResetPasswordResponse, "could not process password")
	}

	_ = s.store.UpdateUser(u.ID, func(u *User) error {
		u.PasswordHash = string(hash)
		return nil
	})

	s.log.Info("password reset", logger.Field{Key: "user_id", Value: u.ID})

	return protocol.NewResponse(protocol.ResetPasswordResponse).Set("message", "password updated")
}

// issueOTP generates a 6-digit code, stores it under the email with the
// configured TTL, and logs it in place of sending an email.
func (s *AuthService) issueOTP(email string) error {
	code, err := otpCode()
	if err != nil {
		return err
	}

	if err := s.tokens.Put(context.Background(), otpKey(email), code, s.otpTTL); err != nil {
		return err
	}

	// Stand-in for the email sender.
	s.log.Debug("verification code issued",
		logger.Field{Key: "email", Value: email},
		logger.Field{Key: "otp", Value: code})

	return nil
}

// otpCode returns a random 6-digit code, zero-padded.
func otpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

func otpKey(email string) string {
	return "otp:" + strings.ToLower(email)
}

func resetKey(email string) string {
	return "reset:" + strings.ToLower(email)
}
