package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberinferno/go-chat-server/protocol"
)

func newAuthService(t *testing.T) (*AuthService, *Store) {
	t.Helper()
	store := NewStore()
	auth := NewAuthService(store, NewMemoryTokenStore(time.Minute), nil, 5*time.Minute, 15*time.Minute)
	return auth, store
}

func registerUser(t *testing.T, auth *AuthService, username, email, password string) int64 {
	t.Helper()
	resp := auth.HandleRegister(protocol.NewRequest(protocol.RegisterRequest).
		Set("username", username).
		Set("email", email).
		Set("password", password).
		Set("fullName", "Test User"))
	require.True(t, resp.Success, "register failed: %s", resp.Error)

	id, ok := resp.GetInt64("userId")
	require.True(t, ok)
	return id
}

func TestAuthService_Register(t *testing.T) {
	auth, store := newAuthService(t)

	t.Run("success stores a hashed password", func(t *testing.T) {
		id := registerUser(t, auth, "alice", "alice@example.com", "secret1")

		u, found := store.GetUser(id)
		require.True(t, found)
		assert.Equal(t, "alice", u.Username)
		assert.NotEqual(t, "secret1", u.PasswordHash)
		assert.NotEmpty(t, u.PasswordHash)
		assert.False(t, u.Verified)
	})

	t.Run("issues a verification code", func(t *testing.T) {
		code, found, err := auth.tokens.Get(context.Background(), otpKey("alice@example.com"))
		require.NoError(t, err)
		require.True(t, found)
		assert.Len(t, code, 6)
	})

	tests := []struct {
		name    string
		req     *protocol.Packet
		wantSub string
	}{
		{
			"missing username",
			protocol.NewRequest(protocol.RegisterRequest).Set("email", "x@y.com").Set("password", "secret1"),
			"username is required",
		},
		{
			"short password",
			protocol.NewRequest(protocol.RegisterRequest).Set("username", "bob").Set("email", "b@y.com").Set("password", "abc"),
			"at least 6 characters",
		},
		{
			"bad email",
			protocol.NewRequest(protocol.RegisterRequest).Set("username", "bob").Set("email", "not-an-email").Set("password", "secret1"),
			"invalid email",
		},
		{
			"duplicate username",
			protocol.NewRequest(protocol.RegisterRequest).Set("username", "ALICE").Set("email", "other@y.com").Set("password", "secret1"),
			"username already exists",
		},
		{
			"duplicate email",
			protocol.NewRequest(protocol.RegisterRequest).Set("username", "carol").Set("email", "ALICE@example.com").Set("password", "secret1"),
			"email already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := auth.HandleRegister(tt.req)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tt.wantSub)
			assert.Equal(t, protocol.RegisterResponse, resp.Type)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	auth, store := newAuthService(t)
	id := registerUser(t, auth, "alice", "alice@example.com", "secret1")

	t.Run("success returns the profile with userId", func(t *testing.T) {
		resp := auth.HandleLogin(protocol.NewRequest(protocol.LoginRequest).
			Set("username", "alice").
			Set("password", "secret1"))
		require.True(t, resp.Success, resp.Error)
		assert.Equal(t, protocol.LoginResponse, resp.Type)

		uid, ok := resp.GetInt64("userId")
		require.True(t, ok)
		assert.Equal(t, id, uid)
		assert.Equal(t, "alice", resp.GetString("username"))
		assert.NotContains(t, resp.Data, "passwordHash")

		u, _ := store.GetUser(id)
		assert.Equal(t, StatusOnline, u.Status)
	})

	t.Run("wrong password and unknown user give the same message", func(t *testing.T) {
		wrongPw := auth.HandleLogin(protocol.NewRequest(protocol.LoginRequest).
			Set("username", "alice").Set("password", "nope00"))
		noUser := auth.HandleLogin(protocol.NewRequest(protocol.LoginRequest).
			Set("username", "mallory").Set("password", "nope00"))

		assert.False(t, wrongPw.Success)
		assert.False(t, noUser.Success)
		assert.Equal(t, wrongPw.Error, noUser.Error)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := auth.HandleLogin(protocol.NewRequest(protocol.LoginRequest))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "required")
	})
}

func TestAuthService_Logout(t *testing.T) {
	auth, store := newAuthService(t)
	id := registerUser(t, auth, "alice", "alice@example.com", "secret1")
	auth.HandleLogin(protocol.NewRequest(protocol.LoginRequest).
		Set("username", "alice").Set("password", "secret1"))

	t.Run("marks the user offline", func(t *testing.T) {
		resp := auth.HandleLogout(protocol.NewRequest(protocol.LogoutRequest).Set("userId", id))
		require.True(t, resp.Success)

		u, _ := store.GetUser(id)
		assert.Equal(t, StatusOffline, u.Status)
	})

	t.Run("missing userId", func(t *testing.T) {
		resp := auth.HandleLogout(protocol.NewRequest(protocol.LogoutRequest))
		assert.False(t, resp.Success)
	})
}

func TestAuthService_OTPFlow(t *testing.T) {
	auth, store := newAuthService(t)
	id := registerUser(t, auth, "alice", "alice@example.com", "secret1")

	ctx := context.Background()
	code, found, err := auth.tokens.Get(ctx, otpKey("alice@example.com"))
	require.NoError(t, err)
	require.True(t, found)

	t.Run("wrong code consumes the stored one", func(t *testing.T) {
		resp := auth.HandleVerifyOTP(protocol.NewRequest(protocol.VerifyOTPRequest).
			Set("email", "alice@example.com").Set("otp", "000000x"))
		assert.False(t, resp.Success)

		_, found, _ := auth.tokens.Get(ctx, otpKey("alice@example.com"))
		assert.False(t, found)
	})

	t.Run("resend issues a fresh code", func(t *testing.T) {
		resp := auth.HandleResendOTP(protocol.NewRequest(protocol.ResendOTPRequest).
			Set("email", "alice@example.com"))
		require.True(t, resp.Success)

		code, found, err = auth.tokens.Get(ctx, otpKey("alice@example.com"))
		require.NoError(t, err)
		require.True(t, found)
	})

	t.Run("correct code verifies the account", func(t *testing.T) {
		resp := auth.HandleVerifyOTP(protocol.NewRequest(protocol.VerifyOTPRequest).
			Set("email", "alice@example.com").Set("otp", code))
		require.True(t, resp.Success, resp.Error)

		u, _ := store.GetUser(id)
		assert.True(t, u.Verified)
	})

	t.Run("code is single use", func(t *testing.T) {
		resp := auth.HandleVerifyOTP(protocol.NewRequest(protocol.VerifyOTPRequest).
			Set("email", "alice@example.com").Set("otp", code))
		assert.False(t, resp.Success)
	})

	t.Run("resend for unknown email fails", func(t *testing.T) {
		resp := auth.HandleResendOTP(protocol.NewRequest(protocol.ResendOTPRequest).
			Set("email", "ghost@example.com"))
		assert.False(t, resp.Success)
	})
}

func TestAuthService_PasswordReset(t *testing.T) {
	auth, _ := newAuthService(t)
	registerUser(t, auth, "alice", "alice@example.com", "secret1")

	ctx := context.Background()

	t.Run("unknown email gets the same response as a known one", func(t *testing.T) {
		known := auth.HandleForgotPassword(protocol.NewRequest(protocol.ForgotPasswordRequest).
			Set("email", "alice@example.com"))
		unknown := auth.HandleForgotPassword(protocol.NewRequest(protocol.ForgotPasswordRequest).
			Set("email", "ghost@example.com"))

		require.True(t, known.Success)
		require.True(t, unknown.Success)
		assert.Equal(t, known.GetString("message"), unknown.GetString("message"))

		_, found, _ := auth.tokens.Get(ctx, resetKey("ghost@example.com"))
		assert.False(t, found, "no token may be issued for an unknown email")
	})

	t.Run("valid token resets the password", func(t *testing.T) {
		token, found, err := auth.tokens.Get(ctx, resetKey("alice@example.com"))
		require.NoError(t, err)
		require.True(t, found)

		resp := auth.HandleResetPassword(protocol.NewRequest(protocol.ResetPasswordRequest).
			Set("email", "alice@example.com").
			Set("token", token).
			Set("newPassword", "freshpw1"))
		require.True(t, resp.Success, resp.Error)

		login := auth.HandleLogin(protocol.NewRequest(protocol.LoginRequest).
			Set("username", "alice").Set("password", "freshpw1"))
		assert.True(t, login.Success)

		stale := auth.HandleLogin(protocol.NewRequest(protocol.LoginRequest).
			Set("username", "alice").Set("password", "secret1"))
		assert.False(t, stale.Success)
	})

	t.Run("token is single use", func(t *testing.T) {
		resp := auth.HandleResetPassword(protocol.NewRequest(protocol.ResetPasswordRequest).
			Set("email", "alice@example.com").
			Set("token", "whatever").
			Set("newPassword", "another1"))
		assert.False(t, resp.Success)
	})

	t.Run("short new password rejected before consuming the token", func(t *testing.T) {
		auth.HandleForgotPassword(protocol.NewRequest(protocol.ForgotPasswordRequest).
			Set("email", "alice@example.com"))

		resp := auth.HandleResetPassword(protocol.NewRequest(protocol.ResetPasswordRequest).
			Set("email", "alice@example.com").
			Set("token", "ignored").
			Set("newPassword", "ab"))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "at least 6 characters")

		_, found, _ := auth.tokens.Get(ctx, resetKey("alice@example.com"))
		assert.True(t, found, "validation failures must not burn the token")
	})
}
