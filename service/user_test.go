package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberinferno/go-chat-server/protocol"
)

func seedUser(t *testing.T, store *Store, username string) User {
	t.Helper()
	u, err := store.CreateUser(User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhash12",
		FullName:     "Seed " + username,
	})
	require.NoError(t, err)
	return u
}

func TestUserService_UpdateProfile(t *testing.T) {
	store := NewStore()
	users := NewUserService(store, nil)
	u := seedUser(t, store, "alice")

	t.Run("updates only the keys present", func(t *testing.T) {
		resp := users.HandleUpdateProfile(protocol.NewRequest(protocol.UpdateProfileRequest).
			Set("userId", u.ID).
			Set("fullName", "Alice A."))
		require.True(t, resp.Success, resp.Error)

		got, _ := store.GetUser(u.ID)
		assert.Equal(t, "Alice A.", got.FullName)
		assert.Equal(t, u.Email, got.Email)
	})

	t.Run("rejects a bad email without touching other fields", func(t *testing.T) {
		resp := users.HandleUpdateProfile(protocol.NewRequest(protocol.UpdateProfileRequest).
			Set("userId", u.ID).
			Set("fullName", "Mallory").
			Set("email", "not-an-email"))
		assert.False(t, resp.Success)

		got, _ := store.GetUser(u.ID)
		assert.Equal(t, "Alice A.", got.FullName)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := users.HandleUpdateProfile(protocol.NewRequest(protocol.UpdateProfileRequest).
			Set("userId", int64(9999)).Set("fullName", "Nobody"))
		assert.False(t, resp.Success)
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	store := NewStore()
	auth := NewAuthService(store, NewMemoryTokenStore(0), nil, 1, 1)
	users := NewUserService(store, nil)
	id := registerUser(t, auth, "alice", "alice@example.com", "secret1")

	t.Run("wrong current password", func(t *testing.T) {
		resp := users.HandleChangePassword(protocol.NewRequest(protocol.ChangePasswordRequest).
			Set("userId", id).
			Set("oldPassword", "wrong0").
			Set("newPassword", "fresh01"))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "current password")
	})

	t.Run("success allows login with the new password only", func(t *testing.T) {
		resp := users.HandleChangePassword(protocol.NewRequest(protocol.ChangePasswordRequest).
			Set("userId", id).
			Set("oldPassword", "secret1").
			Set("newPassword", "fresh01"))
		require.True(t, resp.Success, resp.Error)

		ok := auth.HandleLogin(protocol.NewRequest(protocol.LoginRequest).
			Set("username", "alice").Set("password", "fresh01"))
		assert.True(t, ok.Success)

		stale := auth.HandleLogin(protocol.NewRequest(protocol.LoginRequest).
			Set("username", "alice").Set("password", "secret1"))
		assert.False(t, stale.Success)
	})

	t.Run("short new password", func(t *testing.T) {
		resp := users.HandleChangePassword(protocol.NewRequest(protocol.ChangePasswordRequest).
			Set("userId", id).
			Set("oldPassword", "fresh01").
			Set("newPassword", "ab"))
		assert.False(t, resp.Success)
	})
}

func TestUserService_GetUserInfo(t *testing.T) {
	store := NewStore()
	users := NewUserService(store, nil)
	u := seedUser(t, store, "alice")

	t.Run("returns the public profile without credentials", func(t *testing.T) {
		resp := users.HandleGetUserInfo(protocol.NewRequest(protocol.GetUserInfoRequest).
			Set("userId", u.ID))
		require.True(t, resp.Success, resp.Error)

		profile := resp.GetMap("user")
		require.NotNil(t, profile)
		assert.Equal(t, u.Username, profile["username"])
		assert.NotContains(t, profile, "passwordHash")
	})

	t.Run("profile writes invalidate the cache", func(t *testing.T) {
		users.HandleUpdateProfile(protocol.NewRequest(protocol.UpdateProfileRequest).
			Set("userId", u.ID).Set("fullName", "Renamed"))

		resp := users.HandleGetUserInfo(protocol.NewRequest(protocol.GetUserInfoRequest).
			Set("userId", u.ID))
		require.True(t, resp.Success)
		assert.Equal(t, "Renamed", resp.GetMap("user")["fullName"])
	})

	t.Run("concurrent lookups agree", func(t *testing.T) {
		const n = 16
		var wg sync.WaitGroup
		results := make([]*protocol.Packet, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = users.HandleGetUserInfo(protocol.NewRequest(protocol.GetUserInfoRequest).
					Set("userId", u.ID))
			}(i)
		}
		wg.Wait()

		for _, resp := range results {
			require.True(t, resp.Success)
			assert.Equal(t, "Renamed", resp.GetMap("user")["fullName"])
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := users.HandleGetUserInfo(protocol.NewRequest(protocol.GetUserInfoRequest).
			Set("userId", int64(424242)))
		assert.False(t, resp.Success)
	})
}

func TestUserService_StatusUpdate(t *testing.T) {
	store := NewStore()
	users := NewUserService(store, nil)
	u := seedUser(t, store, "alice")

	t.Run("sets a valid status", func(t *testing.T) {
		resp := users.HandleStatusUpdate(protocol.NewRequest(protocol.StatusUpdate).
			Set("userId", u.ID).
			Set("status", "away").
			Set("statusMessage", "brb"))
		require.True(t, resp.Success, resp.Error)
		assert.Equal(t, protocol.StatusUpdate, resp.Type)

		got, _ := store.GetUser(u.ID)
		assert.Equal(t, StatusAway, got.Status)
		assert.Equal(t, "brb", got.StatusMessage)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		resp := users.HandleStatusUpdate(protocol.NewRequest(protocol.StatusUpdate).
			Set("userId", u.ID).
			Set("status", "NAPPING"))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "NAPPING")
	})
}

func TestUserService_UploadAvatar(t *testing.T) {
	store := NewStore()
	users := NewUserService(store, nil)
	u := seedUser(t, store, "alice")

	resp := users.HandleUploadAvatar(protocol.NewRequest(protocol.UploadAvatarRequest).
		Set("userId", u.ID).
		Set("avatarUrl", "https://cdn.example.com/a/alice.png"))
	require.True(t, resp.Success, resp.Error)

	got, _ := store.GetUser(u.ID)
	assert.Equal(t, "https://cdn.example.com/a/alice.png", got.AvatarURL)

	t.Run("missing url", func(t *testing.T) {
		resp := users.HandleUploadAvatar(protocol.NewRequest(protocol.UploadAvatarRequest).
			Set("userId", u.ID))
		assert.False(t, resp.Success)
	})
}
