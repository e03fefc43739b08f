package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/cyberinferno/go-chat-server/logger"
	"github.com/cyberinferno/go-chat-server/protocol"
)

// profileCacheTTL bounds how stale a GET_USER_INFO response may be. Writes
// through this service invalidate the entry immediately; the TTL only
// covers writes that bypass the service.
const profileCacheTTL = 30 * time.Second

// UserService handles profile reads and writes: profile updates, password
// changes, avatar uploads, user info lookups and status updates. Info
// lookups go through a small read cache; concurrent misses for the same
// user are collapsed into one store read by the singleflight group.
type UserService struct {
	store    *Store
	log      logger.Logger
	profiles *cache.Cache
	group    singleflight.Group
}

// NewUserService builds a UserService.
//
// Parameters:
//   - store: The user store
//   - log: Logger; nil means no logging
//
// Returns:
//   - A new UserService
func NewUserService(store *Store, log logger.Logger) *UserService {
	if log == nil {
		log = logger.Nop()
	}
	return &UserService{
		store:    store,
		log:      log,
		profiles: cache.New(profileCacheTTL, time.Minute),
	}
}

// HandleUpdateProfile updates the mutable profile fields. Only keys present
// in the request are touched.
func (s *UserService) HandleUpdateProfile(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.UpdateProfileResponse, "userId is required")
	}

	err := s.store.UpdateUser(userID, func(u *User) error {
		if _, present := req.Data["fullName"]; present {
			u.FullName = strings.TrimSpace(req.GetString("fullName"))
		}
		if _, present := req.Data["statusMessage"]; present {
			u.StatusMessage = req.GetString("statusMessage")
		}
		if _, present := req.Data["email"]; present {
			email := strings.TrimSpace(req.GetString("email"))
			if !emailPattern.MatchString(email) {
				return errors.New("invalid email format")
			}
			u.Email = email
		}
		return nil
	})
	switch {
	case errors.Is(err, ErrNotFound):
		return protocol.Failure(protocol.UpdateProfileResponse, "unknown user")
	case err != nil:
		return protocol.Failure(protocol.UpdateProfileResponse, err.Error())
	}

	s.invalidate(userID)

	return protocol.NewResponse(protocol.UpdateProfileResponse).Set("message", "profile updated")
}

// HandleChangePassword verifies the old password and sets the new one.
func (s *UserService) HandleChangePassword(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.ChangePasswordResponse, "userId is required")
	}
	oldPassword := req.GetString("oldPassword")
	newPassword := req.GetString("newPassword")
	if len(newPassword) < minPasswordLen {
		return protocol.Failure(protocol.ChangePasswordResponse,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	u, found := s.store.GetUser(userID)
	if !found {
		return protocol.Failure(protocol.ChangePasswordResponse, "unknown user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return protocol.Failure(protocol.ChangePasswordResponse, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("bcrypt failed", logger.Field{Key: "error", Value: err})
		return protocol.Failure(protocol.ChangePasswordResponse, "could not process password")
	}

	_ = s.store.UpdateUser(userID, func(u *User) error {
		u.PasswordHash = string(hash)
		return nil
	})

	s.log.Info("password changed", logger.Field{Key: "user_id", Value: userID})

	return protocol.NewResponse(protocol.ChangePasswordResponse).Set("message", "password changed")
}

// HandleUploadAvatar stores the avatar reference. The actual bytes live in
// whatever blob store the deployment uses; the protocol carries only an
// opaque URL.
func (s *UserService) HandleUploadAvatar(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.UploadAvatarResponse, "userId is required")
	}
	avatarURL := strings.TrimSpace(req.GetString("avatarUrl"))
	if avatarURL == "" {
		return protocol.Failure(protocol.UploadAvatarResponse, "avatarUrl is required")
	}

	err := s.store.UpdateUser(userID, func(u *User) error {
		u.AvatarURL = avatarURL
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return protocol.Failure(protocol.UploadAvatarResponse, "unknown user")
	}

	s.invalidate(userID)

	return protocol.NewResponse(protocol.UploadAvatarResponse).Set("avatarUrl", avatarURL)
}

// HandleGetUserInfo returns the public profile of a user.
func (s *UserService) HandleGetUserInfo(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.GetUserInfoResponse, "userId is required")
	}

	key := profileKey(userID)
	if v, found := s.profiles.Get(key); found {
		return protocol.NewResponse(protocol.GetUserInfoResponse).Set("user", v)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if v, found := s.profiles.Get(key); found {
			return v, nil
		}

		u, found := s.store.GetUser(userID)
		if !found {
			return nil, ErrNotFound
		}

		profile := publicProfile(u)
		s.profiles.Set(key, profile, profileCacheTTL)
		return profile, nil
	})
	if errors.Is(err, ErrNotFound) {
		return protocol.Failure(protocol.GetUserInfoResponse, "unknown user")
	}
	if err != nil {
		return protocol.Failure(protocol.GetUserInfoResponse, "lookup failed")
	}

	return protocol.NewResponse(protocol.GetUserInfoResponse).Set("user", v)
}

// HandleStatusUpdate sets the user's presence status and optional status
// message. The ack reuses the STATUS_UPDATE type; the protocol has no
// dedicated response type for it.
func (s *UserService) HandleStatusUpdate(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.StatusUpdate, "userId is required")
	}
	status := UserStatus(strings.ToUpper(strings.TrimSpace(req.GetString("status"))))
	if !validStatus(status) {
		return protocol.Failure(protocol.StatusUpdate,
			fmt.Sprintf("unknown status %q", req.GetString("status")))
	}

	err := s.store.UpdateUser(userID, func(u *User) error {
		u.Status = status
		if _, present := req.Data["statusMessage"]; present {
			u.StatusMessage = req.GetString("statusMessage")
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return protocol.Failure(protocol.StatusUpdate, "unknown user")
	}

	s.invalidate(userID)

	return protocol.NewResponse(protocol.StatusUpdate).Set("status", string(status))
}

// invalidate drops the cached profile for a user after a write.
func (s *UserService) invalidate(userID int64) {
	s.profiles.Delete(profileKey(userID))
}

func profileKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// publicProfile maps a user to the payload shape shared over the wire,
// omitting credentials.
func publicProfile(u User) map[string]any {
	return map[string]any{
		"userId":        u.ID,
		"username":      u.Username,
		"email":         u.Email,
		"fullName":      u.FullName,
		"avatarUrl":     u.AvatarURL,
		"statusMessage": u.StatusMessage,
		"status":        string(u.Status),
	}
}
