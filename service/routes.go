package service

import (
	"github.com/cyberinferno/go-chat-server/protocol"
	"github.com/cyberinferno/go-chat-server/router"
)

// Routes binds every request type in the protocol to its handler. The
// result is the complete dispatch table for router.New; keeping it here
// means adding a message type and forgetting its binding shows up in one
// place.
//
// Parameters:
//   - auth: Authentication service
//   - users: User/profile service
//   - friends: Friend management service
//
// Returns:
//   - Handler bindings for every request message type
func Routes(auth *AuthService, users *UserService, friends *FriendService) map[protocol.MessageType]router.Handler {
	return map[protocol.MessageType]router.Handler{
		// Authentication
		protocol.LoginRequest:          auth.HandleLogin,
		protocol.RegisterRequest:       auth.HandleRegister,
		protocol.LogoutRequest:         auth.HandleLogout,
		protocol.VerifyOTPRequest:      auth.HandleVerifyOTP,
		protocol.ResendOTPRequest:      auth.HandleResendOTP,
		protocol.ForgotPasswordRequest: auth.HandleForgotPassword,
		protocol.ResetPasswordRequest:  auth.HandleResetPassword,

		// Profile management
		protocol.UpdateProfileRequest:  users.HandleUpdateProfile,
		protocol.ChangePasswordRequest: users.HandleChangePassword,
		protocol.UploadAvatarRequest:   users.HandleUploadAvatar,
		protocol.GetUserInfoRequest:    users.HandleGetUserInfo,
		protocol.StatusUpdate:          users.HandleStatusUpdate,

		// Friend management
		protocol.AddFriendRequest:          friends.HandleAddFriend,
		protocol.AcceptFriendRequest:       friends.HandleAcceptFriend,
		protocol.RejectFriendRequest:       friends.HandleRejectFriend,
		protocol.UnfriendRequest:           friends.HandleUnfriend,
		protocol.BlockFriendRequest:        friends.HandleBlockFriend,
		protocol.GetFriendsRequest:         friends.HandleGetFriends,
		protocol.GetPendingRequestsRequest: friends.HandleGetPendingRequests,
		protocol.SearchUsersRequest:        friends.HandleSearchUsers,
	}
}
