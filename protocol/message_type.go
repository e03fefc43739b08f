// Package protocol defines the wire envelope exchanged between chat clients
// and the server: a closed set of message types and a Packet value that is
// encoded as exactly one LF-terminated JSON line. The package performs no
// I/O; framing (reading and writing lines) belongs to the transport layer.
package protocol

// MessageType identifies the kind of a Packet. The set of types is closed:
// Decode rejects any value not defined in this package.
type MessageType string

// Request message types sent by clients.
const (
	LoginRequest              MessageType = "LOGIN_REQUEST"
	RegisterRequest           MessageType = "REGISTER_REQUEST"
	LogoutRequest             MessageType = "LOGOUT_REQUEST"
	VerifyOTPRequest          MessageType = "VERIFY_OTP_REQUEST"
	ResendOTPRequest          MessageType = "RESEND_OTP_REQUEST"
	ForgotPasswordRequest     MessageType = "FORGOT_PASSWORD_REQUEST"
	ResetPasswordRequest      MessageType = "RESET_PASSWORD_REQUEST"
	UpdateProfileRequest      MessageType = "UPDATE_PROFILE_REQUEST"
	ChangePasswordRequest     MessageType = "CHANGE_PASSWORD_REQUEST"
	UploadAvatarRequest       MessageType = "UPLOAD_AVATAR_REQUEST"
	GetUserInfoRequest        MessageType = "GET_USER_INFO_REQUEST"
	StatusUpdate              MessageType = "STATUS_UPDATE"
	AddFriendRequest          MessageType = "ADD_FRIEND_REQUEST"
	AcceptFriendRequest       MessageType = "ACCEPT_FRIEND_REQUEST"
	RejectFriendRequest       MessageType = "REJECT_FRIEND_REQUEST"
	UnfriendRequest           MessageType = "UNFRIEND_REQUEST"
	BlockFriendRequest        MessageType = "BLOCK_FRIEND_REQUEST"
	GetFriendsRequest         MessageType = "GET_FRIENDS_REQUEST"
	GetPendingRequestsRequest MessageType = "GET_PENDING_REQUESTS_REQUEST"
	SearchUsersRequest        MessageType = "SEARCH_USERS_REQUEST"
)

// Response message types sent by the server. STATUS_UPDATE is acknowledged
// with its own type; the protocol defines no STATUS_UPDATE_RESPONSE.
const (
	LoginResponse              MessageType = "LOGIN_RESPONSE"
	RegisterResponse           MessageType = "REGISTER_RESPONSE"
	LogoutResponse             MessageType = "LOGOUT_RESPONSE"
	VerifyOTPResponse          MessageType = "VERIFY_OTP_RESPONSE"
	ResendOTPResponse          MessageType = "RESEND_OTP_RESPONSE"
	ForgotPasswordResponse     MessageType = "FORGOT_PASSWORD_RESPONSE"
	ResetPasswordResponse      MessageType = "RESET_PASSWORD_RESPONSE"
	UpdateProfileResponse      MessageType = "UPDATE_PROFILE_RESPONSE"
	ChangePasswordResponse     MessageType = "CHANGE_PASSWORD_RESPONSE"
	UploadAvatarResponse       MessageType = "UPLOAD_AVATAR_RESPONSE"
	GetUserInfoResponse        MessageType = "GET_USER_INFO_RESPONSE"
	AddFriendResponse          MessageType = "ADD_FRIEND_RESPONSE"
	AcceptFriendResponse       MessageType = "ACCEPT_FRIEND_RESPONSE"
	RejectFriendResponse       MessageType = "REJECT_FRIEND_RESPONSE"
	UnfriendResponse           MessageType = "UNFRIEND_RESPONSE"
	BlockFriendResponse        MessageType = "BLOCK_FRIEND_RESPONSE"
	GetFriendsResponse         MessageType = "GET_FRIENDS_RESPONSE"
	GetPendingRequestsResponse MessageType = "GET_PENDING_REQUESTS_RESPONSE"
	SearchUsersResponse        MessageType = "SEARCH_USERS_RESPONSE"
	Error                      MessageType = "ERROR"
)

// responseFor maps each request type to the type its response carries.
var responseFor = map[MessageType]MessageType{
	LoginRequest:              LoginResponse,
	RegisterRequest:           RegisterResponse,
	LogoutRequest:             LogoutResponse,
	VerifyOTPRequest:          VerifyOTPResponse,
	ResendOTPRequest:          ResendOTPResponse,
	ForgotPasswordRequest:     ForgotPasswordResponse,
	ResetPasswordRequest:      ResetPasswordResponse,
	UpdateProfileRequest:      UpdateProfileResponse,
	ChangePasswordRequest:     ChangePasswordResponse,
	UploadAvatarRequest:       UploadAvatarResponse,
	GetUserInfoRequest:        GetUserInfoResponse,
	StatusUpdate:              StatusUpdate,
	AddFriendRequest:          AddFriendResponse,
	AcceptFriendRequest:       AcceptFriendResponse,
	RejectFriendRequest:       RejectFriendResponse,
	UnfriendRequest:           UnfriendResponse,
	BlockFriendRequest:        BlockFriendResponse,
	GetFriendsRequest:         GetFriendsResponse,
	GetPendingRequestsRequest: GetPendingRequestsResponse,
	SearchUsersRequest:        SearchUsersResponse,
}

// validTypes holds every recognized enumerant, request and response alike.
var validTypes = func() map[MessageType]struct{} {
	m := make(map[MessageType]struct{}, 2*len(responseFor)+1)
	for req, resp := range responseFor {
		m[req] = struct{}{}
		m[resp] = struct{}{}
	}
	m[Error] = struct{}{}
	return m
}()

// Valid reports whether t is a member of the closed message type set.
//
// Returns:
//   - true if t is a recognized request or response type, false otherwise
func (t MessageType) Valid() bool {
	_, ok := validTypes[t]
	return ok
}

// IsRequest reports whether t denotes a client-to-server request.
//
// Returns:
//   - true if t is a request type, false for response types and ERROR
func (t MessageType) IsRequest() bool {
	_, ok := responseFor[t]
	return ok
}

// ResponseType returns the message type a well-formed response to a request
// of type t must carry. For types that are not requests it returns Error,
// which is the only type a server may answer with unconditionally.
//
// Returns:
//   - The paired response type, or Error if t is not a request type
func (t MessageType) ResponseType() MessageType {
	if resp, ok := responseFor[t]; ok {
		return resp
	}
	return Error
}

// String returns the wire name of the message type.
func (t MessageType) String() string {
	return string(t)
}
