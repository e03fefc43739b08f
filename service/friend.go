package service

import (
	"github.com/cyberinferno/go-chat-server/logger"
	"github.com/cyberinferno/go-chat-server/protocol"
)

// Presence answers whether a user currently has a live connection. The
// connection registry satisfies this; the indirection keeps the service
// layer free of a dependency on the transport.
type Presence interface {
	IsOnline(userID int64) bool
}

// FriendService handles the friend graph: requests, accept/reject,
// unfriend, block, listings and user search.
type FriendService struct {
	store    *Store
	presence Presence
	log      logger.Logger
}

// NewFriendService builds a FriendService.
//
// Parameters:
//   - store: The user store
//   - presence: Source of online/offline flags for friend listings
//   - log: Logger; nil means no logging
//
// Returns:
//   - A new FriendService
func NewFriendService(store *Store, presence Presence, log logger.Logger) *FriendService {
	if log == nil {
		log = logger.Nop()
	}
	return &FriendService{store: store, presence: presence, log: log}
}

// HandleAddFriend creates a pending friend request from userId to targetId.
func (s *FriendService) HandleAddFriend(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.AddFriendResponse, "userId is required")
	}
	targetID, ok := req.GetInt64("targetId")
	if !ok {
		return protocol.Failure(protocol.AddFriendResponse, "targetId is required")
	}
	if userID == targetID {
		return protocol.Failure(protocol.AddFriendResponse, "cannot add yourself")
	}
	if _, found := s.store.GetUser(targetID); !found {
		return protocol.Failure(protocol.AddFriendResponse, "unknown user")
	}

	if f, found := s.store.GetFriendship(userID, targetID); found {
		switch f.State {
		case FriendAccepted:
			return protocol.Failure(protocol.AddFriendResponse, "already friends")
		case FriendBlocked:
			return protocol.Failure(protocol.AddFriendResponse, "cannot send friend request")
		case FriendPending:
			if f.RequesterID == userID {
				return protocol.Failure(protocol.AddFriendResponse, "request already pending")
			}
			// The other side already asked; treat this as an accept.
			s.store.PutFriendship(Friendship{RequesterID: f.RequesterID, AddresseeID: f.AddresseeID, State: FriendAccepted})
			return protocol.NewResponse(protocol.AddFriendResponse).Set("message", "friend request accepted")
		}
	}

	s.store.PutFriendship(Friendship{RequesterID: userID, AddresseeID: targetID, State: FriendPending})
	s.log.Info("friend request sent",
		logger.Field{Key: "from", Value: userID},
		logger.Field{Key: "to", Value: targetID})

	return protocol.NewResponse(protocol.AddFriendResponse).Set("message", "friend request sent")
}

// HandleAcceptFriend accepts a pending request addressed to userId.
func (s *FriendService) HandleAcceptFriend(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.AcceptFriendResponse, "userId is required")
	}
	requesterID, ok := req.GetInt64("requesterId")
	if !ok {
		return protocol.Failure(protocol.AcceptFriendResponse, "requesterId is required")
	}

	f, found := s.store.GetFriendship(userID, requesterID)
	if !found || f.State != FriendPending || f.AddresseeID != userID {
		return protocol.Failure(protocol.AcceptFriendResponse, "no pending request from that user")
	}

	s.store.PutFriendship(Friendship{RequesterID: f.RequesterID, AddresseeID: f.AddresseeID, State: FriendAccepted})

	return protocol.NewResponse(protocol.AcceptFriendResponse).Set("message", "friend request accepted")
}

// HandleRejectFriend drops a pending request addressed to userId.
func (s *FriendService) HandleRejectFriend(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.RejectFriendResponse, "userId is required")
	}
	requesterID, ok := req.GetInt64("requesterId")
	if !ok {
		return protocol.Failure(protocol.RejectFriendResponse, "requesterId is required")
	}

	f, found := s.store.GetFriendship(userID, requesterID)
	if !found || f.State != FriendPending || f.AddresseeID != userID {
		return protocol.Failure(protocol.RejectFriendResponse, "no pending request from that user")
	}

	s.store.DeleteFriendship(userID, requesterID)

	return protocol.NewResponse(protocol.RejectFriendResponse).Set("message", "friend request rejected")
}

// HandleUnfriend removes an accepted friendship.
func (s *FriendService) HandleUnfriend(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.UnfriendResponse, "userId is required")
	}
	friendID, ok := req.GetInt64("friendId")
	if !ok {
		return protocol.Failure(protocol.UnfriendResponse, "friendId is required")
	}

	f, found := s.store.GetFriendship(userID, friendID)
	if !found || f.State != FriendAccepted {
		return protocol.Failure(protocol.UnfriendResponse, "not friends with that user")
	}

	s.store.DeleteFriendship(userID, friendID)

	return protocol.NewResponse(protocol.UnfriendResponse).Set("message", "unfriended")
}

// HandleBlockFriend blocks another user, replacing any existing edge. A
// blocked edge suppresses future friend requests in either direction until
// the blocker unfriends (which deletes the edge).
func (s *FriendService) HandleBlockFriend(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.BlockFriendResponse, "userId is required")
	}
	targetID, ok := req.GetInt64("targetId")
	if !ok {
		return protocol.Failure(protocol.BlockFriendResponse, "targetId is required")
	}
	if userID == targetID {
		return protocol.Failure(protocol.BlockFriendResponse, "cannot block yourself")
	}
	if _, found := s.store.GetUser(targetID); !found {
		return protocol.Failure(protocol.BlockFriendResponse, "unknown user")
	}

	s.store.PutFriendship(Friendship{RequesterID: userID, AddresseeID: targetID, State: FriendBlocked})
	s.log.Info("user blocked",
		logger.Field{Key: "blocker", Value: userID},
		logger.Field{Key: "blocked", Value: targetID})

	return protocol.NewResponse(protocol.BlockFriendResponse).Set("message", "user blocked")
}

// HandleGetFriends lists accepted friends with a live online flag per
// entry.
func (s *FriendService) HandleGetFriends(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.GetFriendsResponse, "userId is required")
	}

	friends := s.store.FriendsOf(userID)
	out := make([]any, 0, len(friends))
	for _, u := range friends {
		out = append(out, map[string]any{
			"userId":        u.ID,
			"username":      u.Username,
			"fullName":      u.FullName,
			"avatarUrl":     u.AvatarURL,
			"statusMessage": u.StatusMessage,
			"online":        s.presence.IsOnline(u.ID),
		})
	}

	return protocol.NewResponse(protocol.GetFriendsResponse).Set("friends", out)
}

// HandleGetPendingRequests lists incoming pending friend requests.
func (s *FriendService) HandleGetPendingRequests(req *protocol.Packet) *protocol.Packet {
	userID, ok := req.GetInt64("userId")
	if !ok {
		return protocol.Failure(protocol.GetPendingRequestsResponse, "userId is required")
	}

	pending := s.store.PendingFor(userID)
	out := make([]any, 0, len(pending))
	for _, f := range pending {
		entry := map[string]any{"requesterId": f.RequesterID}
		if u, found := s.store.GetUser(f.RequesterID); found {
			entry["username"] = u.Username
			entry["fullName"] = u.FullName
			entry["avatarUrl"] = u.AvatarURL
		}
		out = append(out, entry)
	}

	return protocol.NewResponse(protocol.GetPendingRequestsResponse).Set("requests", out)
}

// searchLimit caps SEARCH_USERS result sets.
const searchLimit = 25

// HandleSearchUsers finds users by username or full name substring.
func (s *FriendService) HandleSearchUsers(req *protocol.Packet) *protocol.Packet {
	userID, _ := req.GetInt64("userId")
	query := req.GetString("query")
	if query == "" {
		return protocol.Failure(protocol.SearchUsersResponse, "query is required")
	}

	matches := s.store.SearchUsers(query, userID, searchLimit)
	out := make([]any, 0, len(matches))
	for _, u := range matches {
		out = append(out, map[string]any{
			"userId":    u.ID,
			"username":  u.Username,
			"fullName":  u.FullName,
			"avatarUrl": u.AvatarURL,
		})
	}

	return protocol.NewResponse(protocol.SearchUsersResponse).Set("users", out)
}
