package user

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"gomessenger/internal/common"
	"gomessenger/internal/dbmysql"
)

var (
	ErrSelfRequest      = errors.New("cannot send a friend request to yourself")
	ErrRequestExists    = errors.New("a friendship or request already exists for this pair")
	ErrNoPendingRequest = errors.New("no pending friend request for this pair")
	ErrWrongResponder   = errors.New("only the requested user may respond to this request")
	ErrNotFriends       = errors.New("users are not friends")
)

// FriendService drives the friendship state machine:
//
//	NONE --request--> PENDING --accept--> ACCEPTED
//	                  PENDING --reject--> REJECTED
//
// ACCEPTED and REJECTED are terminal for the pair. Roles are fixed at
// creation: accept/reject must be invoked with the original direction and
// only by the requested user.
type FriendService interface {
	SendRequest(ctx context.Context, from, to string) error
	Accept(ctx context.Context, from, to string) error
	Reject(ctx context.Context, from, to string) error
	Status(ctx context.Context, a, b string) (string, error)
	// AreFriends is the messaging gate: only ACCEPTED pairs may open a
	// private conversation or exchange PMs.
	AreFriends(ctx context.Context, a, b string) (bool, error)
	PendingFor(ctx context.Context, username string) ([]*dbmysql.Friendship, error)
}

type friendService struct {
	friends FriendRepository
	users   UserRepository
	notifs  common.NotificationSink
}

func NewFriendService(friends FriendRepository, users UserRepository, notifs common.NotificationSink) FriendService {
	return &friendService{friends: friends, users: users, notifs: notifs}
}

func (s *friendService) SendRequest(ctx context.Context, from, to string) error {
	if from == to {
		return ErrSelfRequest
	}
	if err := common.ValidateUsername(to); err != nil {
		return err
	}
	ok, err := s.users.Exists(ctx, to)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	_, err = s.friends.GetByPair(ctx, from, to)
	if err == nil {
		return ErrRequestExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.friends.Create(ctx, &dbmysql.Friendship{
		User1:  from,
		User2:  to,
		Status: dbmysql.FriendPending,
	}); err != nil {
		return err
	}
	s.notifs.CreateNotification(to, common.NotifFriendRequest, from)
	return nil
}

func (s *friendService) Accept(ctx context.Context, from, to string) error {
	if err := s.respond(ctx, from, to, dbmysql.FriendAccepted); err != nil {
		return err
	}
	s.notifs.CreateNotification(from, common.NotifFriendAccepted, to)
	return nil
}

func (s *friendService) Reject(ctx context.Context, from, to string) error {
	if err := s.respond(ctx, from, to, dbmysql.FriendRejected); err != nil {
		return err
	}
	s.notifs.CreateNotification(from, common.NotifFriendRejected, to)
	return nil
}

// respond flips the pending row created by from→to into status. The acting
// user is to; a row that exists in the opposite direction does not satisfy
// the transition.
func (s *friendService) respond(ctx context.Context, from, to, status string) error {
	f, err := s.friends.GetByPair(ctx, from, to)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoPendingRequest
	}
	if err != nil {
		return err
	}
	if f.Status != dbmysql.FriendPending {
		return ErrNoPendingRequest
	}
	if f.User1 != from || f.User2 != to {
		return ErrWrongResponder
	}

	now := time.Now()
	f.Status = status
	f.RespondedAt = &now
	return s.friends.Update(ctx, f)
}

func (s *friendService) Status(ctx context.Context, a, b string) (string, error) {
	f, err := s.friends.GetByPair(ctx, a, b)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return f.Status, nil
}

func (s *friendService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	status, err := s.Status(ctx, a, b)
	if err != nil {
		return false, err
	}
	return status == dbmysql.FriendAccepted, nil
}

func (s *friendService) PendingFor(ctx context.Context, username string) ([]*dbmysql.Friendship, error) {
	return s.friends.ListPendingFor(ctx, username)
}
