package services

import (
	"context"
	"fmt"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/log"
)

type UserService struct {
	store  UserStore
	events eventSink
}

// NewUserService wires the user store. publisher may be nil.
func NewUserService(store UserStore, publisher EventPublisher) *UserService {
	return &UserService{store: store, events: eventSink{publisher: publisher}}
}

// Register validates n and creates the user. A taken email yields
// core.ErrConflict.
func (s *UserService) Register(ctx context.Context, n core.NewUser) (core.User, error) {
	if err := n.Validate(); err != nil {
		return core.User{}, err
	}

	u, err := s.store.CreateUser(ctx, n)
	if err != nil {
		return core.User{}, fmt.Errorf("register: %w", err)
	}

	log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentAuth)).
		LogMutation(ctx, "User registered", log.OpRegister, log.NewFields().WithUser(u.ID))
	s.events.publish(ctx, amqp.NewEvent(amqp.EventUserRegistered, u.ID))
	return u, nil
}

// Login returns core.ErrInvalidCredentials for an unknown email or a wrong
// password alike.
func (s *UserService) Login(ctx context.Context, email, password string) (core.User, error) {
	u, err := s.store.VerifyPassword(ctx, email, password)
	if err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (s *UserService) User(ctx context.Context, id int64) (core.User, error) {
	return s.store.GetUserByID(ctx, id)
}
