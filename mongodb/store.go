package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wordnest/wordnest-api/domain"
)

// Store combines the user and social link repositories into the
// domain.IdentityStore the reconciler works against.
type Store struct {
	*UserRepository
	*SocialLinkRepository
	client *mongo.Client
}

var _ domain.IdentityStore = (*Store)(nil)

// NewStore builds the combined store and ensures all indexes.
func NewStore(ctx context.Context, client *mongo.Client, db *mongo.Database) (*Store, error) {
	users, err := NewUserRepository(ctx, db)
	if err != nil {
		return nil, err
	}
	links, err := NewSocialLinkRepository(ctx, db)
	if err != nil {
		return nil, err
	}
	return &Store{
		UserRepository:       users,
		SocialLinkRepository: links,
		client:               client,
	}, nil
}

// CreateUserWithLink inserts the user and its first social link in one
// transaction. Requires a replica set; standalone deployments should use a
// single-node replica set, which mongod supports out of the box.
func (s *Store) CreateUserWithLink(ctx context.Context, user *domain.User, link *domain.SocialLink) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	link.UserID = user.ID

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	link.UpdatedAt = now

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := s.UserRepository.users.InsertOne(sessCtx, user); err != nil {
			return nil, translateDuplicate(err)
		}
		if _, err := s.SocialLinkRepository.links.InsertOne(sessCtx, link); err != nil {
			return nil, translateDuplicate(err)
		}
		return nil, nil
	})
	return err
}
