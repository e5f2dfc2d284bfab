package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wordnest/wordnest-api/domain"
)

// SocialLinkRepository implements domain.SocialLinkRepository.
type SocialLinkRepository struct {
	links *mongo.Collection
}

// NewSocialLinkRepository creates the repository and ensures its indexes.
func NewSocialLinkRepository(ctx context.Context, db *mongo.Database) (*SocialLinkRepository, error) {
	repo := &SocialLinkRepository{links: db.Collection(SocialLinksCollection)}
	if err := repo.createIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SocialLinkRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}
	if _, err := r.links.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("creating indexes for %s: %w", SocialLinksCollection, err)
	}
	return nil
}

func (r *SocialLinkRepository) CreateLink(ctx context.Context, link *domain.SocialLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	link.UpdatedAt = now

	if _, err := r.links.InsertOne(ctx, link); err != nil {
		return translateDuplicate(err)
	}
	return nil
}

func (r *SocialLinkRepository) GetLinkByExternalID(ctx context.Context, provider domain.Provider, externalID string) (*domain.SocialLink, error) {
	var link domain.SocialLink
	err := r.links.FindOne(ctx, bson.M{"provider": provider, "external_id": externalID}).Decode(&link)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding social link: %w", err)
	}
	return &link, nil
}

func (r *SocialLinkRepository) ListLinksByUserID(ctx context.Context, userID string) ([]*domain.SocialLink, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.links.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing social links: %w", err)
	}
	defer cursor.Close(ctx)

	var links []*domain.SocialLink
	if err := cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("decoding social links: %w", err)
	}
	return links, nil
}
