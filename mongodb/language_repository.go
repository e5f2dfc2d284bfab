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

// LanguageRepository implements domain.LanguageRepository.
type LanguageRepository struct {
	languages *mongo.Collection
}

// NewLanguageRepository creates the repository and ensures its indexes.
func NewLanguageRepository(ctx context.Context, db *mongo.Database) (*LanguageRepository, error) {
	repo := &LanguageRepository{languages: db.Collection(LanguagesCollection)}
	if err := repo.createIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *LanguageRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := r.languages.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("creating indexes for %s: %w", LanguagesCollection, err)
	}
	return nil
}

func (r *LanguageRepository) CreateLanguage(ctx context.Context, lang *domain.Language) error {
	if lang.ID == "" {
		lang.ID = uuid.NewString()
	}
	if lang.CreatedAt.IsZero() {
		lang.CreatedAt = time.Now().UTC()
	}

	if _, err := r.languages.InsertOne(ctx, lang); err != nil {
		return translateDuplicate(err)
	}
	return nil
}

func (r *LanguageRepository) GetLanguageByID(ctx context.Context, id string) (*domain.Language, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *LanguageRepository) GetLanguageByCode(ctx context.Context, code string) (*domain.Language, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *LanguageRepository) findOne(ctx context.Context, filter bson.M) (*domain.Language, error) {
	var lang domain.Language
	err := r.languages.FindOne(ctx, filter).Decode(&lang)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrLanguageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding language: %w", err)
	}
	return &lang, nil
}

func (r *LanguageRepository) ListLanguages(ctx context.Context) ([]*domain.Language, error) {
	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	cursor, err := r.languages.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing languages: %w", err)
	}
	defer cursor.Close(ctx)

	var langs []*domain.Language
	if err := cursor.All(ctx, &langs); err != nil {
		return nil, fmt.Errorf("decoding languages: %w", err)
	}
	return langs, nil
}
