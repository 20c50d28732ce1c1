package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	profileserrors "jdpanel/internal/profiles/errors"
	"jdpanel/pkg/config"
	"jdpanel/pkg/model"
)

const (
	CollectionName = "Profiles"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, tenantID string) (*model.Profile, error)
	// Upsert sets fields on the tenant's profile, creating it when missing.
	Upsert(ctx context.Context, tenantID string, fields bson.M) (*model.Profile, error)
}

type mongoProfileRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoProfileRepository(cfg *config.Config) ProfileRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProfileRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoProfileRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	// Use the shorter of remaining time or requested timeout
	if remaining := time.Until(deadline); remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoProfileRepository) FindByID(ctx context.Context, tenantID string) (*model.Profile, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var profile model.Profile
	err := r.collection.FindOne(ctx, bson.M{"_id": tenantID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", profileserrors.ErrNotFound, tenantID)
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return &profile, nil
}

func (r *mongoProfileRepository) Upsert(ctx context.Context, tenantID string, fields bson.M) (*model.Profile, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var profile model.Profile
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": tenantID}, bson.M{"$set": set}, opts).Decode(&profile)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return &profile, nil
}
