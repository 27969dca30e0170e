package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"postpilot/models"
)

type GeneratedConfigRepository struct {
	col *mongo.Collection
}

func NewGeneratedConfigRepository(db *mongo.Database) *GeneratedConfigRepository {
	return &GeneratedConfigRepository{col: db.Collection("generated_configs")}
}

// ReplaceDraft replaces the draft for (analysis_id, user_id) in a single
// upsert, so concurrent regenerations are last-writer-wins and the
// one-draft-per-analysis invariant holds at every point in time. Legacy
// duplicates, if any, are swept first.
func (r *GeneratedConfigRepository) ReplaceDraft(ctx context.Context, cfg *models.GeneratedConfig) (primitive.ObjectID, error) {
	cfg.Status = models.ConfigDraft
	cfg.CreatedAt = time.Now()

	filter := bson.M{
		"analysis_id": cfg.AnalysisID,
		"user_id":     cfg.UserID,
		"status":      models.ConfigDraft,
	}

	// Self-heal: drop all but one matching draft before the upsert.
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err == nil {
		var stale []models.GeneratedConfig
		if err := cur.All(ctx, &stale); err == nil && len(stale) > 1 {
			ids := make([]primitive.ObjectID, 0, len(stale)-1)
			for _, s := range stale[:len(stale)-1] {
				ids = append(ids, s.ID)
			}
			_, _ = r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
		}
	}

	opts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var saved models.GeneratedConfig
	if err := r.col.FindOneAndReplace(ctx, filter, cfg, opts).Decode(&saved); err != nil {
		return primitive.NilObjectID, err
	}
	cfg.ID = saved.ID
	return saved.ID, nil
}

// FindDraftByAnalysis returns the current draft for the analysis, if any.
func (r *GeneratedConfigRepository) FindDraftByAnalysis(ctx context.Context, analysisID primitive.ObjectID, userID string) (*models.GeneratedConfig, error) {
	var cfg models.GeneratedConfig
	filter := bson.M{"analysis_id": analysisID, "user_id": userID, "status": models.ConfigDraft}
	if err := r.col.FindOne(ctx, filter).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DeleteByAnalysis removes every config tied to the analysis. Used by the
// cascading analysis delete.
func (r *GeneratedConfigRepository) DeleteByAnalysis(ctx context.Context, analysisID primitive.ObjectID, userID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"analysis_id": analysisID, "user_id": userID})
	return err
}
