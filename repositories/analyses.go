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

type AnalysisRepository struct {
	col *mongo.Collection
}

func NewAnalysisRepository(db *mongo.Database) *AnalysisRepository {
	return &AnalysisRepository{col: db.Collection("analyses")}
}

// Insert creates a new analysis record in status pending.
func (r *AnalysisRepository) Insert(ctx context.Context, a *models.Analysis) (primitive.ObjectID, error) {
	now := time.Now()
	a.Status = models.StatusPending
	a.CreatedAt = now
	a.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, a)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	a.ID = id
	return id, nil
}

// FindOwned returns the record only if it belongs to userID. Missing and
// not-owned are indistinguishable to the caller.
func (r *AnalysisRepository) FindOwned(ctx context.Context, id primitive.ObjectID, userID string) (*models.Analysis, error) {
	var a models.Analysis
	if err := r.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByUser returns the owner's records, newest first.
func (r *AnalysisRepository) ListByUser(ctx context.Context, userID string) ([]models.Analysis, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Analysis
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetRawData stores adapter output and resets the record for a fresh
// analysis run: status back to pending, prior error and result cleared.
func (r *AnalysisRepository) SetRawData(ctx context.Context, id primitive.ObjectID, userID string, raw *models.RawData, itemCount int, displayName string) error {
	set := bson.M{
		"raw_data":   raw,
		"item_count": itemCount,
		"status":     models.StatusPending,
		"updated_at": time.Now(),
	}
	if displayName != "" {
		set["source_display_name"] = displayName
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{
			"$set":   set,
			"$unset": bson.M{"error_message": "", "analysis_result": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkIngestionFailed records a failed ingestion attempt without touching
// any previously stored raw data.
func (r *AnalysisRepository) MarkIngestionFailed(ctx context.Context, id primitive.ObjectID, userID string, msg string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{
			"$set":   bson.M{"status": models.StatusFailed, "error_message": msg, "updated_at": time.Now()},
			"$unset": bson.M{"analysis_result": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// BeginAnalysis attempts the pending -> analyzing transition. The filter
// requires raw_data to be present, so the transition can never fire on an
// empty record. Returns false when the record is not in pending anymore.
func (r *AnalysisRepository) BeginAnalysis(ctx context.Context, id primitive.ObjectID, userID string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"_id":      id,
			"user_id":  userID,
			"status":   models.StatusPending,
			"raw_data": bson.M{"$ne": nil},
		},
		bson.M{"$set": bson.M{"status": models.StatusAnalyzing, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// CompleteAnalysis writes the terminal completed state, guarded on the
// record still being in analyzing. A lost guard means another writer took
// over and the result is discarded.
func (r *AnalysisRepository) CompleteAnalysis(ctx context.Context, id primitive.ObjectID, result *models.AnalysisResult) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusAnalyzing},
		bson.M{
			"$set":   bson.M{"status": models.StatusCompleted, "analysis_result": result, "updated_at": time.Now()},
			"$unset": bson.M{"error_message": ""},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// FailAnalysis writes the terminal failed state with a human-readable
// message, guarded like CompleteAnalysis.
func (r *AnalysisRepository) FailAnalysis(ctx context.Context, id primitive.ObjectID, msg string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusAnalyzing},
		bson.M{
			"$set":   bson.M{"status": models.StatusFailed, "error_message": msg, "updated_at": time.Now()},
			"$unset": bson.M{"analysis_result": ""},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Delete removes the owner's record.
func (r *AnalysisRepository) Delete(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
