package data

import (
	"context"
	"fmt"
	"time"

	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MigrationHistoryRepository stores the append-only log of backfill runs.
type MigrationHistoryRepository struct {
	store[MigrationHistoryEntry, *MigrationHistoryEntry]
}

// NewMigrationHistoryRepository creates a new MigrationHistoryRepository.
func NewMigrationHistoryRepository(db *mongo.Database) *MigrationHistoryRepository {
	return &MigrationHistoryRepository{
		store: newStore[MigrationHistoryEntry](db, MigrationHistoryCollection, bson.D{{Key: "started_at", Value: -1}}, "migration"),
	}
}

// Create appends a new run entry.
func (r *MigrationHistoryRepository) Create(ctx context.Context, e *MigrationHistoryEntry) error {
	if e.Logs == nil {
		e.Logs = []string{}
	}
	return r.insert(ctx, e)
}

// Save overwrites the mutable state of a run entry.
func (r *MigrationHistoryRepository) Save(ctx context.Context, e *MigrationHistoryEntry) error {
	return r.set(ctx, e.ID, bson.M{
		"status":          e.Status,
		"progress":        e.Progress,
		"total":           e.Total,
		"processed":       e.Processed,
		"updated":         e.Updated,
		"skipped":         e.Skipped,
		"failed":          e.Failed,
		"processing_rate": e.ProcessingRate,
		"finished_at":     e.FinishedAt,
		"error":           e.Error,
		"logs":            e.Logs,
	})
}

// GetByID finds a run entry by its ID.
func (r *MigrationHistoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*MigrationHistoryEntry, error) {
	return r.get(ctx, id)
}

// List returns run entries newest first, optionally for one migration.
func (r *MigrationHistoryRepository) List(ctx context.Context, migration string, p pagination.Params) ([]*MigrationHistoryEntry, int64, error) {
	filter := bson.M{}
	if migration != "" {
		filter["migration"] = migration
	}
	return r.list(ctx, filter, p)
}

// CountByStatus returns the number of entries per status.
func (r *MigrationHistoryRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: live(nil)}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate migration history: %w", err)
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode migration history counts: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// MarkInterrupted fails entries left running by a previous process.
func (r *MigrationHistoryRepository) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := r.coll.UpdateMany(ctx, live(bson.M{"status": MigrationRunning}), bson.M{
		"$set": bson.M{
			"status":      MigrationFailed,
			"error":       "interrupted by server restart",
			"finished_at": time.Now().UTC(),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark interrupted migrations: %w", err)
	}
	return res.ModifiedCount, nil
}

// LegacyDocument is the minimal projection of a document awaiting backfill.
type LegacyDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	CompanyName string             `bson:"company_name"`
}

// BackfillRepository reads and patches documents missing a company_id.
type BackfillRepository struct {
	db *mongo.Database
}

// NewBackfillRepository creates a new BackfillRepository.
func NewBackfillRepository(db *mongo.Database) *BackfillRepository {
	return &BackfillRepository{db: db}
}

func missingCompany() bson.M {
	return live(bson.M{"$or": bson.A{
		bson.M{"company_id": bson.M{"$exists": false}},
		bson.M{"company_id": nil},
	}})
}

// PendingCompanyID lists every live document in collection without a company_id.
func (r *BackfillRepository) PendingCompanyID(ctx context.Context, collection string) ([]LegacyDocument, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "company_name": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.db.Collection(collection).Find(ctx, missingCompany(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s for backfill: %w", collection, err)
	}
	docs := []LegacyDocument{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s for backfill: %w", collection, err)
	}
	return docs, nil
}

// SetCompanyID attaches companyID to a document that still lacks one.
// It reports whether the document was modified.
func (r *BackfillRepository) SetCompanyID(ctx context.Context, collection string, id, companyID primitive.ObjectID) (bool, error) {
	filter := missingCompany()
	filter["_id"] = id
	res, err := r.db.Collection(collection).UpdateOne(ctx, filter, bson.M{"$set": bson.M{"company_id": companyID}})
	if err != nil {
		return false, fmt.Errorf("failed to set company_id on %s/%s: %w", collection, id.Hex(), err)
	}
	return res.ModifiedCount == 1, nil
}
