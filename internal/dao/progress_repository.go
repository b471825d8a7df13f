package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gmkornilov/chess-puzzle-trainer/internal/db"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
)

// ProgressRepository stores one document per user holding the overall
// counters and a counter pair per theme.
type ProgressRepository struct {
	dbClient *db.DbClient
	timeout  time.Duration
}

type progressDocument struct {
	User   string                   `bson:"_id"`
	Played int                      `bson:"played"`
	Solved int                      `bson:"solved"`
	Themes map[string]puzzle.Counts `bson:"themes"`
}

func NewProgressRepository(dbClient *db.DbClient, timeout time.Duration) *ProgressRepository {
	return &ProgressRepository{dbClient: dbClient, timeout: timeout}
}

func recordUpdate(themes string, solvedCleanly bool) bson.D {
	solved := 0
	if solvedCleanly {
		solved = 1
	}
	inc := bson.D{{"played", 1}, {"solved", solved}}
	for _, t := range strings.Fields(themes) {
		inc = append(inc,
			bson.E{"themes." + t + ".played", 1},
			bson.E{"themes." + t + ".solved", solved})
	}
	return bson.D{{"$inc", inc}}
}

func (r *ProgressRepository) RecordAttempt(ctx context.Context, userID, themes string, solvedCleanly bool) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.dbClient.ProgressCollection.UpdateOne(ctx,
		bson.D{{"_id", userID}},
		recordUpdate(themes, solvedCleanly),
		options.Update().SetUpsert(true))
	return err
}

func (r *ProgressRepository) Stats(ctx context.Context, userID string) (puzzle.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc progressDocument
	err := r.dbClient.ProgressCollection.FindOne(ctx, bson.D{{"_id", userID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return puzzle.Summarize(userID, puzzle.Counts{}, nil), nil
	}
	if err != nil {
		return puzzle.Stats{}, err
	}
	return puzzle.Summarize(userID, puzzle.Counts{Played: doc.Played, Solved: doc.Solved}, doc.Themes), nil
}

func (r *ProgressRepository) Reset(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.dbClient.ProgressCollection.DeleteOne(ctx, bson.D{{"_id", userID}})
	return err
}
