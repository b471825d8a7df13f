package dao

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gmkornilov/chess-puzzle-trainer/internal/db"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
)

// PuzzleRepository is the Mongo backed puzzle catalog.
type PuzzleRepository struct {
	dbClient *db.DbClient
	timeout  time.Duration
}

func NewPuzzleRepository(dbClient *db.DbClient, timeout time.Duration) *PuzzleRepository {
	return &PuzzleRepository{dbClient: dbClient, timeout: timeout}
}

// EnsureIndexes creates the rating index used by Random and RatingRange.
func (r *PuzzleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.dbClient.PuzzleCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{"rating", 1}},
	})
	return err
}

func filterDocument(f puzzle.Filter) bson.D {
	doc := bson.D{}
	rating := bson.D{}
	if f.MinRating != nil {
		rating = append(rating, bson.E{"$gte", *f.MinRating})
	}
	if f.MaxRating != nil {
		rating = append(rating, bson.E{"$lte", *f.MaxRating})
	}
	if len(rating) > 0 {
		doc = append(doc, bson.E{"rating", rating})
	}
	if f.Theme != "" {
		doc = append(doc, bson.E{"themes", bson.D{{"$regex", regexp.QuoteMeta(f.Theme)}}})
	}
	return doc
}

func randomPipeline(f puzzle.Filter) mongo.Pipeline {
	matchStage := bson.D{{"$match", filterDocument(f)}}
	sampleStage := bson.D{{"$sample", bson.D{{"size", 1}}}}
	return mongo.Pipeline{matchStage, sampleStage}
}

func (r *PuzzleRepository) Random(ctx context.Context, f puzzle.Filter) (puzzle.Puzzle, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.dbClient.PuzzleCollection.Aggregate(ctx, randomPipeline(f))
	if err != nil {
		return puzzle.Puzzle{}, err
	}

	var loaded []puzzle.Puzzle
	if err = cursor.All(ctx, &loaded); err != nil {
		return puzzle.Puzzle{}, err
	}
	switch len(loaded) {
	case 0:
		return puzzle.Puzzle{}, puzzle.ErrNotFound
	case 1:
		return loaded[0], nil
	default:
		return puzzle.Puzzle{}, fmt.Errorf("aggregate with $sample size 1 returned %d documents", len(loaded))
	}
}

var ratingRangePipeline = mongo.Pipeline{
	bson.D{{"$group", bson.D{
		{"_id", nil},
		{"min", bson.D{{"$min", "$rating"}}},
		{"max", bson.D{{"$max", "$rating"}}},
	}}},
}

func (r *PuzzleRepository) RatingRange(ctx context.Context) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.dbClient.PuzzleCollection.Aggregate(ctx, ratingRangePipeline)
	if err != nil {
		return 0, 0, err
	}
	var res []struct {
		Min int `bson:"min"`
		Max int `bson:"max"`
	}
	if err = cursor.All(ctx, &res); err != nil {
		return 0, 0, err
	}
	if len(res) == 0 {
		return 0, 0, puzzle.ErrNotFound
	}
	return res[0].Min, res[0].Max, nil
}

func (r *PuzzleRepository) Themes(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	values, err := r.dbClient.PuzzleCollection.Distinct(ctx, "themes", bson.D{})
	if err != nil {
		return nil, err
	}
	return puzzle.SplitThemes(distinctStrings(values)), nil
}

func distinctStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (r *PuzzleRepository) Insert(ctx context.Context, p puzzle.Puzzle) error {
	return r.InsertMany(ctx, []puzzle.Puzzle{p})
}

// InsertMany upserts puzzles by id, so importing the same data twice leaves
// one copy.
func (r *PuzzleRepository) InsertMany(ctx context.Context, puzzles []puzzle.Puzzle) error {
	if len(puzzles) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.dbClient.PuzzleCollection.BulkWrite(ctx, upsertModels(puzzles), options.BulkWrite().SetOrdered(false))
	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) {
		return fmt.Errorf("%d of %d puzzles not written: %w", len(bulkErr.WriteErrors), len(puzzles), err)
	}
	return err
}

func upsertModels(puzzles []puzzle.Puzzle) []mongo.WriteModel {
	models := make([]mongo.WriteModel, len(puzzles))
	for i, p := range puzzles {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{{"_id", p.ID}}).
			SetReplacement(p).
			SetUpsert(true)
	}
	return models
}
