package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gmkornilov/chess-puzzle-trainer/internal/config"
)

type DbClient struct {
	client             *mongo.Client
	PuzzleCollection   *mongo.Collection
	ProgressCollection *mongo.Collection
}

func (r *DbClient) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func NewDbClient(ctx context.Context, cfg *config.Configuration) (*DbClient, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.Database.Address).
		SetTimeout(cfg.Database.Timeout)

	dbClient := &DbClient{}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}
	dbClient.client = client

	err = client.Ping(ctx, nil)
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping %s: %w", cfg.Database.Address, err)
	}

	database := client.Database(cfg.Database.DatabaseName)
	dbClient.PuzzleCollection = database.Collection(cfg.Database.PuzzleCollection)
	dbClient.ProgressCollection = database.Collection(cfg.Database.ProgressCollection)
	return dbClient, nil
}
