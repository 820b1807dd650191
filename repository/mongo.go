package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	MessageCollection  = "messages"
	DocumentCollection = "documents"
	UserCollection     = "users"
)

type MongoRepos struct {
	Messages  MessageRepo
	Documents DocumentRepo
	Users     UserRepo
}

func NewMongoRepos(db *mongo.Database) *MongoRepos {
	return &MongoRepos{
		Messages:  NewMessageRepo(db.Collection(MessageCollection)),
		Documents: NewDocumentRepo(db.Collection(DocumentCollection)),
		Users:     NewUserRepo(db.Collection(UserCollection)),
	}
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(MessageCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "document_id", Value: 1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create message indexes: %v", err)
	}
	_, err = db.Collection(DocumentCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "key", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create document indexes: %v", err)
	}
	return nil
}
