package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tieubaoca/pdfchat-be/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type messageRepo struct {
	collection *mongo.Collection
}

func NewMessageRepo(collection *mongo.Collection) MessageRepo {
	return &messageRepo{
		collection: collection,
	}
}

// newMessageID returns a UUIDv7; its string form sorts by creation time.
func newMessageID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (r *messageRepo) Append(ctx context.Context, documentID, userID string, isUserMessage bool, text string) (*types.Message, error) {
	id, err := newMessageID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %v", err)
	}
	msg := &types.Message{
		ID:            id,
		DocumentID:    documentID,
		UserID:        userID,
		IsUserMessage: isUserMessage,
		Text:          text,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to insert message: %v", err)
	}
	return msg, nil
}

func (r *messageRepo) RecentWindow(ctx context.Context, documentID, before string, limit int) ([]types.Message, error) {
	if limit <= 0 {
		return []types.Message{}, nil
	}
	filter := bson.M{"document_id": documentID}
	if before != "" {
		filter["_id"] = bson.M{"$lt": before}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %v", err)
	}
	msgs := []types.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %v", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *messageRepo) Page(ctx context.Context, documentID, cursor string, limit int) (*types.MessagePage, error) {
	filter := bson.M{"document_id": documentID}
	if cursor != "" {
		filter["_id"] = bson.M{"$lte": cursor}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %v", err)
	}
	msgs := []types.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %v", err)
	}
	return newPage(msgs, limit), nil
}

// newPage trims a newest-first slice fetched with limit+1 rows.
func newPage(msgs []types.Message, limit int) *types.MessagePage {
	page := &types.MessagePage{Messages: msgs}
	if len(msgs) > limit {
		page.NextCursor = msgs[limit].ID
		page.Messages = msgs[:limit]
	}
	return page
}

func (r *messageRepo) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"document_id": documentID})
}

func (r *messageRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"document_id": documentID})
	return err
}

func (r *messageRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
