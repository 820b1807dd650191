package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tieubaoca/pdfchat-be/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type documentRepo struct {
	collection *mongo.Collection
}

func NewDocumentRepo(collection *mongo.Collection) DocumentRepo {
	return &documentRepo{
		collection: collection,
	}
}

func (r *documentRepo) Create(ctx context.Context, doc *types.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.UploadStatus == "" {
		doc.UploadStatus = types.UploadStatusPending
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert document: %v", err)
	}
	return nil
}

func (r *documentRepo) findOne(ctx context.Context, filter bson.M) (*types.Document, error) {
	var doc types.Document
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %v", err)
	}
	return &doc, nil
}

func (r *documentRepo) FindOwned(ctx context.Context, id, userID string) (*types.Document, error) {
	return r.findOne(ctx, bson.M{"_id": id, "user_id": userID})
}

func (r *documentRepo) FindOwnedByKey(ctx context.Context, key, userID string) (*types.Document, error) {
	return r.findOne(ctx, bson.M{"key": key, "user_id": userID})
}

func (r *documentRepo) ListByUser(ctx context.Context, userID string) ([]types.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %v", err)
	}
	docs := []types.Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %v", err)
	}
	return docs, nil
}

func (r *documentRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id string, status types.UploadStatus, pageCount int) error {
	set := bson.M{"upload_status": status, "updated_at": time.Now().UTC()}
	if pageCount > 0 {
		set["page_count"] = pageCount
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update document status: %v", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *documentRepo) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*types.Document, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc types.Document
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %v", err)
	}
	return &doc, nil
}

func (r *documentRepo) Update(ctx context.Context, id, userID string, req types.UpdateDocumentRequest) (*types.Document, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.IconIndex != nil {
		set["icon_index"] = *req.IconIndex
	}
	if req.ColorIndex != nil {
		set["color_index"] = *req.ColorIndex
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, bson.M{"$set": set})
}

func (r *documentRepo) IncrementViews(ctx context.Context, id, userID string) (*types.Document, error) {
	return r.findOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, bson.M{"$inc": bson.M{"view_count": 1}})
}

func (r *documentRepo) Delete(ctx context.Context, id, userID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete document: %v", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *documentRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
