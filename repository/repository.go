package repository

import (
	"context"
	"errors"

	"github.com/tieubaoca/pdfchat-be/types"
)

var ErrNotFound = errors.New("record not found")

// MessageRepo is the ordered per-document chat log. It does not check
// ownership; callers verify the document belongs to the requester first.
type MessageRepo interface {
	// Append assigns a time-ordered ID and a creation timestamp.
	Append(ctx context.Context, documentID, userID string, isUserMessage bool, text string) (*types.Message, error)
	// RecentWindow returns the newest limit messages with an ID below before
	// (all messages when before is empty), oldest first.
	RecentWindow(ctx context.Context, documentID, before string, limit int) ([]types.Message, error)
	// Page returns up to limit messages newest first, starting at cursor
	// when it is set. NextCursor is the ID of the first message not returned.
	Page(ctx context.Context, documentID, cursor string, limit int) (*types.MessagePage, error)
	CountByDocument(ctx context.Context, documentID string) (int64, error)
	DeleteByDocument(ctx context.Context, documentID string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type DocumentRepo interface {
	Create(ctx context.Context, doc *types.Document) error
	FindOwned(ctx context.Context, id, userID string) (*types.Document, error)
	FindOwnedByKey(ctx context.Context, key, userID string) (*types.Document, error)
	// ListByUser returns the user's documents newest first.
	ListByUser(ctx context.Context, userID string) ([]types.Document, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	UpdateStatus(ctx context.Context, id string, status types.UploadStatus, pageCount int) error
	Update(ctx context.Context, id, userID string, req types.UpdateDocumentRequest) (*types.Document, error)
	IncrementViews(ctx context.Context, id, userID string) (*types.Document, error)
	Delete(ctx context.Context, id, userID string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type UserRepo interface {
	// Ensure inserts user when no record with its ID exists and returns the
	// stored record either way.
	Ensure(ctx context.Context, user *types.User) (*types.User, error)
	Get(ctx context.Context, id string) (*types.User, error)
	Delete(ctx context.Context, id string) error
}
