package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/tieubaoca/pdfchat-be/database"
	"github.com/tieubaoca/pdfchat-be/repository"
	"github.com/tieubaoca/pdfchat-be/types"
	"github.com/tieubaoca/pdfchat-be/utils"
)

const (
	MaxMessagePageSize = 100
	maxStyleIndex      = 10
)

type DocumentService struct {
	documents repository.DocumentRepo
	messages  repository.MessageRepo
	index     database.PassageIndex
	uploadDir string
	pageSize  int
}

func NewDocumentService(documents repository.DocumentRepo, messages repository.MessageRepo, index database.PassageIndex, uploadDir string, pageSize int) *DocumentService {
	if pageSize <= 0 || pageSize > MaxMessagePageSize {
		pageSize = 10
	}
	return &DocumentService{
		documents: documents,
		messages:  messages,
		index:     index,
		uploadDir: uploadDir,
		pageSize:  pageSize,
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}

func (s *DocumentService) List(ctx context.Context, userID string) ([]types.Document, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	return s.documents.ListByUser(ctx, userID)
}

func (s *DocumentService) Get(ctx context.Context, id, userID string) (*types.Document, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	doc, err := s.documents.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, notFound(err, "load document")
	}
	return doc, nil
}

func (s *DocumentService) GetByKey(ctx context.Context, key, userID string) (*types.Document, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	doc, err := s.documents.FindOwnedByKey(ctx, key, userID)
	if err != nil {
		return nil, notFound(err, "load document")
	}
	return doc, nil
}

func validateUpdate(req types.UpdateDocumentRequest) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidRequest)
	}
	for field, v := range map[string]*int{"icon_index": req.IconIndex, "color_index": req.ColorIndex} {
		if v != nil && (*v < 0 || *v > maxStyleIndex) {
			return fmt.Errorf("%w: %s must be between 0 and %d", ErrInvalidRequest, field, maxStyleIndex)
		}
	}
	return nil
}

func (s *DocumentService) Update(ctx context.Context, id, userID string, req types.UpdateDocumentRequest) (*types.Document, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := validateUpdate(req); err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	doc, err := s.documents.Update(ctx, id, userID, req)
	if err != nil {
		return nil, notFound(err, "update document")
	}
	return doc, nil
}

func (s *DocumentService) RecordView(ctx context.Context, id, userID string) (*types.Document, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	doc, err := s.documents.IncrementViews(ctx, id, userID)
	if err != nil {
		return nil, notFound(err, "record view")
	}
	return doc, nil
}

// Status reports PENDING for documents the requester cannot see yet, so a
// client polling right after upload does not get an error.
func (s *DocumentService) Status(ctx context.Context, id, userID string) (types.UploadStatus, error) {
	if userID == "" {
		return "", ErrUnauthorized
	}
	doc, err := s.documents.FindOwned(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return types.UploadStatusPending, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load document: %w", err)
	}
	return doc.UploadStatus, nil
}

// removeStoredFile is best effort; the records are already gone.
func removeStoredFile(uploadDir string, doc types.Document) {
	if doc.Key == "" {
		return
	}
	if err := utils.RemoveStoredFile(uploadDir, doc.Key); err != nil {
		log.Printf("Warning: failed to remove stored file of document %s: %v", doc.ID, err)
	}
}

// Delete removes the document's messages and vectors, then the document and
// its stored file.
func (s *DocumentService) Delete(ctx context.Context, id, userID string) (*types.Document, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	doc, err := s.documents.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, notFound(err, "load document")
	}
	if err := s.messages.DeleteByDocument(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("failed to delete messages: %w", err)
	}
	if err := s.index.DeleteNamespace(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("failed to delete passages: %w", err)
	}
	if err := s.documents.Delete(ctx, doc.ID, userID); err != nil {
		return nil, notFound(err, "delete document")
	}
	removeStoredFile(s.uploadDir, *doc)
	log.Printf("Deleted document %s for user %s", doc.ID, userID)
	return doc, nil
}

// ListMessages pages a document's history newest first. limit 0 selects the
// configured page size.
func (s *DocumentService) ListMessages(ctx context.Context, id, userID, cursor string, limit int) (*types.MessagePage, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if limit == 0 {
		limit = s.pageSize
	}
	if limit < 1 || limit > MaxMessagePageSize {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidRequest, MaxMessagePageSize)
	}
	if _, err := s.documents.FindOwned(ctx, id, userID); err != nil {
		return nil, notFound(err, "load document")
	}
	page, err := s.messages.Page(ctx, id, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return page, nil
}
