package service

import (
	"context"
	"fmt"
	"log"

	"github.com/tieubaoca/pdfchat-be/database"
	"github.com/tieubaoca/pdfchat-be/repository"
	"github.com/tieubaoca/pdfchat-be/types"
)

type AccountService struct {
	users     repository.UserRepo
	documents repository.DocumentRepo
	messages  repository.MessageRepo
	index     database.PassageIndex
	uploadDir string
}

func NewAccountService(users repository.UserRepo, documents repository.DocumentRepo, messages repository.MessageRepo, index database.PassageIndex, uploadDir string) *AccountService {
	return &AccountService{
		users:     users,
		documents: documents,
		messages:  messages,
		index:     index,
		uploadDir: uploadDir,
	}
}

func (s *AccountService) EnsureUser(ctx context.Context, userID, email, name string) (*types.User, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.users.Ensure(ctx, &types.User{ID: userID, Email: email, DisplayName: name})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return user, nil
}

func (s *AccountService) Export(ctx context.Context, userID string) (*types.AccountExport, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, notFound(err, "load user")
	}
	docs, err := s.documents.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	export := &types.AccountExport{User: *user, Files: make([]types.ExportedFile, 0, len(docs))}
	for _, d := range docs {
		n, err := s.messages.CountByDocument(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count messages: %w", err)
		}
		export.Files = append(export.Files, types.ExportedFile{
			ID:           d.ID,
			Name:         d.Name,
			UploadStatus: d.UploadStatus,
			CreatedAt:    d.CreatedAt,
			MessageCount: n,
		})
		export.Statistics.TotalMessages += n
	}
	export.Statistics.TotalFiles = len(docs)
	return export, nil
}

// DeleteAccount runs messages, vectors, documents, user in that order, then
// removes the stored files. The steps are not transactional; a failed run can
// be repeated.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	docs, err := s.documents.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if err := s.messages.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	for _, d := range docs {
		if err := s.index.DeleteNamespace(ctx, d.ID); err != nil {
			return fmt.Errorf("failed to delete passages of %s: %w", d.ID, err)
		}
	}
	if err := s.documents.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	for _, d := range docs {
		removeStoredFile(s.uploadDir, d)
	}
	log.Printf("Deleted account %s with %d documents", userID, len(docs))
	return nil
}
