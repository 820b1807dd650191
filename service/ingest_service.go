package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/tieubaoca/pdfchat-be/database"
	"github.com/tieubaoca/pdfchat-be/repository"
	"github.com/tieubaoca/pdfchat-be/types"
	"github.com/tieubaoca/pdfchat-be/utils"
)

var ErrPageLimitExceeded = errors.New("document exceeds the page limit of the plan")

const defaultEmbedBatchSize = 50

type IngestRequest struct {
	UserID   string
	FilePath string
	Name     string
}

// IngestService copies a PDF into the upload directory, splits it into
// passages and indexes them under the document's ID.
type IngestService struct {
	documents repository.DocumentRepo
	users     repository.UserRepo
	index     database.PassageIndex
	embedder  Embedder
	extractor PDFExtractor
	uploadDir string
	batchSize int
}

func NewIngestService(
	documents repository.DocumentRepo,
	users repository.UserRepo,
	index database.PassageIndex,
	embedder Embedder,
	extractor PDFExtractor,
	uploadDir string,
) *IngestService {
	return &IngestService{
		documents: documents,
		users:     users,
		index:     index,
		embedder:  embedder,
		extractor: extractor,
		uploadDir: uploadDir,
		batchSize: defaultEmbedBatchSize,
	}
}

// Ingest returns the created document along with any error; once the
// document exists its final status is SUCCESS or FAILED.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*types.Document, error) {
	if req.UserID == "" {
		return nil, ErrUnauthorized
	}
	if !strings.EqualFold(filepath.Ext(req.FilePath), ".pdf") {
		return nil, fmt.Errorf("%w: unsupported file type %s", ErrInvalidRequest, filepath.Ext(req.FilePath))
	}

	user, err := s.users.Ensure(ctx, &types.User{ID: req.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	plan := types.PlanBySlug(user.Plan)
	count, err := s.documents.CountByUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if count >= int64(plan.Quota) {
		return nil, fmt.Errorf("%w: %s plan allows %d documents", ErrQuotaExceeded, plan.Name, plan.Quota)
	}

	key, storedPath, err := utils.CopyFileWithTimestamp(req.FilePath, s.uploadDir)
	if err != nil {
		return nil, err
	}
	name := req.Name
	if name == "" {
		name = filepath.Base(req.FilePath)
	}
	doc := &types.Document{
		UserID:       req.UserID,
		Name:         name,
		Key:          key,
		UploadStatus: types.UploadStatusProcessing,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	log.Printf("Ingesting %s as document %s", name, doc.ID)

	pages, err := s.process(ctx, doc, storedPath, plan)
	if err != nil {
		s.setStatus(ctx, doc, types.UploadStatusFailed, pages)
		return doc, err
	}
	s.setStatus(ctx, doc, types.UploadStatusSuccess, pages)
	return doc, nil
}

func (s *IngestService) setStatus(ctx context.Context, doc *types.Document, status types.UploadStatus, pages int) {
	if err := s.documents.UpdateStatus(context.WithoutCancel(ctx), doc.ID, status, pages); err != nil {
		log.Printf("Failed to set status %s on document %s: %v", status, doc.ID, err)
		return
	}
	doc.UploadStatus = status
	if pages > 0 {
		doc.PageCount = pages
	}
}

func (s *IngestService) process(ctx context.Context, doc *types.Document, path string, plan types.Plan) (int, error) {
	pages, err := s.extractor.PageCount(ctx, path)
	if err != nil {
		return 0, err
	}
	if pages > plan.PagesPerPdf {
		return pages, fmt.Errorf("%w: %d pages, %s plan allows %d", ErrPageLimitExceeded, pages, plan.Name, plan.PagesPerPdf)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks := make(chan types.DocumentChunk)
	extractErr := make(chan error, 1)
	go func() {
		extractErr <- s.extractor.ProcessPDF(ctx, path, chunks)
	}()

	var (
		batch   []types.Passage
		indexed int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Content
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed passages: %w", err)
		}
		if err := s.index.Upsert(ctx, doc.ID, batch, vectors); err != nil {
			return fmt.Errorf("failed to index passages: %w", err)
		}
		indexed += len(batch)
		batch = batch[:0]
		return nil
	}

	for chunk := range chunks {
		batch = append(batch, types.Passage{
			Content:    chunk.Content,
			Page:       chunk.Page,
			ChunkIndex: indexed + len(batch),
			EmbedModel: s.embedder.Model(),
		})
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				cancel()
				for range chunks {
				}
				return pages, err
			}
		}
	}
	if err := <-extractErr; err != nil {
		return pages, fmt.Errorf("failed to extract text: %w", err)
	}
	if err := flush(); err != nil {
		return pages, err
	}

	if indexed == 0 {
		log.Printf("Warning: document %s produced no text", doc.ID)
	}
	log.Printf("Indexed %d passages from %d pages of document %s", indexed, pages, doc.ID)
	return pages, nil
}
