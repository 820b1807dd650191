package types

import "time"

type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "PENDING"
	UploadStatusProcessing UploadStatus = "PROCESSING"
	UploadStatusSuccess    UploadStatus = "SUCCESS"
	UploadStatusFailed     UploadStatus = "FAILED"
)

// Document is an uploaded PDF owned by exactly one user.
type Document struct {
	ID           string       `json:"id" bson:"_id"`
	UserID       string       `json:"user_id" bson:"user_id"`
	Name         string       `json:"name" bson:"name"`
	Key          string       `json:"key" bson:"key"`
	UploadStatus UploadStatus `json:"upload_status" bson:"upload_status"`
	PageCount    int          `json:"page_count" bson:"page_count"`
	IconIndex    int          `json:"icon_index" bson:"icon_index"`
	ColorIndex   int          `json:"color_index" bson:"color_index"`
	ViewCount    int64        `json:"view_count" bson:"view_count"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" bson:"updated_at"`
}

type DocumentChunk struct {
	Content  string           // The actual text content
	Page     int              // Page number where the chunk is from
	Metadata DocumentMetadata // Associated metadata for the chunk
}

// DocumentMetadata contains metadata information for PDF chunks
type DocumentMetadata struct {
	Title      string // Title of the PDF document
	Source     string // Source file path
	PageNum    int    // Current page number
	TotalPages int    // Total number of pages in the document
}

// DocumentServiceConfig contains configuration options for PDF processing
type DocumentServiceConfig struct {
	MaxChunkSize int // Maximum size for text chunks
	OverlapSize  int // Size of overlap between chunks
}

// Passage is one vector-indexed span of document text. Rank is 1-based,
// most similar first, and only set on query results.
type Passage struct {
	Content    string `json:"content"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
	EmbedModel string `json:"embed_model"`
	Rank       int    `json:"rank,omitempty"`
}

type UpdateDocumentRequest struct {
	Name       *string `json:"name"`
	IconIndex  *int    `json:"icon_index"`
	ColorIndex *int    `json:"color_index"`
}

type UploadStatusResponse struct {
	Status UploadStatus `json:"status"`
}
