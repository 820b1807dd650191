package types

import "time"

type User struct {
	ID          string    `json:"id" bson:"_id"`
	Email       string    `json:"email" bson:"email"`
	DisplayName string    `json:"display_name" bson:"display_name"`
	Plan        string    `json:"plan" bson:"plan"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

type AccountExport struct {
	User       User             `json:"user"`
	Files      []ExportedFile   `json:"files"`
	Statistics ExportStatistics `json:"statistics"`
}

type ExportedFile struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	UploadStatus UploadStatus `json:"upload_status"`
	CreatedAt    time.Time    `json:"created_at"`
	MessageCount int64        `json:"message_count"`
}

type ExportStatistics struct {
	TotalFiles    int   `json:"total_files"`
	TotalMessages int64 `json:"total_messages"`
}
