package types

type DataResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type DeleteDocumentResponse struct {
	Success     bool     `json:"success"`
	DeletedFile Document `json:"deleted_file"`
}
