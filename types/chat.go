package types

type SendMessageRequest struct {
	DocumentID string `json:"documentId" binding:"required"`
	Message    string `json:"message"`
}

const (
	TypeWebsocketPing  = "ping"
	TypeWebsocketPong  = "pong"
	TypeWebsocketChat  = "chat"
	TypeWebsocketError = "error"
)

type WebsocketRequest struct {
	Type    string             `json:"type"`
	Payload SendMessageRequest `json:"payload"`
}

type WebSocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketChatResponse struct {
	Message string `json:"message"`
}

type WebSocketErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
