package types

import "time"

// Message is one immutable turn in a document's conversation.
type Message struct {
	ID            string    `json:"id" bson:"_id"`
	DocumentID    string    `json:"document_id" bson:"document_id"`
	UserID        string    `json:"user_id" bson:"user_id"`
	IsUserMessage bool      `json:"is_user_message" bson:"is_user_message"`
	Text          string    `json:"text" bson:"text"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

func (m Message) Role() string {
	if m.IsUserMessage {
		return "user"
	}
	return "assistant"
}

type MessagePage struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
