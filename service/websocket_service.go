package service

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tieubaoca/pdfchat-be/types"
)

const (
	wsReadLimit  = 64 * 1024
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsWriteWait  = 10 * time.Second
)

// RateLimiter reports whether one more event for key is allowed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type WebSocketService struct {
	chat     *ChatService
	limiter  RateLimiter
	upgrader websocket.Upgrader
}

// NewWebSocketService accepts a nil limiter. checkOrigin nil allows every
// origin.
func NewWebSocketService(chat *ChatService, limiter RateLimiter, checkOrigin func(r *http.Request) bool) *WebSocketService {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WebSocketService{
		chat:    chat,
		limiter: limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin,
		},
	}
}

// HandleChat serves one connection for an already authenticated user. Frames
// are handled in order; each chat frame gets exactly one chat or error reply.
func (s *WebSocketService) HandleChat(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Control pings keep idle connections alive; all data frames are written
	// from the read loop below, and WriteControl may run concurrently with it.
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			s.writeError(conn, http.StatusBadRequest, "Invalid message format")
			continue
		}

		switch req.Type {
		case types.TypeWebsocketChat:
			reply, err := s.handleChatFrame(ctx, userID, req.Payload)
			if err != nil {
				status, msg := ErrorStatus(err)
				if status == http.StatusInternalServerError {
					log.Printf("WebSocket chat failed for document %s: %v", req.Payload.DocumentID, err)
				}
				s.writeError(conn, status, msg)
				continue
			}
			s.write(conn, types.WebSocketResponse{
				Type:    types.TypeWebsocketChat,
				Payload: types.WebSocketChatResponse{Message: reply},
			})
		case types.TypeWebsocketPing:
			s.write(conn, types.WebSocketResponse{Type: types.TypeWebsocketPong})
		default:
			s.writeError(conn, http.StatusBadRequest, "Unknown message type")
		}
	}
}

func (s *WebSocketService) handleChatFrame(ctx context.Context, userID string, payload types.SendMessageRequest) (string, error) {
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, userID)
		if err != nil {
			log.Printf("Rate limiter unavailable: %v", err)
		} else if !ok {
			return "", ErrRateLimited
		}
	}
	return s.chat.HandleChat(ctx, payload.DocumentID, userID, payload.Message)
}

func (s *WebSocketService) write(conn *websocket.Conn, res types.WebSocketResponse) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(res); err != nil {
		log.Println("Write error:", err)
	}
}

func (s *WebSocketService) writeError(conn *websocket.Conn, status int, msg string) {
	s.write(conn, types.WebSocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: types.WebSocketErrorResponse{Message: msg, Status: status},
	})
}
