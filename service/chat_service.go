package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tieubaoca/pdfchat-be/repository"
	"github.com/tieubaoca/pdfchat-be/types"
	"golang.org/x/sync/errgroup"
)

type ChatConfig struct {
	MaxMessageLength int
	TopK             int
	HistoryWindow    int
	Timeout          time.Duration
}

var DefaultChatConfig = ChatConfig{
	MaxMessageLength: 2000,
	TopK:             4,
	HistoryWindow:    6,
	Timeout:          30 * time.Second,
}

// ChatService turns one chat message into a persisted user/assistant pair.
type ChatService struct {
	documents repository.DocumentRepo
	messages  repository.MessageRepo
	retriever Retriever
	completer Completer
	cfg       ChatConfig
}

func NewChatService(
	documents repository.DocumentRepo,
	messages repository.MessageRepo,
	retriever Retriever,
	completer Completer,
	cfg ChatConfig,
) *ChatService {
	return &ChatService{
		documents: documents,
		messages:  messages,
		retriever: retriever,
		completer: completer,
		cfg:       cfg,
	}
}

func (s *ChatService) validateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: message must not be empty", ErrInvalidMessage)
	}
	if s.cfg.MaxMessageLength > 0 && utf8.RuneCountInString(text) > s.cfg.MaxMessageLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrInvalidMessage, s.cfg.MaxMessageLength)
	}
	return nil
}

// HandleChat answers text about documentID on behalf of requesterID.
//
// Ownership is checked before anything is written or any upstream is called.
// The user turn is persisted as soon as ownership is verified and stays
// persisted if completion fails; in that case no assistant turn is written.
// A failed retrieval is logged and answered from history alone.
func (s *ChatService) HandleChat(ctx context.Context, documentID, requesterID, text string) (string, error) {
	if requesterID == "" {
		return "", ErrUnauthorized
	}
	if err := s.validateMessage(text); err != nil {
		return "", err
	}

	if _, err := s.documents.FindOwned(ctx, documentID, requesterID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load document: %w", err)
	}

	userMsg, err := s.messages.Append(ctx, documentID, requesterID, true, text)
	if err != nil {
		return "", fmt.Errorf("failed to persist user message: %w", err)
	}

	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	var (
		passages []types.Passage
		history  []types.Message
	)
	g, gctx := errgroup.WithContext(callCtx)
	g.Go(func() error {
		p, err := s.retriever.Retrieve(gctx, documentID, text, s.cfg.TopK)
		if err != nil {
			log.Printf("Warning: retrieval failed for document %s, answering without context: %v", documentID, err)
			return nil
		}
		passages = p
		return nil
	})
	g.Go(func() error {
		recent, err := s.messages.RecentWindow(gctx, documentID, userMsg.ID, s.cfg.HistoryWindow)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		history = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", &ServiceError{Status: http.StatusGatewayTimeout, Message: "AI service timed out"}
		}
		return "", err
	}

	prompt := BuildPrompt(history, passages, text)
	reply, err := s.completer.Complete(callCtx, prompt)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", &ServiceError{Status: http.StatusGatewayTimeout, Message: "AI service timed out"}
		}
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		reply = FallbackReply
	}

	if _, err := s.messages.Append(ctx, documentID, requesterID, false, reply); err != nil {
		return "", fmt.Errorf("failed to persist assistant message: %w", err)
	}
	return reply, nil
}
