/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/tieubaoca/pdfchat-be/config"
	"github.com/tieubaoca/pdfchat-be/database"
	"github.com/tieubaoca/pdfchat-be/repository"
	"github.com/tieubaoca/pdfchat-be/service"
	"github.com/tieubaoca/pdfchat-be/types"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// app holds the process-wide stores and clients. Every command builds it
// once and passes its parts to the services it needs.
type app struct {
	cfg       *config.Config
	documents repository.DocumentRepo
	messages  repository.MessageRepo
	users     repository.UserRepo
	index     database.PassageIndex
	embedder  *service.GeminiEmbedder

	mongoClient *mongo.Client
	limiter     *database.RedisRateLimiter
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	switch cfg.Storage {
	case config.StorageMemory:
		log.Println("Using in-memory storage")
		a.documents = repository.NewMemoryDocumentRepo()
		a.messages = repository.NewMemoryMessageRepo()
		a.users = repository.NewMemoryUserRepo()
		a.index = database.NewMemoryIndex()
	default:
		client, err := database.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.mongoClient = client
		db := client.Database(cfg.MongoDatabase)
		if err := repository.EnsureIndexes(ctx, db); err != nil {
			a.Close(ctx)
			return nil, err
		}
		repos := repository.NewMongoRepos(db)
		a.documents = repos.Documents
		a.messages = repos.Messages
		a.users = repos.Users

		store, err := database.NewWeaviateStore(ctx, cfg.Weaviate)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to connect to Weaviate database: %w", err)
		}
		a.index = store
	}

	a.embedder = service.NewGeminiEmbedder(cfg.Embedding.GoogleAPIKey, cfg.Embedding.Model)

	if cfg.RedisURL != "" {
		limiter, err := database.NewRedisRateLimiter(cfg.RedisURL, cfg.RateLimit.MessagesPerWindow, cfg.RateLimit.Window)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.limiter = limiter
	}
	return a, nil
}

func (a *app) completer() service.Completer {
	c := a.cfg.Completion
	if c.Provider == config.ProviderOpenAI {
		return service.NewOpenAICompleter(c.Endpoint, c.OpenAIAPIKey, c.Model)
	}
	return service.NewGeminiCompleter(c.Endpoint, c.Model, c.GoogleAPIKey)
}

// rateLimiter keeps a missing limiter a nil interface.
func (a *app) rateLimiter() service.RateLimiter {
	if a.limiter == nil {
		return nil
	}
	return a.limiter
}

func (a *app) chatService() *service.ChatService {
	cfg := service.ChatConfig{
		MaxMessageLength: a.cfg.Chat.MaxMessageLength,
		TopK:             a.cfg.Chat.TopK,
		HistoryWindow:    a.cfg.Chat.HistoryWindow,
		Timeout:          a.cfg.Chat.Timeout,
	}
	retriever := service.NewVectorRetriever(a.index, a.embedder)
	return service.NewChatService(a.documents, a.messages, retriever, a.completer(), cfg)
}

func (a *app) ingestService() *service.IngestService {
	pdfService := service.NewPDFService(types.DocumentServiceConfig{
		MaxChunkSize: a.cfg.Ingest.MaxChunkSize,
		OverlapSize:  a.cfg.Ingest.OverlapSize,
	})
	return service.NewIngestService(a.documents, a.users, a.index, a.embedder, pdfService, a.cfg.UploadDir)
}

func (a *app) Close(ctx context.Context) {
	if a.embedder != nil {
		if err := a.embedder.Close(); err != nil {
			log.Printf("Failed to close embedding client: %v", err)
		}
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			log.Printf("Failed to disconnect MongoDB: %v", err)
		}
	}
}
