/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/pdfchat-be/handler"
	"github.com/tieubaoca/pdfchat-be/service"
)

// startServerCmd represents the startServer command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the chat server",
	Long:  `Starts a server that answers chat messages about uploaded documents`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if cfg.JWTSecret == "" {
			log.Fatal("JWT_SECRET is not set")
		}
		if cfg.Completion.GoogleAPIKey == "" && cfg.Completion.OpenAIAPIKey == "" {
			log.Println("Warning: no completion API key is set, chat requests will fail")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := newApp(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer app.Close(context.Background())

		// Initialize services
		chatService := app.chatService()
		documentService := service.NewDocumentService(app.documents, app.messages, app.index, cfg.UploadDir, cfg.MessagePageSize)
		accountService := service.NewAccountService(app.users, app.documents, app.messages, app.index, cfg.UploadDir)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler(cfg.AllowedOrigins)
		wsService := service.NewWebSocketService(chatService, app.rateLimiter(), corsHandler.CheckOrigin)

		router := handler.NewRouter(
			handler.RouterConfig{
				JWTSecret: cfg.JWTSecret,
				Cors:      corsHandler,
				Limiter:   app.rateLimiter(),
			},
			handler.NewMessageHandler(chatService, wsService),
			handler.NewDocumentHandler(documentService),
			handler.NewAccountHandler(accountService),
		)

		srv := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: router,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Server shutdown error: %v", err)
			}
		}()

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
