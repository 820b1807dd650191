/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/pdfchat-be/service"
	"github.com/tieubaoca/pdfchat-be/utils"
)

// batchIngestDocumentCmd represents the batchIngestDocument command
var batchIngestDocumentCmd = &cobra.Command{
	Use:   "batch-ingest-document",
	Short: "Ingest every PDF in a directory for a user",
	Run: func(cmd *cobra.Command, args []string) {
		directory, _ := cmd.Flags().GetString("directory")
		userID, _ := cmd.Flags().GetString("user")
		if directory == "" || userID == "" {
			log.Fatal("--directory and --user are required")
		}

		files, err := utils.FindPDFFiles(directory)
		if err != nil {
			log.Fatalf("Failed to read directory: %v", err)
		}

		ctx := context.Background()
		app, err := newApp(ctx, mustLoadConfig())
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer app.Close(ctx)

		ingest := app.ingestService()
		failed := 0
		for _, filePath := range files {
			doc, err := ingest.Ingest(ctx, service.IngestRequest{UserID: userID, FilePath: filePath})
			if err != nil {
				failed++
				log.Printf("Failed to ingest %s: %v", filePath, err)
				continue
			}
			log.Printf("Ingested %s as document %s", filePath, doc.ID)
		}
		log.Printf("Ingested %d of %d files", len(files)-failed, len(files))
	},
}

func init() {
	rootCmd.AddCommand(batchIngestDocumentCmd)

	batchIngestDocumentCmd.Flags().String("directory", "", "Directory containing the PDFs")
	batchIngestDocumentCmd.Flags().StringP("user", "u", "", "ID of the owning user")
}
