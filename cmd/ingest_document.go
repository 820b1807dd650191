/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/pdfchat-be/service"
)

// ingestDocumentCmd represents the ingestDocument command
var ingestDocumentCmd = &cobra.Command{
	Use:   "ingest-document",
	Short: "Ingest one PDF for a user",
	Long: `Copies a PDF into the upload directory, creates its document record and
indexes its passages. The document ends up SUCCESS or FAILED.`,
	Run: func(cmd *cobra.Command, args []string) {
		filePath, _ := cmd.Flags().GetString("file")
		userID, _ := cmd.Flags().GetString("user")
		name, _ := cmd.Flags().GetString("name")
		if filePath == "" || userID == "" {
			log.Fatal("--file and --user are required")
		}

		ctx := context.Background()
		app, err := newApp(ctx, mustLoadConfig())
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer app.Close(ctx)

		doc, err := app.ingestService().Ingest(ctx, service.IngestRequest{
			UserID:   userID,
			FilePath: filePath,
			Name:     name,
		})
		if err != nil {
			log.Fatalf("Failed to ingest %s: %v", filePath, err)
		}
		log.Printf("Ingested %s as document %s (%d pages)", doc.Name, doc.ID, doc.PageCount)
	},
}

func init() {
	rootCmd.AddCommand(ingestDocumentCmd)

	ingestDocumentCmd.Flags().StringP("file", "f", "", "Path to the PDF to ingest")
	ingestDocumentCmd.Flags().StringP("user", "u", "", "ID of the owning user")
	ingestDocumentCmd.Flags().StringP("name", "n", "", "Display name (defaults to the file name)")
}
