/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/pdfchat-be/database"
)

var reinitIndexCmd = &cobra.Command{
	Use:   "reinit-index",
	Short: "Drop and recreate the Weaviate passage class",
	Long: `Deletes every indexed passage. Documents must be ingested again
afterwards.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		ctx := context.Background()

		store, err := database.NewWeaviateStore(ctx, cfg.Weaviate)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}
		if err := store.ReInit(ctx); err != nil {
			log.Fatalf("Failed to reinitialize Weaviate database: %v", err)
		}
		log.Printf("Recreated class %s", cfg.Weaviate.ClassName)
	},
}

func init() {
	rootCmd.AddCommand(reinitIndexCmd)
}
