/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/pdfchat-be/utils"
)

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Print a session token for a user",
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetString("user")
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if userID == "" {
			log.Fatal("--user is required")
		}

		cfg := mustLoadConfig()
		if cfg.JWTSecret == "" {
			log.Fatal("JWT_SECRET is not set")
		}
		token, err := utils.GenerateUserToken(userID, email, name, cfg.JWTSecret, ttl)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(issueTokenCmd)

	issueTokenCmd.Flags().StringP("user", "u", "", "User ID placed in the token subject")
	issueTokenCmd.Flags().String("email", "", "User email")
	issueTokenCmd.Flags().String("name", "", "Display name")
	issueTokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}
