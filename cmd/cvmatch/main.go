// Package main provides the entry point for the cvmatch HTTP API server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cvmatch",
	Short: "CV to job matching service",
	Long:  "cvmatch analyzes a CV, searches live job listings, and ranks them against the candidate's profile, streaming progress over SSE via a REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
