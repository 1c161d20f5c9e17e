// Package main provides the entry point for the HireProof analysis engine.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hireproof",
	Short: "Candidate authenticity analysis engine",
	Long:  "HireProof analyzes a candidate's GitHub profile, portfolio and resume, cross-references the evidence, and produces an authenticity report with a hiring recommendation.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
