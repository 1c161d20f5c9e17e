package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hireproof/hireproof/internal/config"
	"github.com/hireproof/hireproof/internal/observability"
	"github.com/hireproof/hireproof/internal/pipeline"
	"github.com/hireproof/hireproof/internal/schemas"
	"github.com/hireproof/hireproof/internal/types"
)

var (
	analyzeResume   string
	analyzeJSON     bool
	analyzeValidate bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Analyze a candidate from the command line",
	Long: `Run a one-shot analysis of a GitHub profile or portfolio URL and print
the authenticity report. An optional resume (PDF, DOCX or plain text) is
cross-referenced against the public evidence.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeResume, "resume", "", "Path to a resume file to cross-reference")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the raw JSON report")
	analyzeCmd.Flags().BoolVar(&analyzeValidate, "validate", false, "Validate the report against its JSON schema")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	engine, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	req := &types.AnalysisRequest{SourceURL: args[0]}
	if analyzeResume != "" {
		blob, err := os.ReadFile(analyzeResume)
		if err != nil {
			return fmt.Errorf("failed to read resume: %w", err)
		}
		req.ResumeBlob = blob
		req.ResumeFilename = filepath.Base(analyzeResume)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	var onEvent pipeline.EventFunc
	if engine.Verbose {
		stderr := observability.NewPrinter(cmd.ErrOrStderr())
		onEvent = stderr.PrintStage
	}

	orch := pipeline.New(engine)
	result, err := orch.Analyze(context.Background(), req, onEvent)
	if err != nil {
		return err
	}

	if analyzeValidate {
		if err := schemas.ValidateReport(result); err != nil {
			return fmt.Errorf("report failed schema validation: %w", err)
		}
	}

	if analyzeJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	printer.PrintResult(result)
	return nil
}
