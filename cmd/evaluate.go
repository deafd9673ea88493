package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docqa/src/core/pipeline"
)

// EvalCase is one question in the evaluation set. Expected, when present,
// is matched as a case-insensitive substring of the generated answer.
type EvalCase struct {
	DocumentID int64  `json:"document_id"`
	Question   string `json:"question"`
	Expected   string `json:"expected,omitempty"`
}

// EvalResult records the outcome for one case.
type EvalResult struct {
	DocumentID int64  `json:"document_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Expected   string `json:"expected,omitempty"`
	Matched    *bool  `json:"matched,omitempty"`
	Error      string `json:"error,omitempty"`
}

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run a question set against ingested documents",
	Long: `The evaluate command reads a JSON array of questions, answers each one
against its document, and writes the answers with match results to an
output file. Answered turns are recorded in chat history like any other
question.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringP("input", "i", "", "Input JSON file path")
	evaluateCmd.MarkFlagRequired("input")
	evaluateCmd.Flags().StringP("output", "o", "evaluation_results.json", "Output JSON file path")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")

	jsonFile, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %v", err)
	}

	var cases []EvalCase
	if err := json.Unmarshal(jsonFile, &cases); err != nil {
		return fmt.Errorf("failed to parse JSON: %v", err)
	}
	if len(cases) == 0 {
		return errors.New("input file contains no cases")
	}

	svcs, err := buildServices()
	if err != nil {
		return err
	}
	defer svcs.Close()

	bar := progressbar.Default(int64(len(cases)), "evaluating")

	results := make([]EvalResult, 0, len(cases))
	matched := 0
	scored := 0

	for _, ec := range cases {
		result := EvalResult{
			DocumentID: ec.DocumentID,
			Question:   ec.Question,
			Expected:   ec.Expected,
		}

		doc, err := svcs.docs.GetByID(ctx, ec.DocumentID)
		if err != nil {
			result.Error = err.Error()
		} else if doc == nil {
			result.Error = fmt.Sprintf("document not found: %d", ec.DocumentID)
		} else {
			answer, err := svcs.pipeline.Answer(ctx, doc, ec.Question)
			if err != nil {
				result.Error = err.Error()
			} else {
				result.Answer = answer
				if ec.Expected != "" {
					ok := strings.Contains(strings.ToLower(answer), strings.ToLower(ec.Expected))
					result.Matched = &ok
					scored++
					if ok {
						matched++
					}
				}
				if answer == pipeline.FailureMarker {
					result.Error = "generation failed"
				}
			}
		}

		results = append(results, result)
		bar.Add(1)
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %v", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %v", err)
	}

	fmt.Printf("\n%d cases evaluated, results written to %s\n", len(results), outputPath)
	if scored > 0 {
		fmt.Printf("Matched %d/%d scored cases (%.1f%%)\n", matched, scored, float64(matched)/float64(scored)*100)
	}
	return nil
}
