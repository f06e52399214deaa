package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"pulsebridge/internal/analysis"
	"pulsebridge/internal/domain"

	"github.com/spf13/cobra"
)

// analyzeCmd runs the local analysis pipeline over a piece of text and
// prints the resulting signal. Useful for tuning lexicons and verifying
// what would leave the process for a given message.
func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [text]",
		Short: "Run the local sentiment/keyword analysis on text (stdin if omitted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) > 0 {
				text = strings.Join(args, " ")
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			sanitized := analysis.Sanitize(text)
			if sanitized == "" {
				return fmt.Errorf("nothing left to analyze after sanitization")
			}

			signal := domain.InsightsSignal{
				ContentHash:   fmt.Sprintf("%x", sha256.Sum256([]byte(sanitized))),
				SanitizedText: sanitized,
				Sentiment:     analysis.Classify(sanitized),
				Keywords:      analysis.ExtractKeywords(sanitized),
				Source:        domain.SignalSource,
			}

			out, err := json.MarshalIndent(signal, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}
}
