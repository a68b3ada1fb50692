package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/willangley/pdf-sprinkles/pkg/gdocai"
	"github.com/willangley/pdf-sprinkles/pkg/sprinkles"
)

var (
	inputPath     string
	outputPath    string
	textPath      string
	debugAPIPath  string
	minConfidence float64
	debugText     bool
	noSandbox     bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Make a scanned PDF searchable",
	Long: `Recognizes the text in a scanned PDF with Document AI and writes a copy
with an invisible text layer over each page image. The result goes to standard
output unless --output is given.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	flags := convertCmd.Flags()
	flags.StringVarP(&inputPath, "input", "i", "", "path to the input PDF file (required)")
	flags.StringVarP(&outputPath, "output", "o", "", "path to save the searchable PDF (default stdout)")
	flags.StringVar(&textPath, "text", "", "path to save the recognized text")
	flags.StringVar(&debugAPIPath, "debug-api", "", "path to save the API response as JSON for debugging purposes")
	flags.Float64Var(&minConfidence, "min-confidence", 0.9, "lowest line confidence included in the text layer")
	flags.BoolVar(&debugText, "debug-text", false, "render the text layer visibly")
	flags.BoolVar(&noSandbox, "no-sandbox", false, "run pdf-info without the seccomp sandbox")
	convertCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("min-confidence") {
		cfg.MinConfidence = minConfidence
	}
	if flags.Changed("debug-text") {
		cfg.DebugText = debugText
	}
	if noSandbox {
		cfg.Sandbox = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	input, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read PDF file: %w", err)
	}

	conv, client, err := newConverter(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := conv.ConvertDocument(ctx, input, filepath.Base(inputPath))
	if err != nil {
		var malformed *sprinkles.MalformedInputError
		if errors.As(err, &malformed) {
			return fmt.Errorf("%w: %v", err, malformed.Cause())
		}
		return err
	}

	if debugAPIPath != "" {
		data, err := gdocai.ToJSON(res.Document.Raw)
		if err != nil {
			return fmt.Errorf("failed to marshal API response: %w", err)
		}
		if err := os.WriteFile(debugAPIPath, []byte(data), 0o644); err != nil {
			return fmt.Errorf("failed to write API response: %w", err)
		}
	}
	if textPath != "" {
		if err := os.WriteFile(textPath, []byte(res.Document.Text), 0o644); err != nil {
			return fmt.Errorf("failed to write text: %w", err)
		}
	}

	if outputPath == "" {
		_, err := cmd.OutOrStdout().Write(res.PDF)
		return err
	}
	if err := os.WriteFile(outputPath, res.PDF, 0o644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	logger.Info().
		Str("output", outputPath).
		Int("pages", len(res.Mediaboxes)).
		Int("lines", res.Stats.Lines).
		Int("tokens", res.Stats.Tokens).
		Msg("wrote searchable PDF")
	return nil
}
