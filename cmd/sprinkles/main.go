// sprinkles makes scanned PDFs searchable with Google Document AI.
//
// Each page of the input is recognized by a Document AI OCR processor while a
// sandboxed child process reads the page sizes from the PDF. The output keeps
// the scanned page images and adds an invisible, selectable text layer.
//
// Configuration:
//
// The tool reads an optional YAML configuration file:
//
//	project_id: "your-gcp-project-id"
//	location: "us"
//	processor_id: "your-processor-id"
//
// The processor settings can also be given as flags.
//
// Usage:
//
//	sprinkles convert --config config.yml --input scan.pdf [--output out.pdf]
//	sprinkles serve --config config.yml [--port 8888]
//
// Convert options:
//
//	--input string       Path to the input PDF file (required)
//	--output string      Path to save the searchable PDF (stdout if omitted)
//	--text string        Path to save the recognized text
//	--debug-api string   Path to save the raw API response as JSON
//	--debug-text         Render the text layer visibly
//
// Authentication:
//
// The tool uses Application Default Credentials, or the service account key
// named by credentials_file.
//
// Example:
//
//	export GOOGLE_APPLICATION_CREDENTIALS=/path/to/credentials.json
//	sprinkles convert --config config.yml --input scan.pdf --output scan_ocr.pdf
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
