package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/willangley/pdf-sprinkles/pkg/pdfinfo"
)

var pdfInfoSandbox bool

// pdfInfoCmd is the child side of the geometry probe. It reads a PDF on
// stdin and writes its page sizes to stdout as JSON.
var pdfInfoCmd = &cobra.Command{
	Use:    "pdf-info",
	Short:  "Print the page sizes of the PDF on stdin",
	Hidden: true,
	Args:   cobra.NoArgs,
	// No config or logger: the child touches nothing but its standard streams.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return pdfinfo.Run(os.Stdin, os.Stdout, pdfinfo.RunOptions{Sandbox: pdfInfoSandbox})
	},
}

func init() {
	pdfInfoCmd.Flags().BoolVar(&pdfInfoSandbox, "sandbox", true, "restrict the process with seccomp before parsing")
	rootCmd.AddCommand(pdfInfoCmd)
}
