package pdfinfo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// RunOptions configures the probe's child side.
type RunOptions struct {
	// Sandbox confines the process before any input is read.
	Sandbox bool
	// Policy overrides DefaultPolicy.
	Policy *Policy
}

// Run reads a whole PDF from in and writes its mediaboxes to out as a JSON
// array followed by a newline. It is meant to be the only work done by a
// short-lived process: with Sandbox set, the process can afterwards do little
// more than read in, write out and exit.
func Run(in io.Reader, out io.Writer, opts RunOptions) error {
	// pdfcpu may look for its config directory; do that before the sandbox closes.
	conf := NewConfiguration()

	if opts.Sandbox {
		policy := opts.Policy
		if policy == nil {
			policy = DefaultPolicy()
		}
		if err := policy.Install(); err != nil {
			return err
		}
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	boxes, err := Mediaboxes(bytes.NewReader(data), conf)
	if err != nil {
		return err
	}

	return json.NewEncoder(out).Encode(boxes)
}
