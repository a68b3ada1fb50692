package pdfinfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperEnv = "PDFINFO_TEST_HELPER"

// TestMain lets the test binary double as the probe child.
func TestMain(m *testing.M) {
	if mode := os.Getenv(helperEnv); mode != "" {
		os.Exit(helperMain(mode))
	}
	os.Exit(m.Run())
}

func helperMain(mode string) int {
	switch mode {
	case "run", "sandbox":
		if err := Run(os.Stdin, os.Stdout, RunOptions{Sandbox: mode == "sandbox"}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	case "escape":
		if err := DefaultPolicy().Install(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		f, err := os.Open("/")
		if err == nil {
			f.Close()
		}
	case "hang":
		time.Sleep(time.Hour)
	case "fail":
		fmt.Fprintln(os.Stderr, "boom")
		return 3
	case "flood":
		io.Copy(io.Discard, os.Stdin)
		os.Stdout.Write(bytes.Repeat([]byte("x"), 1<<20))
	}
	return 0
}

func helperRunner(mode string) *Runner {
	return &Runner{
		Path: os.Args[0],
		Env:  append(os.Environ(), helperEnv+"="+mode),
	}
}

func samplePDF() []byte {
	return buildPDF("", testPage{MediaBox: "[0 0 600 800]", Rotate: "90"}, testPage{MediaBox: "[0 0 600 800]"})
}

func TestProbe(t *testing.T) {
	proc, err := helperRunner("run").Start(context.Background(), samplePDF())
	require.NoError(t, err)
	defer proc.Close()

	out, err := proc.ReadOutput()
	require.NoError(t, err)
	require.NoError(t, proc.Wait(context.Background(), 10*time.Second))

	boxes, err := ParseMediaboxes(out)
	require.NoError(t, err)
	assert.Equal(t, []Mediabox{{800, 600}, {600, 800}}, boxes)
	assert.True(t, proc.Exited())
}

func TestProbeIsIdempotent(t *testing.T) {
	outputs := make([][]byte, 2)
	for i := range outputs {
		proc, err := helperRunner("run").Start(context.Background(), samplePDF())
		require.NoError(t, err)
		outputs[i], err = proc.ReadOutput()
		require.NoError(t, err)
		require.NoError(t, proc.Wait(context.Background(), 10*time.Second))
		require.NoError(t, proc.Close())
	}
	assert.Equal(t, outputs[0], outputs[1])
}

func TestProbeTimeout(t *testing.T) {
	proc, err := helperRunner("hang").Start(context.Background(), samplePDF())
	require.NoError(t, err)

	err = proc.Wait(context.Background(), 50*time.Millisecond)
	require.ErrorIs(t, err, ErrProbeTimeout)
	// Waiting is not destructive.
	assert.False(t, proc.Exited())

	require.NoError(t, proc.Close())
	assert.True(t, proc.Exited())
	require.NoError(t, proc.Close())
}

func TestProbeWaitHonorsContext(t *testing.T) {
	proc, err := helperRunner("hang").Start(context.Background(), samplePDF())
	require.NoError(t, err)
	defer proc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, proc.Wait(ctx, time.Minute), context.Canceled)
}

func TestProbeFailure(t *testing.T) {
	proc, err := helperRunner("fail").Start(context.Background(), samplePDF())
	require.NoError(t, err)
	defer proc.Close()

	out, err := proc.ReadOutput()
	require.NoError(t, err)
	assert.Empty(t, out)

	err = proc.Wait(context.Background(), 10*time.Second)
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	assert.Equal(t, 3, exitErr.ExitCode())
	assert.Contains(t, proc.Stderr(), "boom")
}

func TestProbeOutputIsCapped(t *testing.T) {
	proc, err := helperRunner("flood").Start(context.Background(), samplePDF())
	require.NoError(t, err)
	defer proc.Close()

	out, err := proc.ReadOutput()
	require.NoError(t, err)
	assert.Len(t, out, DefaultMaxOutput)

	// The child dies writing to the closed pipe.
	assert.Error(t, proc.Wait(context.Background(), 10*time.Second))
}

func TestBoundedBuffer(t *testing.T) {
	b := &boundedBuffer{max: 4}
	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = b.Write([]byte("defg"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcd", b.String())
}
