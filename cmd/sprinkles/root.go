package main

import (
	"io"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/willangley/pdf-sprinkles/pkg/config"
	"github.com/willangley/pdf-sprinkles/pkg/gdocai"
	"github.com/willangley/pdf-sprinkles/pkg/pdfinfo"
	"github.com/willangley/pdf-sprinkles/pkg/pdfocr"
	"github.com/willangley/pdf-sprinkles/pkg/sprinkles"
)

var (
	configPath  string
	projectID   string
	location    string
	processorID string
	logLevel    string
	logFormat   string

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:           "sprinkles",
	Short:         "Make scanned PDFs searchable",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}
		logger = newLogger(cfg.Log, cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to the config YAML file")
	flags.StringVar(&projectID, "project-id", "", "Google Cloud project ID")
	flags.StringVar(&location, "location", "", `Document AI location ("us" or "eu")`)
	flags.StringVar(&processorID, "processor-id", "", "Document AI OCR processor ID")
	flags.StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "log format (console or json)")
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	override("project-id", &c.ProjectID, projectID)
	override("location", &c.Location, location)
	override("processor-id", &c.ProcessorID, processorID)
	override("log-level", &c.Log.Level, logLevel)
	override("log-format", &c.Log.Format, logFormat)
	return c, nil
}

// newLogger builds the process logger from the log settings.
func newLogger(lc config.LogConfig, w io.Writer) *log.Logger {
	var writer log.Writer = &log.IOWriter{Writer: w}
	if lc.Format != "json" {
		writer = &log.ConsoleWriter{
			ColorOutput: w == os.Stderr,
			Writer:      w,
		}
	}
	level := log.InfoLevel
	if lc.Level != "" {
		level = log.ParseLevel(lc.Level)
	}
	return &log.Logger{
		Level:      level,
		TimeFormat: "15:04:05",
		Writer:     writer,
	}
}

// newConverter wires the Document AI client and the pdf-info runner.
func newConverter(c *config.Config) (*sprinkles.Converter, *gdocai.Client, error) {
	client := gdocai.NewClient(gdocai.Config{
		ProjectID:         c.ProjectID,
		Location:          c.Location,
		ProcessorID:       c.ProcessorID,
		CredentialsFile:   c.CredentialsFile,
		MaxDocumentSize:   c.MaxInputSize,
		RequestsPerSecond: c.RequestsPerSecond,
	}, logger)

	runner, err := pdfinfo.NewSelfRunner(c.Sandbox)
	if err != nil {
		return nil, nil, err
	}

	render := pdfocr.DefaultConfig()
	render.MinConfidence = c.MinConfidence
	render.Debug = c.DebugText
	render.Font.File = c.FontFile
	render.Logger = logger

	conv := sprinkles.New(client, runner, sprinkles.Config{
		MaxInputSize: int(c.MaxInputSize),
		ProbeTimeout: c.PDFInfoTimeout,
		Render:       render,
	}, logger)
	return conv, client, nil
}
