package gdocai

import (
	"context"
	"fmt"
	"sync"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/phuslu/log"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// DefaultMaxDocumentSize is Document AI's limit for online processing.
const DefaultMaxDocumentSize = 20 << 20

// Config identifies the Document AI processor to call.
type Config struct {
	ProjectID       string
	Location        string // "us" or "eu"
	ProcessorID     string
	CredentialsFile string // Optional; Application Default Credentials otherwise

	// MaxDocumentSize defaults to DefaultMaxDocumentSize.
	MaxDocumentSize int64
	// RequestsPerSecond throttles calls when positive.
	RequestsPerSecond float64
}

// Endpoint is the regional API endpoint for the configured location.
func (c Config) Endpoint() string {
	return fmt.Sprintf("%s-documentai.googleapis.com:443", c.Location)
}

// ProcessorName is the full resource name of the processor.
func (c Config) ProcessorName() string {
	return fmt.Sprintf(
		"projects/%s/locations/%s/processors/%s",
		c.ProjectID, c.Location, c.ProcessorID,
	)
}

// processor is the subset of the Document AI client used here.
type processor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// Client recognizes PDFs with a Document AI OCR processor. It is safe for
// concurrent use. The underlying gRPC client is created on first use and
// shared for the life of the Client.
type Client struct {
	cfg     Config
	logger  *log.Logger
	limiter *rate.Limiter
	dial    func(ctx context.Context) (processor, error)

	mu   sync.Mutex
	proc processor
}

// NewClient returns a Client. No connection is made until the first call.
func NewClient(cfg Config, logger *log.Logger) *Client {
	if cfg.MaxDocumentSize <= 0 {
		cfg.MaxDocumentSize = DefaultMaxDocumentSize
	}
	if logger == nil {
		logger = &log.DefaultLogger
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
	}
	c.dial = c.dialDocumentAI
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

func (c *Client) dialDocumentAI(ctx context.Context) (processor, error) {
	opts := []option.ClientOption{option.WithEndpoint(c.cfg.Endpoint())}
	if c.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.cfg.CredentialsFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	return client, nil
}

// processor returns the shared client handle, creating it if needed.
// A failed creation is retried by the next caller.
func (c *Client) processor(ctx context.Context) (processor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proc != nil {
		return c.proc, nil
	}

	// The handle outlives the request that happened to create it.
	proc, err := c.dial(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}

	c.logger.Info().Str("endpoint", c.cfg.Endpoint()).Msg("document ai client ready")
	c.proc = proc
	return proc, nil
}

// Warmup creates the client handle ahead of the first request.
func (c *Client) Warmup(ctx context.Context) error {
	if _, err := c.processor(ctx); err != nil {
		return &ServiceError{Err: err}
	}
	return nil
}

// Recognize sends a PDF to Document AI and converts the response.
// Documents over the size limit fail with ErrDocumentTooLarge without a
// remote call; remote failures are returned as *ServiceError.
func (c *Client) Recognize(ctx context.Context, pdf []byte) (*Document, error) {
	if int64(len(pdf)) > c.cfg.MaxDocumentSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrDocumentTooLarge, len(pdf), c.cfg.MaxDocumentSize)
	}

	proc, err := c.processor(ctx)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req := &documentaipb.ProcessRequest{
		Name: c.cfg.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdf,
				MimeType: "application/pdf",
			},
		},
		SkipHumanReview: true,
	}

	resp, err := proc.ProcessDocument(ctx, req)
	if err != nil {
		c.logger.Error().Err(err).Int("bytes", len(pdf)).Msg("document ai request failed")
		return nil, &ServiceError{Err: err}
	}

	doc := DocumentFromProto(resp.GetDocument())
	c.logger.Debug().Int("pages", len(doc.Pages)).Int("text_length", len(doc.Text)).Msg("document recognized")
	return doc, nil
}

// Close releases the client handle if one was created.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proc == nil {
		return nil
	}
	err := c.proc.Close()
	c.proc = nil
	return err
}
