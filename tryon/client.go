// Package tryon produces composite try-on images: it loads the user's photo and
// an outfit reference, builds a scene prompt and asks Gemini for an image,
// retrying transient service failures.
package tryon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"

	"github.com/raushankrgupta/fitscroll/logging"
)

var (
	// ErrGeneration covers transport, status and safety failures of the generation call.
	ErrGeneration = errors.New("image generation failed")
	// ErrNoImage means the service answered but no candidate carried image data.
	ErrNoImage = errors.New("no image in generation response")
	// ErrImageLoad means an input image could not be read.
	ErrImageLoad = errors.New("image load failed")
)

// Model is the part of *genai.GenerativeModel the client needs
type Model interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Options tunes the retry policy and throttling of a Client
type Options struct {
	MaxRetries    int           // retries after the first attempt
	RetryDelay    time.Duration // attempt k waits k*RetryDelay
	Timeout       time.Duration // per attempt, 0 means no extra deadline
	RatePerMinute int           // 0 means unlimited
	PromptSuffix  string        // fixed output instructions appended to every prompt
}

// Client generates composite images. It is safe for sequential use by one pipeline run.
type Client struct {
	model  Model
	store  ImageStore
	loader *ImageLoader

	maxRetries   int
	retryDelay   time.Duration
	timeout      time.Duration
	limiter      *rate.Limiter
	promptSuffix string

	sleep  func(ctx context.Context, d time.Duration) error
	logger logging.Logger
}

// NewClient wires a model, the store for generated images and the input image loader
func NewClient(model Model, store ImageStore, loader *ImageLoader, opts Options, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	if loader == nil {
		loader = NewImageLoader(nil, 0)
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), 1)
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Client{
		model:        model,
		store:        store,
		loader:       loader,
		maxRetries:   opts.MaxRetries,
		retryDelay:   opts.RetryDelay,
		timeout:      opts.Timeout,
		limiter:      limiter,
		promptSuffix: opts.PromptSuffix,
		sleep:        sleepContext,
		logger:       logger.With("component", "tryon"),
	}
}

// InlineImage is an encoded image sent to the model
type InlineImage struct {
	Data     []byte
	MIMEType string
}

// Generate sends the prompt and images as one request and returns the locator of the
// first image found in the response. Rate limiting and 5xx answers are retried with
// linear backoff; other failures return immediately.
func (c *Client) Generate(ctx context.Context, prompt string, images []InlineImage) (string, error) {
	parts := make([]genai.Part, 0, len(images)+1)
	parts = append(parts, genai.Text(c.fullPrompt(prompt)))
	for _, img := range images {
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: img.Data})
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.retryDelay
			c.logger.Warn(ctx, "retrying generation", "attempt", attempt+1, "delay", delay, "error", lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return "", fmt.Errorf("%w: %w", ErrGeneration, err)
			}
		}

		resp, err := c.attempt(ctx, parts)
		if err == nil {
			return c.saveFirstImage(ctx, resp)
		}
		lastErr = err
		if !IsRetryable(err) {
			return "", fmt.Errorf("%w: %w", ErrGeneration, err)
		}
	}
	return "", fmt.Errorf("%w: gave up after %d attempts: %w", ErrGeneration, c.maxRetries+1, lastErr)
}

func (c *Client) attempt(ctx context.Context, parts []genai.Part) (*genai.GenerateContentResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.model.GenerateContent(ctx, parts...)
}

func (c *Client) saveFirstImage(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	blob, ok := FirstImage(resp)
	if !ok {
		return "", ErrNoImage
	}
	locator, err := c.store.Save(ctx, blob.Data, blob.MIMEType)
	if err != nil {
		return "", fmt.Errorf("%w: store generated image: %w", ErrGeneration, err)
	}
	return locator, nil
}

func (c *Client) fullPrompt(prompt string) string {
	if c.promptSuffix == "" {
		return prompt
	}
	return prompt + "\n" + c.promptSuffix
}

// FirstImage scans candidates in order, and each candidate's parts in order, for image data
func FirstImage(resp *genai.GenerateContentResponse) (genai.Blob, bool) {
	if resp == nil {
		return genai.Blob{}, false
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 && strings.HasPrefix(blob.MIMEType, "image/") {
				return blob, true
			}
		}
	}
	return genai.Blob{}, false
}

// StatusCode extracts the HTTP status carried by an SDK error, or 0
func StatusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	var aerr *apierror.APIError
	if errors.As(err, &aerr) {
		return aerr.HTTPCode()
	}
	return 0
}

// IsRetryable reports whether err is a rate limit or server-side failure
func IsRetryable(err error) bool {
	code := StatusCode(err)
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
