// Package imageapi talks to the image-generation backend over HTTP.
package imageapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"resty.dev/v3"

	"github.com/janhq/jan-imagegen/internal/domain/generation"
	"github.com/janhq/jan-imagegen/internal/utils/platformerrors"
	"github.com/janhq/jan-imagegen/pkg/config"
)

const (
	generatePath   = "/generate-image"
	taskStatusPath = "/task-status/{taskId}"
	deletePath     = "/delete-images/"
	queuedJobsPath = "/jobs/queued"
)

// Client implements generation.Backend and gallery.AssetDeleter.
type Client struct {
	base   *url.URL
	apiKey string
	http   *resty.Client
	log    zerolog.Logger
}

type Option func(*clientOptions)

type clientOptions struct {
	limiter   *rate.Limiter
	transport http.RoundTripper
}

// WithLimiter replaces the limiter built from the config.
func WithLimiter(l *rate.Limiter) Option {
	return func(o *clientOptions) { o.limiter = l }
}

// WithTransport sets the underlying round tripper, e.g. an instrumented one.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.transport = rt }
}

// NewClient builds a backend client from cfg.
func NewClient(cfg config.APIConfig, log zerolog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.BaseURL)
	}

	o := clientOptions{limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))}
	for _, opt := range opts {
		opt(&o)
	}

	log = log.With().Str("component", "imageapi").Logger()
	hc := newRestyClient("imageapi", o.limiter, log).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetAllowMethodDeletePayload(true)
	if cfg.RequestTimeout > 0 {
		hc.SetTimeout(cfg.RequestTimeout)
	}
	if o.transport != nil {
		hc.SetTransport(o.transport)
	}

	return &Client{base: base, apiKey: cfg.APIKey, http: hc, log: log}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// BaseURL returns the backend base URL with a trailing slash.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Submit posts a generation request.
func (c *Client) Submit(ctx context.Context, req generation.Request) (*generation.Submission, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(generateRequest{
			Prompt:           req.Prompt,
			AspectRatio:      req.AspectRatio,
			UsePromptRefiner: req.UsePromptRefiner,
		})
	if c.apiKey != "" {
		r.SetAuthToken(c.apiKey)
	}

	resp, err := r.Post(generatePath)
	if err != nil {
		return nil, transportError(ctx, "generate image", err)
	}
	if !resp.IsSuccess() {
		return nil, statusError(ctx, "generate image", resp)
	}

	sub, err := decodeSubmission(resp.Bytes(), c.base)
	if err != nil {
		c.log.Error().Err(err).Str("body", resp.String()).Msg("failed to parse generate-image response")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeMalformed,
			"decode generate-image response", err, "")
	}
	return sub, nil
}

// TaskStatus fetches the status of taskID.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*generation.StatusReport, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("taskId", taskID).
		Get(taskStatusPath)
	if err != nil {
		return nil, transportError(ctx, "task status", err)
	}
	if !resp.IsSuccess() {
		return nil, statusError(ctx, "task status", resp)
	}

	report, err := decodeStatus(resp.Bytes(), c.base)
	if err != nil {
		c.log.Error().Err(err).Str("task_id", taskID).Str("body", resp.String()).Msg("failed to parse task-status response")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeMalformed,
			"decode task-status response", err, "")
	}
	return report, nil
}

// DeleteImages asks the backend to remove the assets named by ids. Any 2xx
// answer is success; the body is not inspected.
func (c *Client) DeleteImages(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
			"no image ids to delete", nil, "")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(deleteImagesRequest{ImageIDs: ids}).
		Delete(deletePath)
	if err != nil {
		return transportError(ctx, "delete images", err)
	}
	if !resp.IsSuccess() {
		return statusError(ctx, "delete images", resp)
	}
	c.log.Debug().Strs("image_ids", ids).Msg("backend assets deleted")
	return nil
}

// QueueStats reports how many jobs the backend has queued and running.
func (c *Client) QueueStats(ctx context.Context) (*QueueStats, error) {
	resp, err := c.http.R().SetContext(ctx).Get(queuedJobsPath)
	if err != nil {
		return nil, transportError(ctx, "queued jobs", err)
	}
	if !resp.IsSuccess() {
		return nil, statusError(ctx, "queued jobs", resp)
	}

	var stats QueueStats
	if err := json.Unmarshal(resp.Bytes(), &stats); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeMalformed,
			"decode queued jobs response", fmt.Errorf("%w: %v", generation.ErrMalformedResponse, err), "")
	}
	if stats.Error != "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"queued jobs: "+stats.Error, nil, "")
	}
	return &stats, nil
}

// Image is a downloaded asset.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// FetchImage downloads the asset at rawURL. Relative URLs resolve against the
// backend; data URLs are decoded locally.
func (c *Client) FetchImage(ctx context.Context, rawURL string) (*Image, error) {
	if strings.HasPrefix(rawURL, "data:") {
		data, err := decodeDataURL(rawURL)
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
				"decode data url", err, "")
		}
		return newImage(data), nil
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "image/*").
		Get(resolveURL(c.base, rawURL))
	if err != nil {
		return nil, transportError(ctx, "fetch image", err)
	}
	if !resp.IsSuccess() {
		return nil, statusError(ctx, "fetch image", resp)
	}

	img := newImage(resp.Bytes())
	c.log.Debug().
		Str("url", rawURL).
		Str("content_type", img.ContentType).
		Int("bytes", len(img.Data)).
		Dur("elapsed", time.Since(start)).
		Msg("image fetched")
	return img, nil
}

// FileName swaps the extension of name for the detected one.
func (i *Image) FileName(name string) string {
	if i.Extension == "" {
		return name
	}
	return strings.TrimSuffix(name, path.Ext(name)) + i.Extension
}

func newImage(data []byte) *Image {
	mt := mimetype.Detect(data)
	return &Image{Data: data, ContentType: mt.String(), Extension: mt.Extension()}
}

func transportError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, op)
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
		op+" request failed", err, "")
}

func statusError(ctx context.Context, op string, resp *resty.Response) error {
	body := resp.String()
	if len(body) > 512 {
		body = body[:512]
	}
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
		fmt.Sprintf("%s returned status %d", op, resp.StatusCode()),
		&generation.StatusError{Op: op, StatusCode: resp.StatusCode(), Body: body}, "",
		map[string]any{"status": resp.StatusCode()})
}
