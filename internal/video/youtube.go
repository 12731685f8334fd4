package video

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/KartikyaSokhal/CourseCraft/internal/platform/httpx"
)

const defaultCallTimeout = 8 * time.Second

// YouTubeOption configures a YouTubeClient.
type YouTubeOption func(*youtubeOptions)

type youtubeOptions struct {
	endpoint    string
	base        http.RoundTripper
	retry       httpx.RetryPolicy
	callTimeout time.Duration
}

// WithEndpoint overrides the YouTube Data API base URL.
func WithEndpoint(url string) YouTubeOption {
	return func(o *youtubeOptions) { o.endpoint = url }
}

// WithBaseTransport sets the transport beneath the retry layer.
func WithBaseTransport(rt http.RoundTripper) YouTubeOption {
	return func(o *youtubeOptions) { o.base = rt }
}

// WithRetryPolicy sets the retry policy for search and verify calls.
func WithRetryPolicy(p httpx.RetryPolicy) YouTubeOption {
	return func(o *youtubeOptions) { o.retry = p }
}

// WithCallTimeout bounds each search or verify call, retries included.
func WithCallTimeout(d time.Duration) YouTubeOption {
	return func(o *youtubeOptions) { o.callTimeout = d }
}

// YouTubeClient implements Searcher and Verifier on the YouTube Data API v3.
type YouTubeClient struct {
	svc         *youtube.Service
	callTimeout time.Duration
}

// NewYouTubeClient creates a client authenticated with an API key.
func NewYouTubeClient(ctx context.Context, apiKey string, opts ...YouTubeOption) (*YouTubeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube API key is empty")
	}
	o := youtubeOptions{callTimeout: defaultCallTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.callTimeout <= 0 {
		o.callTimeout = defaultCallTimeout
	}

	hc := &http.Client{
		Transport: &transport.APIKey{
			Key:       apiKey,
			Transport: httpx.NewRetryTransport(o.base, o.retry),
		},
	}
	clientOpts := []option.ClientOption{option.WithHTTPClient(hc)}
	if o.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.endpoint))
	}

	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return &YouTubeClient{svc: svc, callTimeout: o.callTimeout}, nil
}

// Search returns up to maxResults embeddable video IDs ordered by relevance.
func (c *YouTubeClient) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.svc.Search.List([]string{"id"}).
		Q(query).
		Type("video").
		MaxResults(int64(maxResults)).
		Order("relevance").
		VideoEmbeddable("true").
		Fields("items(id/videoId)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}
	return ids, nil
}

// Verify fetches privacy status and embeddability for ids in one request.
func (c *YouTubeClient) Verify(ctx context.Context, ids []string) ([]Status, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.svc.Videos.List([]string{"status"}).
		Id(ids...).
		Fields("items(id,status(privacyStatus,embeddable))").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos: %w", err)
	}

	statuses := make([]Status, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil {
			continue
		}
		st := Status{ID: item.Id}
		if item.Status != nil {
			st.PrivacyStatus = item.Status.PrivacyStatus
			st.Embeddable = item.Status.Embeddable
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
