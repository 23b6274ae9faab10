// Package video wraps the Vimeo API used to host exercise videos.
//
// The integration is optional: without credentials New returns
// ErrNotConfigured and the rest of the API keeps working.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.vimeo.com"
	vimeoTokenPath = "/oauth/authorize/client"
	vimeoAccept    = "application/vnd.vimeo.*+json;version=3.4"
)

// ErrNotConfigured is returned when no Vimeo credentials are set.
var ErrNotConfigured = errors.New("video host is not configured")

// UpstreamError is a non-2xx answer from Vimeo.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("video host returned %d: %s", e.StatusCode, e.Message)
}

type Config struct {
	AccessToken  string
	ClientID     string
	ClientSecret string
	// BaseURL overrides the API root, mainly for tests.
	BaseURL string
	// RequestsPerSecond bounds outgoing calls. Zero means 2.
	RequestsPerSecond float64
}

// Configured reports whether enough credentials are present to talk to Vimeo.
func (c Config) Configured() bool {
	return c.AccessToken != "" || (c.ClientID != "" && c.ClientSecret != "")
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// New builds a client. A personal access token wins over client credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var ts oauth2.TokenSource
	if cfg.AccessToken != "" {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "bearer"})
	} else {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     baseURL + vimeoTokenPath,
			Scopes:       []string{"public", "private", "upload"},
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		ts = cc.TokenSource(ctx)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &Client{
		httpClient: oauth2.NewClient(ctx, ts),
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Video is the subset of the Vimeo video resource the API exposes.
type Video struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link"`
	PlayerEmbed string `json:"playerEmbedUrl,omitempty"`
	Duration    int    `json:"duration"`
	Status      string `json:"status"`
	Upload      string `json:"uploadStatus,omitempty"`
	Transcode   string `json:"transcodeStatus,omitempty"`
}

// ID returns the numeric id at the end of the resource URI.
func (v Video) ID() string {
	return v.URI[strings.LastIndex(v.URI, "/")+1:]
}

type videoResponse struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
	PlayerEmbed string `json:"player_embed_url"`
	Duration    int    `json:"duration"`
	Status      string `json:"status"`
	Upload      struct {
		Status string `json:"status"`
	} `json:"upload"`
	Transcode struct {
		Status string `json:"status"`
	} `json:"transcode"`
}

func (r videoResponse) toVideo() Video {
	return Video{
		URI:         r.URI,
		Name:        r.Name,
		Description: r.Description,
		Link:        r.Link,
		PlayerEmbed: r.PlayerEmbed,
		Duration:    r.Duration,
		Status:      r.Status,
		Upload:      r.Upload.Status,
		Transcode:   r.Transcode.Status,
	}
}

type pullUploadRequest struct {
	Upload struct {
		Approach string `json:"approach"`
		Link     string `json:"link"`
	} `json:"upload"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PullUpload asks Vimeo to fetch sourceURL itself. The returned video is
// usually still transcoding; poll GetVideo for its status.
func (c *Client) PullUpload(ctx context.Context, sourceURL, name, description string) (Video, error) {
	var body pullUploadRequest
	body.Upload.Approach = "pull"
	body.Upload.Link = sourceURL
	body.Name = name
	body.Description = description

	var out videoResponse
	if err := c.do(ctx, http.MethodPost, "/me/videos", body, &out); err != nil {
		return Video{}, err
	}
	return out.toVideo(), nil
}

func (c *Client) GetVideo(ctx context.Context, id string) (Video, error) {
	var out videoResponse
	if err := c.do(ctx, http.MethodGet, "/videos/"+id, nil, &out); err != nil {
		return Video{}, err
	}
	return out.toVideo(), nil
}

type errorResponse struct {
	Error          string `json:"error"`
	DeveloperError string `json:"developer_message"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", vimeoAccept)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &UpstreamError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode video host response: %w", err)
	}
	return nil
}
