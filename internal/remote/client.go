// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/assetsync/assetsync/pkg/manifest"
)

const (
	// DefaultChannel is used when no channel is configured.
	DefaultChannel = "live"

	// DefaultTimeout bounds a manifest request. Artifact downloads are bounded
	// only by the caller's context, since bodies are streamed.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "assetsync/dev"
)

// ErrNoOrigin is returned by New when origin is empty or not an http(s) URL.
var ErrNoOrigin = errors.New("origin must be an http or https URL")

type (
	// StatusError is returned for any non-200 response.
	StatusError struct {
		URL  string
		Code int
	}

	// Client talks to one origin and channel.
	Client struct {
		httpClient *http.Client
		origin     string
		channel    string
		timeout    time.Duration
		userAgent  string
	}

	// Option configures a Client.
	Option func(*Client)
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// NotFound reports whether the origin answered 404.
func (e *StatusError) NotFound() bool { return e.Code == http.StatusNotFound }

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout overrides DefaultTimeout for manifest requests.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithChannel selects the release channel path segment.
func WithChannel(channel string) Option {
	return func(cl *Client) {
		cl.channel = strings.Trim(channel, "/")
	}
}

// New returns a client for origin.
func New(origin string, opts ...Option) (*Client, error) {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoOrigin, origin)
	}

	c := &Client{
		httpClient: http.DefaultClient,
		origin:     strings.TrimRight(origin, "/"),
		channel:    DefaultChannel,
		timeout:    DefaultTimeout,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ManifestURL is the location of the channel's current manifest.
func (c *Client) ManifestURL() string {
	return c.origin + "/" + url.PathEscape(c.channel) + "/" + manifest.FileName
}

// ArtifactURL is the location of an artifact of a given release. name is a
// manifest bundle_name such as "Bundles/index".
func (c *Client) ArtifactURL(v manifest.Version, name string) string {
	segs := strings.Split(name, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return c.origin + "/" + url.PathEscape(c.channel) + "/" + v.String() + "/" + strings.Join(segs, "/")
}

// FetchManifest downloads and decodes the channel's manifest. Decode failures
// wrap manifest.ErrInvalid or manifest.ErrEmpty.
func (c *Client) FetchManifest(ctx context.Context) (*manifest.Manifest, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.get(ctx, c.ManifestURL())
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	m, err := manifest.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", c.ManifestURL(), err)
	}
	return m, nil
}

// FetchArtifact opens a streaming download of one artifact. The caller closes
// the body. size is -1 when the origin does not send Content-Length.
func (c *Client) FetchArtifact(ctx context.Context, v manifest.Version, name string) (body io.ReadCloser, size int64, err error) {
	resp, err := c.get(ctx, c.ArtifactURL(v, name))
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

func (c *Client) get(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	// Manifests change in place on the CDN; artifacts are versioned by path.
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", reqURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: reqURL, Code: resp.StatusCode}
	}
	return resp, nil
}
