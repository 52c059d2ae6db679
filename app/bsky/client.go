package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avdmnk/daypost/app/digest"
	"github.com/avdmnk/daypost/app/post"
)

const postCollection = "app.bsky.feed.post"

// XRPCClient posts records over the AT Protocol XRPC endpoints. Sessions are
// created on Login and refreshed lazily when a post hits a 401.
type XRPCClient struct {
	host       string
	handle     string
	password   string
	userAgent  string
	langs      []string
	httpClient *http.Client

	accessJwt string
	did       string
}

var _ Client = (*XRPCClient)(nil)

func NewXRPCClient(host, handle, password, userAgent, lang string, httpClient *http.Client) *XRPCClient {
	return &XRPCClient{
		host:       strings.TrimRight(host, "/"),
		handle:     handle,
		password:   password,
		userAgent:  userAgent,
		langs:      []string{lang},
		httpClient: httpClient,
	}
}

type sessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
}

// Login creates a session with the configured handle and app password
func (c *XRPCClient) Login(ctx context.Context) error {
	body := map[string]string{
		"identifier": c.handle,
		"password":   c.password,
	}

	var session sessionResponse
	if err := c.call(ctx, "com.atproto.server.createSession", "", body, &session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	c.accessJwt = session.AccessJwt
	c.did = session.DID

	slog.Debug("Session created", "handle", c.handle, "did", c.did)

	return nil
}

type createRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// CreatePost publishes one post record. The idempotency key is used as the
// record key; a record that already exists under that key is reported as
// success with its canonical AT-URI.
func (c *XRPCClient) CreatePost(ctx context.Context, p Post) (string, error) {
	if c.accessJwt == "" {
		if err := c.Login(ctx); err != nil {
			return "", err
		}
	}

	record := map[string]any{
		"$type":     postCollection,
		"text":      p.Text,
		"createdAt": p.CreatedAt.UTC().Format(time.RFC3339),
		"langs":     c.langs,
	}

	if facets := facetRecords(p.Facets); len(facets) > 0 {
		record["facets"] = facets
	}

	if p.Embed != nil {
		embed, err := c.imageEmbed(ctx, p.Embed)
		if err != nil {
			// The image is decoration; the unit text still goes out
			slog.Warn("Failed to attach image embed, posting without it", "url", p.Embed.URL, "error", err)
		} else {
			record["embed"] = embed
		}
	}

	body := map[string]any{
		"repo":       c.did,
		"collection": postCollection,
		"record":     record,
	}
	if p.IdempotencyKey != "" {
		body["rkey"] = p.IdempotencyKey
	}

	var created createRecordResponse
	err := c.call(ctx, "com.atproto.repo.createRecord", c.accessJwt, body, &created)
	if sessionExpired(err) {
		slog.Info("Session expired, re-authenticating", "handle", c.handle)
		c.accessJwt = ""
		if err = c.Login(ctx); err != nil {
			return "", err
		}
		err = c.call(ctx, "com.atproto.repo.createRecord", c.accessJwt, body, &created)
	}
	if err != nil {
		if p.IdempotencyKey != "" && strings.Contains(err.Error(), "already exists") {
			uri := fmt.Sprintf("at://%s/%s/%s", c.did, postCollection, p.IdempotencyKey)
			slog.Warn("Record already exists, treating as posted", "uri", uri)
			return uri, nil
		}
		return "", fmt.Errorf("failed to create post record: %w", err)
	}

	return created.URI, nil
}

type blobResponse struct {
	Blob json.RawMessage `json:"blob"`
}

// imageEmbed fetches the image resource and uploads it as a blob
func (c *XRPCClient) imageEmbed(ctx context.Context, image *digest.Image) (map[string]any, error) {
	data, contentType, err := c.fetchImage(ctx, image.URL)
	if err != nil {
		return nil, err
	}

	endpoint := c.host + "/xrpc/com.atproto.repo.uploadBlob"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blob upload HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var blob blobResponse
	if err := json.NewDecoder(resp.Body).Decode(&blob); err != nil {
		return nil, fmt.Errorf("failed to decode blob response: %w", err)
	}

	img := map[string]any{
		"image": blob.Blob,
		"alt":   image.Alt,
	}
	if image.Width > 0 && image.Height > 0 {
		img["aspectRatio"] = map[string]int{"width": image.Width, "height": image.Height}
	}

	return map[string]any{
		"$type":  "app.bsky.embed.images",
		"images": []map[string]any{img},
	}, nil
}

func (c *XRPCClient) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}

	return data, http.DetectContentType(data), nil
}

// call performs one JSON-in, JSON-out XRPC procedure call
func (c *XRPCClient) call(ctx context.Context, method, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.host + "/xrpc/" + method
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &xrpcError{status: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// xrpcError is a non-200 XRPC response, kept typed so callers can react to
// specific statuses.
type xrpcError struct {
	status int
	body   string
}

func (e *xrpcError) Error() string {
	return fmt.Sprintf("HTTP error: %d: %s", e.status, e.body)
}

// sessionExpired reports whether the error is a 401 on an authenticated call,
// meaning the access token aged out and a fresh login is needed.
func sessionExpired(err error) bool {
	var xe *xrpcError
	return errors.As(err, &xe) && xe.status == http.StatusUnauthorized
}

// facetRecords converts byte-range facets to richtext facet records
func facetRecords(facets []post.Facet) []map[string]any {
	records := make([]map[string]any, 0, len(facets))

	for _, f := range facets {
		records = append(records, map[string]any{
			"index": map[string]int{
				"byteStart": f.ByteStart,
				"byteEnd":   f.ByteEnd,
			},
			"features": []map[string]any{
				{
					"$type": "app.bsky.richtext.facet#link",
					"uri":   f.URI,
				},
			},
		})
	}

	return records
}
