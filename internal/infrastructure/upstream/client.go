package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Response is a fully-read upstream reply.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client posts JSON documents to the spreadsheet web app.
type Client struct {
	httpClient *http.Client
	maxBody    int64
}

// DefaultMaxResponseBody caps how much of an upstream reply is read.
const DefaultMaxResponseBody = 4 << 20

// ErrResponseTooLarge は上限を超えた応答を切り詰めずに拒否するためのエラー。
var ErrResponseTooLarge = errors.New("upstream response exceeds size limit")

// NewClient returns a Client. A nil httpClient gets one without a timeout:
// the end-to-end deadline belongs to the caller's context.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, maxBody: DefaultMaxResponseBody}
}

// PostJSON sends body to endpoint and reads the whole reply.
// Non-2xx replies are returned, not turned into errors. A reply longer than
// the cap is an ErrResponseTooLarge error.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body []byte) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSpace(endpoint), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upstream request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("upstream response read failed: %w", err)
	}
	if int64(len(raw)) > c.maxBody {
		return nil, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, c.maxBody)
	}

	return &Response{StatusCode: res.StatusCode, Body: raw}, nil
}
