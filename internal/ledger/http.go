package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient 通过 HTTP 网关访问外部账本
//
//	POST {base}/finalize               {"room_id","winner_id"} -> {"status","tx_ref","reason"}
//	GET  {base}/finalizations/{roomID} -> 200 {"status","tx_ref"} | 404
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPClient 创建网关客户端，timeout 是单次调用的超时
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
	}
}

type finalizeRequest struct {
	RoomID   string `json:"room_id"`
	WinnerID string `json:"winner_id"`
}

type gatewayResponse struct {
	Status string `json:"status"`
	TxRef  string `json:"tx_ref"`
	Reason string `json:"reason"`
}

func (c *HTTPClient) Finalize(ctx context.Context, roomID, winnerID string) (Result, error) {
	body, err := json.Marshal(finalizeRequest{RoomID: roomID, WinnerID: winnerID})
	if err != nil {
		return Result{}, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/finalize", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *HTTPClient) QueryFinalization(ctx context.Context, roomID string) (Result, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/finalizations/"+url.PathEscape(roomID), nil)
	if err != nil {
		return Result{}, err
	}
	return c.do(req)
}

func (c *HTTPClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *HTTPClient) do(req *http.Request) (Result, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("ledger: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return Result{Outcome: OutcomeNotFound}, nil
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("ledger: %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var gr gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Result{}, fmt.Errorf("ledger: decode response: %w", err)
	}
	outcome, err := ParseOutcome(gr.Status)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: outcome, TxRef: gr.TxRef, Reason: gr.Reason}, nil
}
