package syncdriver

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/recipekit/pkg/offline"
)

// Replayer sends one queued operation to the service.
type Replayer interface {
	Replay(ctx context.Context, op offline.Operation) error
}

// ReplayerFunc adapts a function to Replayer.
type ReplayerFunc func(ctx context.Context, op offline.Operation) error

func (f ReplayerFunc) Replay(ctx context.Context, op offline.Operation) error { return f(ctx, op) }

// Replay request headers.
const (
	HeaderOperationID = "X-Operation-ID"
	HeaderTimestamp   = "X-Replay-Timestamp"
	HeaderSignature   = "X-Replay-Signature"
)

// HTTPReplayer posts each operation as JSON to a single sync endpoint. The
// operation id travels in HeaderOperationID so the service can deduplicate
// replays. With a secret the body is signed as
// HMAC-SHA256(secret, timestamp + "." + body).
type HTTPReplayer struct {
	endpoint string
	secret   string
	client   *http.Client
	now      func() time.Time
}

// NewHTTPReplayer creates a replayer for endpoint. A nil client uses a client
// with a 30 second timeout.
func NewHTTPReplayer(endpoint, secret string, client *http.Client) *HTTPReplayer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPReplayer{endpoint: endpoint, secret: secret, client: client, now: time.Now}
}

func (r *HTTPReplayer) Replay(ctx context.Context, op offline.Operation) error {
	if r.endpoint == "" {
		return ErrNoEndpoint
	}

	body, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("encode operation %s: %w", op.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderOperationID, op.ID)
	if r.secret != "" {
		ts := r.now().Unix()
		req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
		req.Header.Set(HeaderSignature, Sign(r.secret, ts, body))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: status %d: %s", ErrReplayRejected, resp.StatusCode, bytes.TrimSpace(msg))
}

// Sign returns the hex HMAC-SHA256 of timestamp and body.
func Sign(secret string, timestamp int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.", timestamp)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks a signature produced by Sign in constant time.
func Verify(secret string, timestamp int64, body []byte, signature string) error {
	want, err := hex.DecodeString(Sign(secret, timestamp, body))
	if err != nil {
		return err
	}
	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(want, got) {
		return ErrInvalidSignature
	}
	return nil
}
