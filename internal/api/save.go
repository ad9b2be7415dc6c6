package api

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"time"
)

const saveBaseDelay = 500 * time.Millisecond

// SaveThread persists a thread payload, retrying server errors and
// transport failures up to retryCount extra attempts. Client errors
// (400/401/403/404/422) fail immediately.
func (c *Client) SaveThread(payload any, retryCount int) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt <= retryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff(saveBaseDelay, attempt))
		}

		raw, err := c.do(http.MethodPost, "/threads", nil, payload, "save thread")
		if err == nil {
			if raw == nil {
				// 204: echo the payload so callers still see what was stored
				return json.Marshal(map[string]any{"status": "success", "thread": payload})
			}
			return raw, nil
		}

		if apiErr, ok := err.(*Error); ok {
			switch apiErr.StatusCode {
			case 400, 401, 403, 404, 422:
				return nil, err
			}
		}
		lastErr = err
	}
	return nil, lastErr
}

// backoff returns exponential backoff with up to +/-25% jitter, capped at
// 30 seconds.
func backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base * time.Duration(1<<uint(attempt))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2)) - d/4
	return d + jitter
}
