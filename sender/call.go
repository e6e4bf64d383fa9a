package sender

import (
	"context"
	"encoding/json"
	"fmt"
)

// callJSON is the unified internal helper for all API calls.
// chatID keys the per-chat limiter; pass "" for calls not bound to a chat.
//
// Usage:
//
//	var result tg.File
//	if err := c.callJSON(ctx, "getFile", req, &result, ""); err != nil {
//	    return nil, err
//	}
func (c *Client) callJSON(ctx context.Context, method string, payload any, out any, chatID string) error {
	resp, err := c.executeRequest(ctx, method, payload, chatID)
	if err != nil {
		return err
	}
	if out == nil {
		return nil // For methods that return bool/void
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("packbot: %s: failed to parse response: %w", method, err)
	}
	return nil
}

// callJSONResult is a generic version for cleaner call sites.
//
// Usage:
//
//	me, err := callJSONResult[tg.User](c, ctx, "getMe", struct{}{}, "")
func callJSONResult[T any](c *Client, ctx context.Context, method string, payload any, chatID string) (T, error) {
	var result T
	if err := c.callJSON(ctx, method, payload, &result, chatID); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
