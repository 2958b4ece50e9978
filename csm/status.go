package csm

import (
	"context"
	"encoding/json"
	"net/http"
)

// GetStatus returns the account status document.
func (c *Client) GetStatus(ctx context.Context) (Status, error) {
	resp, err := c.Send(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: "status",
	})
	if err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return nil, &ResponseShapeError{Operation: "get status", Body: resp.Body, Err: err}
	}

	if status == nil {
		return nil, &ResponseShapeError{Operation: "get status", Body: resp.Body, Err: errNotObject}
	}

	return status, nil
}
