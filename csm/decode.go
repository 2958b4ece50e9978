package csm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// decodeRecord decodes a JSON object into v after checking its required
// fields.
func decodeRecord(resp *Response, op string, required []string, v any) error {
	if err := checkRequired(resp.Body, required); err != nil {
		return &ResponseShapeError{Operation: op, Body: resp.Body, Err: err}
	}

	if err := json.Unmarshal(resp.Body, v); err != nil {
		return &ResponseShapeError{Operation: op, Body: resp.Body, Err: err}
	}

	return nil
}

// decodeList decodes a JSON array of objects, checking the required fields
// of every element.
func decodeList[T any](resp *Response, op string, required []string) ([]T, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, &ResponseShapeError{Operation: op, Body: resp.Body, Err: err}
	}

	out := make([]T, 0, len(raw))

	for i, item := range raw {
		if err := checkRequired(item, required); err != nil {
			return nil, &ResponseShapeError{Operation: op, Body: resp.Body, Err: fmt.Errorf("item %d: %w", i, err)}
		}

		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, &ResponseShapeError{Operation: op, Body: resp.Body, Err: fmt.Errorf("item %d: %w", i, err)}
		}

		out = append(out, v)
	}

	return out, nil
}

var errNotObject = errors.New("expected a JSON object")
