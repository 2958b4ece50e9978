package csm

import (
	"context"
	"net/http"
)

// ListMessages returns the messages matching p.
func (c *Client) ListMessages(ctx context.Context, p ListMessagesParams) ([]Message, error) {
	params, err := p.params()
	if err != nil {
		return nil, err
	}

	resp, err := c.Send(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: "messages",
		Params:   params,
	})
	if err != nil {
		return nil, err
	}

	return decodeList[Message](resp, "list messages", messageFields)
}

// SendToContact sends a message to a single contact.
func (c *Client) SendToContact(ctx context.Context, data SendToContactData) (*SendToContactResponse, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}

	resp, err := c.Send(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: "messages/send_to_contact",
		Body:     data,
	})
	if err != nil {
		return nil, err
	}

	var out SendToContactResponse
	if err := decodeRecord(resp, "send to contact", sendToContactFields, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SendToTags sends a message to every contact carrying one of the tags.
func (c *Client) SendToTags(ctx context.Context, data SendToTagsData) (*SendToTagsResponse, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}

	resp, err := c.Send(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: "messages/send",
		Body:     data,
	})
	if err != nil {
		return nil, err
	}

	var out SendToTagsResponse
	if err := decodeRecord(resp, "send to tags", sendToTagsFields, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
