package csm

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/vitalvas/imcsm/imsig"
)

// ListContacts returns the contacts matching p.
func (c *Client) ListContacts(ctx context.Context, p ListContactsParams) ([]Contact, error) {
	params, err := p.params()
	if err != nil {
		return nil, err
	}

	resp, err := c.Send(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: "contacts",
		Params:   params,
	})
	if err != nil {
		return nil, err
	}

	return decodeList[Contact](resp, "list contacts", contactFields)
}

// GetContact returns the contact with the given MSISDN.
func (c *Client) GetContact(ctx context.Context, msisdn string) (*Contact, error) {
	if strings.TrimSpace(msisdn) == "" {
		return nil, &ValidationError{Field: "msisdn", Reason: "is required"}
	}

	resp, err := c.Send(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: "contacts/" + url.PathEscape(msisdn),
		Params:   imsig.Params{"msisdn": imsig.String(msisdn)},
	})
	if err != nil {
		return nil, err
	}

	var contact Contact
	if err := decodeRecord(resp, "get contact", contactFields, &contact); err != nil {
		return nil, err
	}

	return &contact, nil
}
