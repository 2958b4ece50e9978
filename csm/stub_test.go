package csm

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitalvas/imcsm/config"
)

// stubClient returns a client whose every request is answered with status
// and body without touching the network.
func stubClient(t *testing.T, status int, body string) *Client {
	t.Helper()

	doer := doerFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})

	client, err := New(config.Credentials{
		APIKey:    "k",
		APISecret: "s",
		BaseURL:   "https://api.example.com",
	}, WithHTTPClient(doer))
	require.NoError(t, err)

	return client
}
