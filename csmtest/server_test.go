package csmtest

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/imcsm/imsig"
)

var testContacts = []Contact{
	{Msisdn: "50211111111", Tags: []string{"vip"}, FirstName: "Ana", Status: "ACTIVE", ProfileUID: "p-1", Monitoring: true},
	{Msisdn: "50222222222", Tags: []string{"news"}, FirstName: "Luis", Status: "INACTIVE", ProfileUID: "p-2"},
	{Msisdn: "50233333333", Tags: []string{"vip", "news"}, FirstName: "Sofia", Status: "BLOCKED", ProfileUID: "p-3"},
}

// do sends a request signed with the server's credentials.
func do(t *testing.T, srv *Server, method, path string, params imsig.Params, body string) *http.Response {
	t.Helper()

	target := srv.URL + path
	if q := params.Query(); q != "" {
		target += "?" + q
	}

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)

	headers, err := imsig.NewSigner(DefaultAPIKey, DefaultAPISecret).Sign(params, []byte(body))
	require.NoError(t, err)
	headers.Apply(req.Header)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

func TestServerAuthentication(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	t.Run("unsigned request is rejected", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/rest/status")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/rest/status", nil)
		require.NoError(t, err)

		headers, err := imsig.NewSigner(DefaultAPIKey, "wrong").Sign(nil, nil)
		require.NoError(t, err)
		headers.Apply(req.Header)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("signed request is accepted", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/api/rest/status", nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", decode[map[string]any](t, resp)["status"])
	})

	t.Run("requests are recorded", func(t *testing.T) {
		last, ok := srv.LastRequest()
		require.True(t, ok)
		assert.Equal(t, "/api/rest/status", last.Path)
		assert.NotEmpty(t, last.Header.Get("Authorization"))
		assert.Len(t, srv.Requests(), 3)
	})
}

func TestServerContacts(t *testing.T) {
	srv := NewServer(WithContacts(testContacts...))
	defer srv.Close()

	t.Run("list all", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/api/rest/contacts", nil, "")
		assert.Len(t, decode[[]Contact](t, resp), 3)
	})

	t.Run("filter by status", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/api/rest/contacts", imsig.Params{"status": imsig.String("ACTIVE,BLOCKED")}, "")
		contacts := decode[[]Contact](t, resp)
		require.Len(t, contacts, 2)
		assert.Equal(t, "p-1", contacts[0].ProfileUID)
		assert.Equal(t, "p-3", contacts[1].ProfileUID)
	})

	t.Run("query and paginate", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/api/rest/contacts", imsig.Params{
			"query": imsig.String("502"),
			"start": imsig.Int(1),
			"limit": imsig.Int(1),
		}, "")
		contacts := decode[[]Contact](t, resp)
		require.Len(t, contacts, 1)
		assert.Equal(t, "p-2", contacts[0].ProfileUID)
	})

	t.Run("get one", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/api/rest/contacts/50222222222", imsig.Params{"msisdn": imsig.String("50222222222")}, "")
		assert.Equal(t, "Luis", decode[Contact](t, resp).FirstName)
	})

	t.Run("get unknown", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/api/rest/contacts/1", imsig.Params{"msisdn": imsig.String("1")}, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServerMessages(t *testing.T) {
	srv := NewServer(
		WithContacts(testContacts...),
		WithMessages(
			Message{MessageID: "m-1", Direction: "MO", Msisdn: "50211111111", CreatedOn: "2024-01-01T10:00:00"},
			Message{MessageID: "m-2", Direction: "MT", Msisdn: "50222222222", CreatedOn: "2024-02-01T10:00:00"},
		),
	)
	defer srv.Close()

	t.Run("filter by direction", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/api/rest/messages", imsig.Params{"direction": imsig.String("MO")}, "")
		messages := decode[[]Message](t, resp)
		require.Len(t, messages, 1)
		assert.Equal(t, "m-1", messages[0].MessageID)
	})

	t.Run("filter by dates", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/api/rest/messages", imsig.Params{
			"start_date": imsig.String("2024-01-15 00:00:00"),
			"end_date":   imsig.String("2024-03-01 00:00:00.500000"),
			"start":      imsig.Int(-1),
			"limit":      imsig.Int(-1),
		}, "")
		messages := decode[[]Message](t, resp)
		require.Len(t, messages, 1)
		assert.Equal(t, "m-2", messages[0].MessageID)
	})

	t.Run("invalid date", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/api/rest/messages", imsig.Params{"start_date": imsig.String("yesterday")}, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("send to contact", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/api/rest/messages/send_to_contact", nil, `{"msisdn":"50211111111","message":"hola","id":"req-1"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		out := decode[map[string]any](t, resp)
		assert.Equal(t, "req-1", out["id"])
		assert.Equal(t, "hola", out["message"])
		assert.EqualValues(t, 1, out["total_monitors"])

		_, err := time.Parse(TimeLayout, out["created_on"].(string))
		assert.NoError(t, err)
	})

	t.Run("send to unknown contact", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/api/rest/messages/send_to_contact", nil, `{"msisdn":"1","message":"hola"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("send to tags", func(t *testing.T) {
		before := len(srv.Messages())

		resp := do(t, srv, http.MethodPost, "/api/rest/messages/send", nil, `{"tags":["vip"],"message":"promo"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		out := decode[map[string]any](t, resp)
		assert.EqualValues(t, 2, out["total_recipients"])
		assert.NotEmpty(t, out["id"])
		assert.Len(t, srv.Messages(), before+2)
	})
}

func TestServerFail(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	srv.Fail(http.StatusTooManyRequests, `{"message":"slow down"}`)

	resp := do(t, srv, http.MethodGet, "/api/rest/status", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	srv.Fail(0, "")

	resp = do(t, srv, http.MethodGet, "/api/rest/status", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerSetStatus(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	srv.SetStatus(map[string]any{"credits": 5})

	resp := do(t, srv, http.MethodGet, "/api/rest/status", nil, "")
	assert.EqualValues(t, 5, decode[map[string]any](t, resp)["credits"])
}
