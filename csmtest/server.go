package csmtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vitalvas/imcsm/config"
	"github.com/vitalvas/imcsm/imsig"
)

// Default credentials accepted by a Server.
const (
	DefaultAPIKey    = "test-key"
	DefaultAPISecret = "test-secret"
)

// TimeLayout is the layout of created_on fields written by the server.
const TimeLayout = "2006-01-02T15:04:05"

// ShortCode is reported as the sender of every message.
const ShortCode = "50210"

// Contact is a contact record as served by the fake API.
type Contact struct {
	Msisdn      string   `json:"msisdn,omitempty"`
	Tags        []string `json:"tags"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	FullName    string   `json:"full_name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Status      string   `json:"status"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	CountryCode string   `json:"country_code,omitempty"`
	AddedFrom   string   `json:"added_from,omitempty"`
	ProfileUID  string   `json:"profile_uid"`
	Monitoring  bool     `json:"monitoring"`
}

// Message is a message record as served by the fake API.
type Message struct {
	MessageID       string `json:"message_id"`
	ShortCode       string `json:"short_code"`
	Type            int    `json:"type"`
	Direction       string `json:"direction"`
	Status          string `json:"status"`
	Message         string `json:"message"`
	SentCount       int    `json:"sent_count"`
	ErrorCount      int    `json:"error_count"`
	TotalRecipients int    `json:"total_recipients"`
	Msisdn          string `json:"msisdn"`
	Country         string `json:"country"`
	IsBillable      bool   `json:"is_billable"`
	IsScheduled     bool   `json:"is_scheduled"`
	CreatedOn       string `json:"created_on"`
	CreatedBy       string `json:"created_by"`
}

// RecordedRequest is a request as received by the server, before signature
// verification.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Server is an in-process fake of the CSM REST API. Every route below
// /api/rest requires a valid IM signature for the server's credentials.
type Server struct {
	*httptest.Server

	apiKey    string
	apiSecret string

	mu         sync.Mutex
	contacts   []Contact
	messages   []Message
	status     map[string]any
	requests   []RecordedRequest
	failStatus int
	failBody   string
}

// Option configures a Server.
type Option func(*Server)

// WithCredentials sets the accepted key pair.
func WithCredentials(apiKey, apiSecret string) Option {
	return func(s *Server) {
		s.apiKey = apiKey
		s.apiSecret = apiSecret
	}
}

// WithContacts seeds the contact list.
func WithContacts(contacts ...Contact) Option {
	return func(s *Server) {
		for _, c := range contacts {
			if c.Tags == nil {
				c.Tags = []string{}
			}

			s.contacts = append(s.contacts, c)
		}
	}
}

// WithMessages seeds the message list.
func WithMessages(messages ...Message) Option {
	return func(s *Server) {
		s.messages = append(s.messages, messages...)
	}
}

// NewServer starts a fake API server. Callers must Close it.
func NewServer(opts ...Option) *Server {
	s := &Server{
		apiKey:    DefaultAPIKey,
		apiSecret: DefaultAPISecret,
		status: map[string]any{
			"status":  "ok",
			"balance": 100,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.Server = httptest.NewServer(s.routes())

	return s
}

// Credentials returns credentials that authenticate against the server.
func (s *Server) Credentials() config.Credentials {
	return config.Credentials{
		APIKey:    s.apiKey,
		APISecret: s.apiSecret,
		BaseURL:   s.URL,
	}
}

// Requests returns every request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.requests)
}

// LastRequest returns the most recent request. ok is false when nothing was
// received.
func (s *Server) LastRequest() (req RecordedRequest, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.requests) == 0 {
		return RecordedRequest{}, false
	}

	return s.requests[len(s.requests)-1], true
}

// Messages returns the stored messages, including those sent through the
// API.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.messages)
}

// SetStatus replaces the document served by GET /status.
func (s *Server) SetStatus(status map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

// Fail makes every following request answer with status and body without
// reaching the routes. A zero status restores normal operation.
func (s *Server) Fail(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failStatus = status
	s.failBody = body
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()

	verify, err := imsig.Middleware(imsig.MiddlewareConfig{
		Verify: imsig.VerifyConfig{
			Resolver: s.resolveSecret,
		},
		OnError: func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusUnauthorized, err.Error())
		},
	})
	if err != nil {
		panic(err)
	}

	api := router.PathPrefix("/api/rest").Subrouter()
	api.Use(verify)

	api.HandleFunc("/contacts", s.listContacts).Methods(http.MethodGet)
	api.HandleFunc("/contacts/{msisdn}", s.getContact).Methods(http.MethodGet)
	api.HandleFunc("/messages", s.listMessages).Methods(http.MethodGet)
	api.HandleFunc("/messages/send_to_contact", s.sendToContact).Methods(http.MethodPost)
	api.HandleFunc("/messages/send", s.sendToTags).Methods(http.MethodPost)
	api.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)

	return s.record(router)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte

		if r.Body != nil {
			data, err := io.ReadAll(r.Body)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}

			body = data
			r.Body = io.NopCloser(bytes.NewReader(data))
		}

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		failStatus, failBody := s.failStatus, s.failBody
		s.mu.Unlock()

		if failStatus != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(failStatus)
			io.WriteString(w, failBody)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) resolveSecret(_ *http.Request, apiKey string) (string, error) {
	if apiKey != s.apiKey {
		return "", imsig.ErrUnknownKey
	}

	return s.apiSecret, nil
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var statuses []string
	if v := q.Get("status"); v != "" {
		statuses = strings.Split(v, ",")
	}

	query := strings.ToLower(q.Get("query"))

	s.mu.Lock()
	out := make([]Contact, 0, len(s.contacts))

	for _, c := range s.contacts {
		if len(statuses) > 0 && !slices.Contains(statuses, c.Status) {
			continue
		}

		if query != "" && !c.matches(query) {
			continue
		}

		out = append(out, c)
	}
	s.mu.Unlock()

	out, ok := paginate(w, q.Get("start"), q.Get("limit"), out)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	msisdn := mux.Vars(r)["msisdn"]

	if c, ok := s.findContact(msisdn); ok {
		writeJSON(w, http.StatusOK, c)
		return
	}

	writeError(w, http.StatusNotFound, "contact not found")
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, ok := parseDate(w, "start_date", q.Get("start_date"))
	if !ok {
		return
	}

	to, ok := parseDate(w, "end_date", q.Get("end_date"))
	if !ok {
		return
	}

	msisdn := q.Get("msisdn")
	direction := q.Get("direction")

	s.mu.Lock()
	out := make([]Message, 0, len(s.messages))

	for _, m := range s.messages {
		if msisdn != "" && m.Msisdn != msisdn {
			continue
		}

		if direction != "" && direction != "ALL" && m.Direction != direction {
			continue
		}

		if !from.IsZero() || !to.IsZero() {
			created, err := time.Parse(TimeLayout, m.CreatedOn)
			if err != nil {
				continue
			}

			if !from.IsZero() && created.Before(from) {
				continue
			}

			if !to.IsZero() && created.After(to) {
				continue
			}
		}

		out = append(out, m)
	}
	s.mu.Unlock()

	out, ok = paginate(w, q.Get("start"), q.Get("limit"), out)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sendToContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Msisdn  string `json:"msisdn"`
		Message string `json:"message"`
		ID      string `json:"id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	contact, ok := s.findContact(req.Msisdn)
	if !ok {
		writeError(w, http.StatusNotFound, "contact not found")
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	msg := s.storeMessage(contact.Msisdn, contact.CountryCode, req.Message, 1)

	writeJSON(w, http.StatusOK, map[string]any{
		"message_id":       msg.MessageID,
		"short_code":       msg.ShortCode,
		"type":             msg.Type,
		"direction":        msg.Direction,
		"status":           msg.Status,
		"sent_from":        ShortCode,
		"id":               req.ID,
		"message":          msg.Message,
		"sent_count":       msg.SentCount,
		"error_count":      msg.ErrorCount,
		"total_recipients": msg.TotalRecipients,
		"msisdn":           msg.Msisdn,
		"country":          msg.Country,
		"is_billable":      msg.IsBillable,
		"is_scheduled":     msg.IsScheduled,
		"created_on":       msg.CreatedOn,
		"created_by":       msg.CreatedBy,
		"total_monitors":   boolToInt(contact.Monitoring),
	})
}

func (s *Server) sendToTags(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tags    []string `json:"tags"`
		Message string   `json:"message"`
		ID      string   `json:"id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Tags) == 0 {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	var recipients []Contact

	s.mu.Lock()
	for _, c := range s.contacts {
		if slices.ContainsFunc(c.Tags, func(tag string) bool { return slices.Contains(req.Tags, tag) }) {
			recipients = append(recipients, c)
		}
	}
	s.mu.Unlock()

	monitors := 0

	for _, c := range recipients {
		s.storeMessage(c.Msisdn, c.CountryCode, req.Message, 2)
		monitors += boolToInt(c.Monitoring)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":               req.ID,
		"short_code":       ShortCode,
		"type":             2,
		"direction":        "MT",
		"status":           "SENT",
		"sent_from":        ShortCode,
		"message":          req.Message,
		"sent_count":       len(recipients),
		"error_count":      0,
		"total_recipients": len(recipients),
		"is_billable":      true,
		"is_scheduled":     false,
		"created_on":       time.Now().UTC().Format(TimeLayout),
		"total_monitors":   monitors,
	})
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) findContact(msisdn string) (Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.contacts {
		if c.Msisdn == msisdn {
			return c, true
		}
	}

	return Contact{}, false
}

func (s *Server) storeMessage(msisdn, country, text string, msgType int) Message {
	msg := Message{
		MessageID:       uuid.NewString(),
		ShortCode:       ShortCode,
		Type:            msgType,
		Direction:       "MT",
		Status:          "SENT",
		Message:         text,
		SentCount:       1,
		TotalRecipients: 1,
		Msisdn:          msisdn,
		Country:         country,
		IsBillable:      true,
		CreatedOn:       time.Now().UTC().Format(TimeLayout),
		CreatedBy:       s.apiKey,
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	return msg
}

func (c Contact) matches(query string) bool {
	for _, field := range []string{c.Msisdn, c.FirstName, c.LastName, c.FullName, c.Email} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}

	return false
}

// paginate applies start and limit. Negative values disable the bound.
func paginate[T any](w http.ResponseWriter, startParam, limitParam string, items []T) ([]T, bool) {
	start, ok := parseInt(w, "start", startParam)
	if !ok {
		return nil, false
	}

	limit, ok := parseInt(w, "limit", limitParam)
	if !ok {
		return nil, false
	}

	if start > 0 {
		if start >= len(items) {
			return []T{}, true
		}

		items = items[start:]
	}

	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}

	return items, true
}

func parseInt(w http.ResponseWriter, name, v string) (int, bool) {
	if v == "" {
		return -1, true
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}

	return n, true
}

func parseDate(w http.ResponseWriter, name, v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, true
	}

	if len(v) > len("2006-01-02 15:04:05") {
		v = v[:len("2006-01-02 15:04:05")]
	}

	t, err := time.Parse("2006-01-02 15:04:05", v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return time.Time{}, false
	}

	return t, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
