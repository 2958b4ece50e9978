package csm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vitalvas/imcsm/imsig"
)

// ContactStatus is the state of a contact.
type ContactStatus string

// Contact states.
const (
	ContactActive   ContactStatus = "ACTIVE"
	ContactInactive ContactStatus = "INACTIVE"
	ContactBlocked  ContactStatus = "BLOCKED"
)

func (s ContactStatus) valid() bool {
	switch s {
	case ContactActive, ContactInactive, ContactBlocked:
		return true
	}

	return false
}

// MessageDirection filters messages by direction.
type MessageDirection string

// Message directions. MT is mobile terminated, MO is mobile originated.
const (
	DirectionAll MessageDirection = "ALL"
	DirectionMT  MessageDirection = "MT"
	DirectionMO  MessageDirection = "MO"
)

func (d MessageDirection) valid() bool {
	switch d {
	case DirectionAll, DirectionMT, DirectionMO:
		return true
	}

	return false
}

// Contact is a subscriber known to the platform.
type Contact struct {
	Msisdn      string        `json:"msisdn,omitempty"`
	Tags        []string      `json:"tags"`
	FirstName   string        `json:"first_name,omitempty"`
	LastName    string        `json:"last_name,omitempty"`
	FullName    string        `json:"full_name,omitempty"`
	Email       string        `json:"email,omitempty"`
	Status      ContactStatus `json:"status"`
	PhoneNumber string        `json:"phone_number,omitempty"`
	CountryCode string        `json:"country_code,omitempty"`
	AddedFrom   string        `json:"added_from,omitempty"`
	ProfileUID  string        `json:"profile_uid"`
	Monitoring  bool          `json:"monitoring"`
}

// Message is a sent or received SMS.
type Message struct {
	MessageID       string           `json:"message_id"`
	ShortCode       string           `json:"short_code"`
	Type            int              `json:"type"`
	Direction       MessageDirection `json:"direction"`
	Status          string           `json:"status"`
	Message         string           `json:"message"`
	SentCount       int              `json:"sent_count"`
	ErrorCount      int              `json:"error_count"`
	TotalRecipients int              `json:"total_recipients"`
	Msisdn          string           `json:"msisdn"`
	Country         string           `json:"country"`
	IsBillable      bool             `json:"is_billable"`
	IsScheduled     bool             `json:"is_scheduled"`
	CreatedOn       Time             `json:"created_on"`
	CreatedBy       string           `json:"created_by"`
}

// SendToContactData is the body of a message sent to one contact.
type SendToContactData struct {
	Msisdn  string `json:"msisdn"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func (d SendToContactData) validate() error {
	if strings.TrimSpace(d.Msisdn) == "" {
		return &ValidationError{Field: "msisdn", Reason: "is required"}
	}

	if d.Message == "" {
		return &ValidationError{Field: "message", Reason: "is required"}
	}

	return nil
}

// SendToContactResponse describes a message accepted for one contact.
type SendToContactResponse struct {
	MessageID       string           `json:"message_id"`
	ShortCode       string           `json:"short_code"`
	Type            int              `json:"type"`
	Direction       MessageDirection `json:"direction"`
	Status          string           `json:"status"`
	SentFrom        string           `json:"sent_from"`
	ID              string           `json:"id"`
	Message         string           `json:"message"`
	SentCount       int              `json:"sent_count"`
	ErrorCount      int              `json:"error_count"`
	TotalRecipients int              `json:"total_recipients"`
	Msisdn          string           `json:"msisdn"`
	Country         string           `json:"country"`
	IsBillable      bool             `json:"is_billable"`
	IsScheduled     bool             `json:"is_scheduled"`
	CreatedOn       Time             `json:"created_on"`
	CreatedBy       string           `json:"created_by"`
	TotalMonitors   int              `json:"total_monitors"`
}

// SendToTagsData is the body of a message sent to every contact carrying
// one of the tags.
type SendToTagsData struct {
	Tags    []string `json:"tags"`
	Message string   `json:"message"`
	ID      string   `json:"id,omitempty"`
}

func (d SendToTagsData) validate() error {
	if len(d.Tags) == 0 {
		return &ValidationError{Field: "tags", Reason: "at least one tag is required"}
	}

	for i, tag := range d.Tags {
		if strings.TrimSpace(tag) == "" {
			return &ValidationError{Field: "tags", Reason: fmt.Sprintf("tag %d is empty", i)}
		}
	}

	if d.Message == "" {
		return &ValidationError{Field: "message", Reason: "is required"}
	}

	return nil
}

// SendToTagsResponse describes a message accepted for a set of tags.
type SendToTagsResponse struct {
	ID              string           `json:"id"`
	ShortCode       string           `json:"short_code"`
	Type            int              `json:"type"`
	Direction       MessageDirection `json:"direction"`
	Status          string           `json:"status"`
	SentFrom        string           `json:"sent_from"`
	Message         string           `json:"message"`
	SentCount       int              `json:"sent_count"`
	ErrorCount      int              `json:"error_count"`
	TotalRecipients int              `json:"total_recipients"`
	IsBillable      bool             `json:"is_billable"`
	IsScheduled     bool             `json:"is_scheduled"`
	CreatedOn       Time             `json:"created_on"`
	TotalMonitors   int              `json:"total_monitors"`
}

// Status is the free-form account status document.
type Status map[string]any

// Required JSON fields per record. Optional fields are omitted.
var (
	contactFields = []string{"tags", "status", "profile_uid", "monitoring"}

	messageFields = []string{
		"message_id", "short_code", "type", "direction", "status", "message",
		"sent_count", "error_count", "total_recipients", "msisdn", "country",
		"is_billable", "is_scheduled", "created_on", "created_by",
	}

	sendToContactFields = []string{
		"message_id", "short_code", "type", "direction", "status", "sent_from",
		"id", "message", "sent_count", "error_count", "total_recipients",
		"msisdn", "country", "is_billable", "is_scheduled", "created_on",
		"created_by", "total_monitors",
	}

	sendToTagsFields = []string{
		"id", "short_code", "type", "direction", "status", "sent_from",
		"message", "sent_count", "error_count", "total_recipients",
		"is_billable", "is_scheduled", "created_on", "total_monitors",
	}
)

// checkRequired reports the first field of required that is absent or null
// in the JSON object obj.
func checkRequired(obj json.RawMessage, required []string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return err
	}

	for _, name := range required {
		v, ok := fields[name]
		if !ok || string(v) == "null" {
			return fmt.Errorf("missing required field %q", name)
		}
	}

	return nil
}

// ListContactsParams filters ListContacts. Zero values are not sent.
type ListContactsParams struct {
	Status []ContactStatus
	Query  string
	Start  *int
	Limit  *int
}

func (p ListContactsParams) params() (imsig.Params, error) {
	out := imsig.Params{}

	if len(p.Status) > 0 {
		values := make([]string, 0, len(p.Status))

		for _, s := range p.Status {
			if !s.valid() {
				return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown contact status %q", s)}
			}

			values = append(values, string(s))
		}

		out["status"] = imsig.String(strings.Join(values, ","))
	}

	if p.Query != "" {
		out["query"] = imsig.String(p.Query)
	}

	if p.Start != nil {
		if *p.Start < 0 {
			return nil, &ValidationError{Field: "start", Reason: "must be greater than or equal to 0"}
		}

		out["start"] = imsig.Int(*p.Start)
	}

	if p.Limit != nil {
		if *p.Limit < 1 {
			return nil, &ValidationError{Field: "limit", Reason: "must be greater than or equal to 1"}
		}

		out["limit"] = imsig.Int(*p.Limit)
	}

	return out, nil
}

// ListMessagesParams filters ListMessages. Zero dates, empty strings and nil
// pointers are not sent, except Start and Limit which default to -1 (no
// bound).
type ListMessagesParams struct {
	StartDate time.Time
	EndDate   time.Time
	Start     *int
	Limit     *int
	Msisdn    string
	Direction MessageDirection
}

func (p ListMessagesParams) params() (imsig.Params, error) {
	out := imsig.Params{
		"start": imsig.Int(-1),
		"limit": imsig.Int(-1),
	}

	if !p.StartDate.IsZero() {
		out["start_date"] = imsig.String(formatDateTime(p.StartDate))
	}

	if !p.EndDate.IsZero() {
		if !p.StartDate.IsZero() && p.EndDate.Before(p.StartDate) {
			return nil, &ValidationError{Field: "end_date", Reason: "is before start_date"}
		}

		out["end_date"] = imsig.String(formatDateTime(p.EndDate))
	}

	if p.Start != nil {
		if *p.Start < -1 {
			return nil, &ValidationError{Field: "start", Reason: "must be -1 or greater"}
		}

		out["start"] = imsig.Int(*p.Start)
	}

	if p.Limit != nil {
		if *p.Limit < -1 || *p.Limit == 0 {
			return nil, &ValidationError{Field: "limit", Reason: "must be -1 or greater than 0"}
		}

		out["limit"] = imsig.Int(*p.Limit)
	}

	if p.Msisdn != "" {
		out["msisdn"] = imsig.String(p.Msisdn)
	}

	if p.Direction != "" {
		if !p.Direction.valid() {
			return nil, &ValidationError{Field: "direction", Reason: fmt.Sprintf("unknown direction %q", p.Direction)}
		}

		out["direction"] = imsig.String(string(p.Direction))
	}

	return out, nil
}

// Ptr returns a pointer to v, for optional parameter fields.
func Ptr[T any](v T) *T {
	return &v
}
