package api

import (
	"bytes"
	"encoding/json"
)

// Status is the envelope discriminant.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

// Envelope is the top-level wrapper of every API reply.
type Envelope struct {
	Status     Status          `json:"status"`
	Message    string          `json:"message,omitempty"`
	Error      string          `json:"error,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Handshake  string          `json:"handshake,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// Pagination is the server's authoritative paging descriptor.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HasData reports whether the envelope carries a data field other than null.
func (e *Envelope) HasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// Blob returns the encrypted data field as a string.
func (e *Envelope) Blob() (string, error) {
	var s string
	if err := json.Unmarshal(e.Data, &s); err != nil {
		return "", err
	}
	return s, nil
}

// ErrorText returns message, falling back to error.
func (e *Envelope) ErrorText() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// decodeEnvelope returns nil when body is not an envelope.
func decodeEnvelope(body []byte) *Envelope {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Status == "" {
		return nil
	}
	return &env
}
