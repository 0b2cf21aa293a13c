package jira

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// RemoteServiceError is any failure surfaced while talking to Jira:
// transport errors (StatusCode 0), non-2xx answers and undecodable bodies.
type RemoteServiceError struct {
	Op         string
	StatusCode int
	Messages   []string
	Err        error
}

func (e *RemoteServiceError) Error() string {
	var b strings.Builder
	b.WriteString("jira ")
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// errorBody is Jira's standard error envelope.
type errorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// newRemoteServiceError extracts Jira's messages from raw. Field errors are
// reported as "field: message" in field order; a body that is not the
// standard envelope falls back to the HTTP status text.
func newRemoteServiceError(op string, status int, raw []byte) *RemoteServiceError {
	rse := &RemoteServiceError{Op: op, StatusCode: status}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		rse.Messages = append(rse.Messages, body.ErrorMessages...)
		fields := make([]string, 0, len(body.Errors))
		for field := range body.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			rse.Messages = append(rse.Messages, field+": "+body.Errors[field])
		}
	}

	if len(rse.Messages) == 0 {
		if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 512 && !strings.HasPrefix(text, "<") {
			rse.Messages = []string{text}
		} else {
			rse.Messages = []string{http.StatusText(status)}
		}
	}
	return rse
}
