package graph

import (
	"fmt"
	"strings"
	"time"
)

// APIError is the "error" object the Graph API returns on failure.
type APIError struct {
	Message     string `json:"message"`
	UserMessage string `json:"error_user_msg"`
	Type        string `json:"type"`
	Code        int    `json:"code"`
	Subcode     int    `json:"error_subcode"`
}

const duplicateMediaIndicator = "already posted"

// IsDuplicateMedia reports whether the platform rejected the post because the
// attached image was already posted to the page.
func (e *APIError) IsDuplicateMedia() bool {
	if e == nil {
		return false
	}
	return strings.Contains(strings.ToLower(e.Message), duplicateMediaIndicator) ||
		strings.Contains(strings.ToLower(e.UserMessage), duplicateMediaIndicator)
}

// Result is the outcome of a write call that reached the platform. Transport
// failures are reported as Go errors instead.
type Result struct {
	ID         string
	StatusCode int
	Error      *APIError
}

func (r *Result) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300 && r.Error == nil
}

// ErrorMessage renders the platform error as "message. details", falling back
// to placeholders the way callers surface it to users.
func (r *Result) ErrorMessage() (message, detail string) {
	message, detail = "Unknown error", "No details provided"
	if r == nil || r.Error == nil {
		return message, detail
	}
	if r.Error.Message != "" {
		message = r.Error.Message
	}
	if r.Error.UserMessage != "" {
		detail = r.Error.UserMessage
	}
	return message, detail
}

type PageInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

// Photo is an unpublished photo upload whose handle is later attached to a
// feed post.
type Photo struct {
	Caption     string
	Image       []byte
	ScheduledAt *time.Time
}

type FeedPost struct {
	Message     string
	MediaIDs    []string
	ScheduledAt *time.Time
}

// StatusError is returned by VerifyPage when the platform answers with a
// non-success status.
type StatusError struct {
	StatusCode int
	API        *APIError
}

func (e *StatusError) Error() string {
	if e.API != nil && e.API.Message != "" {
		return fmt.Sprintf("graph: status %d: %s", e.StatusCode, e.API.Message)
	}
	return fmt.Sprintf("graph: status %d", e.StatusCode)
}
