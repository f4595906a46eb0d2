package booking

import (
	"strings"
	"time"
)

// Record is a committed booking. Records are immutable once written.
type Record struct {
	ID         string    `json:"id" dynamodbav:"id"`
	Email      string    `json:"email" dynamodbav:"email"`
	Time       string    `json:"time" dynamodbav:"time"`
	Name       string    `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Notes      string    `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
	ISOKey     string    `json:"isoKey,omitempty" dynamodbav:"isoKey,omitempty"`
	CreatedKey string    `json:"createdKey" dynamodbav:"createdKey"`
	CreatedAt  time.Time `json:"createdAt" dynamodbav:"createdAt"`
}

// CommitRequest is the caller-supplied payload for a booking commit.
type CommitRequest struct {
	Email  string `json:"email"`
	Time   string `json:"time"`
	Name   string `json:"name,omitempty"`
	Notes  string `json:"notes,omitempty"`
	ISOKey string `json:"isoKey,omitempty"`
}

// Normalize trims every field.
func (r CommitRequest) Normalize() CommitRequest {
	return CommitRequest{
		Email:  strings.TrimSpace(r.Email),
		Time:   strings.TrimSpace(r.Time),
		Name:   strings.TrimSpace(r.Name),
		Notes:  strings.TrimSpace(r.Notes),
		ISOKey: strings.TrimSpace(r.ISOKey),
	}
}

// Validate reports ErrMissingFields when email or time is empty.
func (r CommitRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Time) == "" {
		return ErrMissingFields
	}
	return nil
}
