// Package trigger delivers document change events to explicitly registered
// handler functions. It plays the role of the hosting platform: it consumes
// events from Kafka, bounds each invocation with a timeout, redelivers failed
// invocations a limited number of times and dead-letters the rest.
package trigger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the kind of document change
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// ErrInvalidEnvelope is returned when an event cannot be routed
var ErrInvalidEnvelope = errors.New("invalid event envelope")

// Envelope is a document change as published on the events topic.
// Before is empty for creations and After is empty for deletions.
type Envelope struct {
	ID       string          `json:"id"`
	Kind     Kind            `json:"kind"`
	Document string          `json:"document"`
	Before   json.RawMessage `json:"before,omitempty"`
	After    json.RawMessage `json:"after,omitempty"`
	Time     time.Time       `json:"time"`
}

// Decode parses and validates an envelope
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// NewEnvelope builds an envelope with a fresh id for a change to document
func NewEnvelope(kind Kind, document string, before, after json.RawMessage) (*Envelope, error) {
	env := &Envelope{
		ID:       uuid.NewString(),
		Kind:     kind,
		Document: document,
		Before:   before,
		After:    after,
		Time:     time.Now().UTC(),
	}
	for _, doc := range []json.RawMessage{before, after} {
		if len(doc) > 0 && !json.Valid(doc) {
			return nil, fmt.Errorf("%w: document value is not valid JSON", ErrInvalidEnvelope)
		}
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return env, nil
}

func (env *Envelope) validate() error {
	switch env.Kind {
	case KindCreated, KindUpdated, KindDeleted:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEnvelope, env.Kind)
	}

	env.Document = strings.Trim(env.Document, "/")
	if env.Document == "" {
		return fmt.Errorf("%w: missing document path", ErrInvalidEnvelope)
	}
	return nil
}

// Event is an envelope matched to a route, with the path parameters it bound
type Event struct {
	Envelope
	Params map[string]string
}

// Param returns a path parameter, or "" when the route has no such parameter
func (e Event) Param(name string) string {
	return e.Params[name]
}

// DecodeBefore unmarshals the document state before the change into v
func (e Event) DecodeBefore(v any) error {
	return decodeDocument(e.Before, v)
}

// DecodeAfter unmarshals the document state after the change into v
func (e Event) DecodeAfter(v any) error {
	return decodeDocument(e.After, v)
}

// decodeDocument treats a missing document as an empty one
func decodeDocument(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
