// Package envelope defines the CloudEvents 1.0 shaped wrapper placed around
// every relayed log entry and reported error, and the codecs that put it
// on the wire.
package envelope

import (
	"errors"
	"fmt"
	"maps"
	"time"

	idspkg "github.com/drblury/hookbus/internal/runtime/ids"
)

// SpecVersion is the CloudEvents version the envelope follows.
const SpecVersion = "1.0"

// Envelope types.
const (
	TypeLogPrefix = "hookbus.log."
	TypeException = "hookbus.exception"
)

// Extension attribute names. CloudEvents restricts these to lower-case
// alphanumerics.
const (
	ExtCategory  = "category"
	ExtImportant = "important"
	ExtEventKind = "eventkind"
	ExtEventID   = "eventid"
	ExtActor     = "actor"
	ExtReason    = "reason"
	ExtTraceID   = "traceid"
)

// ErrInvalid wraps every Validate failure.
var ErrInvalid = errors.New("hookbus: invalid envelope")

// Envelope is one relayed occurrence.
type Envelope struct {
	SpecVersion     string
	Type            string
	Source          string
	ID              string
	Time            time.Time
	Subject         string
	DataContentType string
	Data            any

	// Extensions are flattened into the top level when encoded.
	Extensions map[string]any
}

// New stamps a fresh envelope with a ULID and the current time.
func New(typ, source string, data any) Envelope {
	now := time.Now().UTC()
	return Envelope{
		SpecVersion: SpecVersion,
		Type:        typ,
		Source:      source,
		ID:          idspkg.CreateULIDAt(now),
		Time:        now,
		Data:        data,
		Extensions:  map[string]any{},
	}
}

// LogType returns the envelope type for log entries of kind.
func LogType(kind string) string { return TypeLogPrefix + kind }

func (e Envelope) WithSubject(subject string) Envelope {
	e.Subject = subject
	return e
}

// WithExtension returns a copy with the extension set. The receiver's map
// is never modified.
func (e Envelope) WithExtension(key string, value any) Envelope {
	ext := make(map[string]any, len(e.Extensions)+1)
	maps.Copy(ext, e.Extensions)
	ext[key] = value
	e.Extensions = ext
	return e
}

// Extension returns the raw extension value, or nil.
func (e Envelope) Extension(key string) any {
	return e.Extensions[key]
}

// ExtensionString formats non-string values with %v.
func (e Envelope) ExtensionString(key string) string {
	switch v := e.Extensions[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ExtensionBool accepts booleans and their string forms.
func (e Envelope) ExtensionBool(key string) bool {
	switch v := e.Extensions[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// Validate checks the required attributes.
func (e Envelope) Validate() error {
	switch {
	case e.SpecVersion != SpecVersion:
		return fmt.Errorf("%w: specversion must be %q, got %q", ErrInvalid, SpecVersion, e.SpecVersion)
	case e.Type == "":
		return fmt.Errorf("%w: type is required", ErrInvalid)
	case e.Source == "":
		return fmt.Errorf("%w: source is required", ErrInvalid)
	case e.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	for k := range e.Extensions {
		if _, reserved := attributes[k]; reserved {
			return fmt.Errorf("%w: extension %q shadows an attribute", ErrInvalid, k)
		}
	}
	return nil
}

var attributes = map[string]struct{}{
	"specversion":     {},
	"type":            {},
	"source":          {},
	"id":              {},
	"time":            {},
	"subject":         {},
	"datacontenttype": {},
	"data":            {},
}

// toMap flattens the envelope into its structured-mode attribute map.
func (e Envelope) toMap() map[string]any {
	m := make(map[string]any, len(attributes)+len(e.Extensions))
	maps.Copy(m, e.Extensions)

	m["specversion"] = e.SpecVersion
	m["type"] = e.Type
	m["source"] = e.Source
	m["id"] = e.ID
	if !e.Time.IsZero() {
		m["time"] = e.Time.UTC().Format(time.RFC3339Nano)
	}
	if e.Subject != "" {
		m["subject"] = e.Subject
	}
	if e.DataContentType != "" {
		m["datacontenttype"] = e.DataContentType
	}
	if e.Data != nil {
		m["data"] = e.Data
	}
	return m
}

func fromMap(m map[string]any) (Envelope, error) {
	var e Envelope
	var err error

	str := func(key string) string {
		v, ok := m[key]
		if !ok || err != nil {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			err = fmt.Errorf("%w: %s must be a string", ErrInvalid, key)
		}
		return s
	}

	e.SpecVersion = str("specversion")
	e.Type = str("type")
	e.Source = str("source")
	e.ID = str("id")
	e.Subject = str("subject")
	e.DataContentType = str("datacontenttype")
	ts := str("time")
	if err != nil {
		return Envelope{}, err
	}
	if ts != "" {
		if e.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return Envelope{}, fmt.Errorf("%w: time: %v", ErrInvalid, err)
		}
	}
	e.Data = m["data"]

	e.Extensions = map[string]any{}
	for k, v := range m {
		if _, known := attributes[k]; !known {
			e.Extensions[k] = v
		}
	}
	return e, nil
}
