package action

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Status is the lifecycle state of an action record. The Needs_Action/Done
// directory placement is the on-disk serialization of this state; the enum is
// the in-memory truth.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Transition validates a status change. pending may start processing,
// processing may finish or fail, and done/failed are terminal.
func Transition(from, to Status) (Status, error) {
	allowed := map[Status][]Status{
		StatusPending:    {StatusProcessing},
		StatusProcessing: {StatusDone, StatusFailed},
	}
	for _, next := range allowed[from] {
		if next == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("invalid status transition %s -> %s", from, to)
}

// Recognized action-file prefixes. Files in Needs_Action without one of these
// are ignored by the store.
var actionPrefixes = []string{"ACTION_", "EMAIL_", "WHATSAPP_", "LINKEDIN_"}

// HasActionPrefix reports whether name starts with a recognized prefix.
func HasActionPrefix(name string) bool {
	for _, p := range actionPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// FrontMatter is the YAML header of an action file.
type FrontMatter struct {
	Type     string `yaml:"type"`
	Priority string `yaml:"priority"`
	Status   Status `yaml:"status"`
	Created  string `yaml:"created"`
	Source   string `yaml:"source,omitempty"`
}

// Record is one action file: parsed front matter plus the markdown body.
type Record struct {
	Path  string
	Meta  FrontMatter
	Body  string
	Valid bool // false when the front matter could not be parsed
}

// ID returns the record's identity: the file stem.
func (r Record) ID() string {
	return strings.TrimSuffix(filepath.Base(r.Path), filepath.Ext(r.Path))
}

// Channel derives the origin channel from the filename prefix.
func (r Record) Channel() string {
	name := filepath.Base(r.Path)
	switch {
	case strings.HasPrefix(name, "EMAIL_"):
		return "email"
	case strings.HasPrefix(name, "WHATSAPP_"):
		return "whatsapp"
	case strings.HasPrefix(name, "LINKEDIN_"):
		return "linkedin"
	default:
		return "inbox"
	}
}

// Parse splits raw file content into front matter and body. Content without a
// well-formed YAML header is treated as an opaque body with zero-value
// metadata, never an error: foreign files must not wedge the pipeline.
func Parse(path string, raw []byte) Record {
	rec := Record{Path: path, Body: string(raw)}

	content := string(raw)
	if !strings.HasPrefix(content, "---\n") {
		return rec
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return rec
	}

	var meta FrontMatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return rec
	}

	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")

	rec.Meta = meta
	rec.Body = body
	rec.Valid = true
	return rec
}

// Render serializes a record back to file content.
func Render(rec Record) ([]byte, error) {
	meta, err := yaml.Marshal(rec.Meta)
	if err != nil {
		return nil, fmt.Errorf("marshalling front matter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n")
	b.WriteString(rec.Body)
	return []byte(b.String()), nil
}

// NewFrontMatter builds front matter for a freshly classified action.
func NewFrontMatter(c Classification, source string) FrontMatter {
	return FrontMatter{
		Type:     c.Type,
		Priority: c.Priority,
		Status:   StatusPending,
		Created:  time.Now().Format(time.RFC3339),
		Source:   source,
	}
}
