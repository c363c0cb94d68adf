// Package frontmatter turns the two document sources, a flat file with a
// YAML header and a relational row, into one normalised Meta value.
//
// Both adapters feed a loosely typed field map through the same normaliser,
// so equivalent inputs produce identical metadata regardless of origin.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/PietroNarcisi/NostressAI/internal/dateutil"
	"github.com/PietroNarcisi/NostressAI/internal/taxonomy"
	"github.com/PietroNarcisi/NostressAI/internal/yamlutil"
)

// ErrMalformedHeader reports a header block that could not be decoded.
// It is returned as a warning: the document still resolves with defaults.
var ErrMalformedHeader = errors.New("malformed document header")

// Status is the lifecycle state of a document.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Published reports whether the document may be exposed to readers.
func (s Status) Published() bool { return s == StatusPublished }

// Resource types.
const (
	ResourceTip   = "tip"
	ResourceStudy = "study"
)

// Course availability values.
const (
	AvailabilitySoon      = "soon"
	AvailabilityPrelaunch = "prelaunch"
	AvailabilityAvailable = "available"
)

// Course levels.
const (
	LevelIntro        = "intro"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// CourseInfo carries the fields only courses declare.
type CourseInfo struct {
	Short        string   `json:"short,omitempty" yaml:"short,omitempty"`
	Availability string   `json:"availability,omitempty" yaml:"availability,omitempty"`
	Level        string   `json:"level,omitempty" yaml:"level,omitempty"`
	Outline      []string `json:"outline" yaml:"outline"`
}

// Meta is the normalised metadata of one document.
type Meta struct {
	Slug         string            `json:"slug" yaml:"slug"`
	Title        string            `json:"title" yaml:"title"`
	Excerpt      string            `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	Category     string            `json:"category,omitempty" yaml:"category,omitempty"`
	Tags         []string          `json:"tags" yaml:"tags"`
	Date         time.Time         `json:"date" yaml:"date"`
	Status       Status            `json:"status" yaml:"status"`
	Interactive  string            `json:"interactive,omitempty" yaml:"interactive,omitempty"`
	HeroImage    string            `json:"heroImage,omitempty" yaml:"heroImage,omitempty"`
	ResourceType string            `json:"resourceType,omitempty" yaml:"resourceType,omitempty"`
	PillarIDs    []string          `json:"-" yaml:"-"`
	Pillars      []taxonomy.Pillar `json:"pillars" yaml:"pillars"`
	Course       *CourseInfo       `json:"course,omitempty" yaml:"course,omitempty"`

	// DateDefaulted is set when the header carried no usable date and the
	// resolution time was substituted. Lists sort such documents as newest.
	DateDefaulted bool `json:"-" yaml:"-"`
}

// FileSource is a flat-file document as read from the content tree.
type FileSource struct {
	Slug    string
	Section string // directory-derived resource type, may be empty
	Raw     []byte
}

var yamlHeader = frontmatter.NewFormat("---", "---", unmarshalHeader)

func unmarshalHeader(data []byte, v any) error {
	fields, err := yamlutil.UnmarshalHeader(data)
	if err != nil {
		return err
	}
	dst, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("unsupported header destination %T", v)
	}
	*dst = fields
	return nil
}

// FromFile splits the header from the body and normalises the header.
// A missing header yields defaults and the whole blob as body. A malformed
// header yields defaults, the whole blob as body, and a warning wrapping
// ErrMalformedHeader; it is never fatal.
func FromFile(src FileSource, now time.Time) (meta Meta, body string, warning error) {
	var fields map[string]any
	rest, err := frontmatter.Parse(bytes.NewReader(src.Raw), &fields, yamlHeader)
	if err != nil {
		warning = fmt.Errorf("%w: %s: %v", ErrMalformedHeader, src.Slug, err)
		fields = nil
		rest = src.Raw
	}
	meta = normalize(src.Slug, src.Section, fields, now)
	return meta, string(rest), warning
}

// normalize applies the shared defaulting rules to a loosely typed header.
func normalize(slug, section string, fields map[string]any, now time.Time) Meta {
	m := Meta{
		Slug:     slug,
		Title:    stringField(fields, "title"),
		Excerpt:  stringField(fields, "excerpt"),
		Category: stringField(fields, "category"),
		Tags:     stringList(fields["tags"]),
		Status:   statusField(fields),
	}

	if strings.TrimSpace(m.Title) == "" {
		m.Title = slug
	}

	if d, ok := dateutil.ParseDate(fields["date"]); ok {
		m.Date = d
	} else {
		m.Date = now
		m.DateDefaulted = true
	}

	m.Interactive = stringField(fields, "interactive")
	m.HeroImage = stringField(fields, "cover")
	if m.HeroImage == "" {
		m.HeroImage = stringField(fields, "heroImage")
	}

	switch t := strings.ToLower(stringField(fields, "type")); t {
	case ResourceTip, ResourceStudy:
		m.ResourceType = t
	default:
		m.ResourceType = section
	}

	m.PillarIDs = stringList(fields["pillars"])
	m.Pillars = taxonomy.Resolve(m.PillarIDs)
	m.Course = courseFields(fields)

	return m
}

func courseFields(fields map[string]any) *CourseInfo {
	_, hasShort := fields["short"]
	_, hasAvail := fields["availability"]
	_, hasLevel := fields["level"]
	_, hasOutline := fields["outline"]
	if !hasShort && !hasAvail && !hasLevel && !hasOutline {
		return nil
	}

	c := &CourseInfo{
		Short:   stringField(fields, "short"),
		Outline: stringList(fields["outline"]),
	}
	switch a := strings.ToLower(stringField(fields, "availability")); a {
	case AvailabilitySoon, AvailabilityPrelaunch, AvailabilityAvailable:
		c.Availability = a
	}
	switch l := strings.ToLower(stringField(fields, "level")); l {
	case LevelIntro, LevelIntermediate, LevelAdvanced:
		c.Level = l
	}
	return c
}

// statusField reads the lifecycle status. Headers without one are
// published; "draft: true" wins; unknown values are never published.
func statusField(fields map[string]any) Status {
	if draft, ok := fields["draft"].(bool); ok && draft {
		return StatusDraft
	}
	raw, present := fields["status"]
	if !present || raw == nil {
		return StatusPublished
	}
	s, ok := raw.(string)
	if !ok {
		return StatusDraft
	}
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", string(StatusPublished):
		return StatusPublished
	case string(StatusDraft):
		return StatusDraft
	default:
		return Status(v)
	}
}

// stringField returns the field when it is a string and "" otherwise.
func stringField(fields map[string]any, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

// stringList keeps only the string members of a list value. Anything that
// is not a list yields an empty, non-nil slice.
func stringList(v any) []string {
	out := []string{}
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, list...)
	}
	return out
}
