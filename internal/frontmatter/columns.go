package frontmatter

import (
	"encoding/json"
	"time"
)

// Columns is a document row as stored by the relational store. List-valued
// fields are kept as their stored JSON text and decoded leniently here.
type Columns struct {
	Slug         string
	Title        string
	Excerpt      string
	Category     string
	TagsJSON     string
	Body         string
	Status       string
	PublishedAt  *time.Time
	Interactive  string
	HeroImage    string
	ResourceType string
	PillarIDs    []string

	Short        string
	Availability string
	Level        string
	OutlineJSON  string
}

// FromColumns converts a row into Meta and its body. Rows without a status
// are drafts; a malformed list column resolves to an empty list.
func FromColumns(c Columns, now time.Time) (Meta, string) {
	fields := map[string]any{
		"tags":    decodeList(c.TagsJSON),
		"pillars": stringsToAny(c.PillarIDs),
	}
	setString(fields, "title", c.Title)
	setString(fields, "excerpt", c.Excerpt)
	setString(fields, "category", c.Category)
	setString(fields, "interactive", c.Interactive)
	setString(fields, "heroImage", c.HeroImage)
	setString(fields, "type", c.ResourceType)

	if c.Status == "" {
		fields["status"] = string(StatusDraft)
	} else {
		fields["status"] = c.Status
	}
	if c.PublishedAt != nil {
		fields["date"] = *c.PublishedAt
	}

	setString(fields, "short", c.Short)
	setString(fields, "availability", c.Availability)
	setString(fields, "level", c.Level)
	if c.OutlineJSON != "" {
		fields["outline"] = decodeList(c.OutlineJSON)
	}

	return normalize(c.Slug, "", fields, now), c.Body
}

func setString(fields map[string]any, key, value string) {
	if value != "" {
		fields[key] = value
	}
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// decodeList parses a JSON array column. Malformed or non-array text
// yields nil, which normalises to an empty list.
func decodeList(text string) []any {
	if text == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil
	}
	list, _ := v.([]any)
	return list
}

// EncodeList renders a list column the way FromColumns expects it.
func EncodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// ToColumns converts Meta back into a row, for seeding a relational store
// from files. Declared pillar ids are kept as declared; a defaulted date is
// stored as NULL so the row defaults again at resolution time.
func ToColumns(m Meta, body string) Columns {
	c := Columns{
		Slug:         m.Slug,
		Title:        m.Title,
		Excerpt:      m.Excerpt,
		Category:     m.Category,
		TagsJSON:     EncodeList(m.Tags),
		Body:         body,
		Status:       string(m.Status),
		Interactive:  m.Interactive,
		HeroImage:    m.HeroImage,
		ResourceType: m.ResourceType,
		PillarIDs:    append([]string(nil), m.PillarIDs...),
	}
	if !m.DateDefaulted {
		d := m.Date
		c.PublishedAt = &d
	}
	if m.Course != nil {
		c.Short = m.Course.Short
		c.Availability = m.Course.Availability
		c.Level = m.Course.Level
		c.OutlineJSON = EncodeList(m.Course.Outline)
	}
	return c
}
