package notion

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is a Notion property type.
type Kind string

const (
	KindTitle          Kind = "title"
	KindRichText       Kind = "rich_text"
	KindNumber         Kind = "number"
	KindSelect         Kind = "select"
	KindDate           Kind = "date"
	KindRelation       Kind = "relation"
	KindStatus         Kind = "status"
	KindCreatedTime    Kind = "created_time"
	KindLastEditedTime Kind = "last_edited_time"
)

// Value is a writable property value. The concrete types are Title,
// RichText, Number, Select, Date and Relation.
type Value interface {
	Kind() Kind
	payload() any
}

type (
	Title    string
	RichText string
	Number   float64
	Select   string
	Relation []string
)

// Date is a date or date-time range. Start and End are ISO 8601 strings;
// when TimeZone is set they should carry no offset.
type Date struct {
	Start    string
	End      string
	TimeZone string
	Reminder *Reminder
}

// Reminder asks Notion to notify Value Units before Start.
type Reminder struct {
	Unit  string `json:"unit"`
	Value int    `json:"value"`
}

func (Title) Kind() Kind    { return KindTitle }
func (RichText) Kind() Kind { return KindRichText }
func (Number) Kind() Kind   { return KindNumber }
func (Select) Kind() Kind   { return KindSelect }
func (Date) Kind() Kind     { return KindDate }
func (Relation) Kind() Kind { return KindRelation }

type textContent struct {
	Content string `json:"content"`
}

type textItem struct {
	Text textContent `json:"text"`
}

func richText(s string) []textItem { return []textItem{{Text: textContent{Content: s}}} }

func (v Title) payload() any    { return richText(string(v)) }
func (v RichText) payload() any { return richText(string(v)) }
func (v Number) payload() any   { return float64(v) }

func (v Select) payload() any {
	return map[string]string{"name": string(v)}
}

func (v Relation) payload() any {
	refs := make([]map[string]string, 0, len(v))
	for _, id := range v {
		refs = append(refs, map[string]string{"id": id})
	}
	return refs
}

func (v Date) payload() any {
	if v.Start == "" {
		return nil
	}
	obj := DateObject{Start: v.Start, Reminder: v.Reminder}
	if v.End != "" {
		end := v.End
		obj.End = &end
	}
	if v.TimeZone != "" {
		tz := v.TimeZone
		obj.TimeZone = &tz
	}
	return obj
}

// Properties maps field names to values for a create or update call.
type Properties map[string]Value

func (p Properties) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[Kind]any, len(p))
	for name, v := range p {
		if v == nil {
			return nil, fmt.Errorf("notion: property %q has no value", name)
		}
		out[name] = map[Kind]any{v.Kind(): v.payload()}
	}
	return json.Marshal(out)
}

// DateObject is the date payload as Notion returns it.
type DateObject struct {
	Start    string    `json:"start"`
	End      *string   `json:"end,omitempty"`
	TimeZone *string   `json:"time_zone,omitempty"`
	Reminder *Reminder `json:"reminder,omitempty"`
}

// Value converts a read date back into a writable one, keeping every field.
func (d DateObject) Value() Date {
	v := Date{Start: d.Start, Reminder: d.Reminder}
	if d.End != nil {
		v.End = *d.End
	}
	if d.TimeZone != nil {
		v.TimeZone = *d.TimeZone
	}
	return v
}

// TextItem is one rich-text run in a read property.
type TextItem struct {
	PlainText string       `json:"plain_text"`
	Text      *textContent `json:"text,omitempty"`
}

func (t TextItem) content() string {
	if t.Text != nil && t.Text.Content != "" {
		return t.Text.Content
	}
	return t.PlainText
}

// Ref names another object by id (relation targets) or by name (select options).
type Ref struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// PropertyValue is a property as read from a page.
type PropertyValue struct {
	Type     string      `json:"type"`
	Title    []TextItem  `json:"title,omitempty"`
	RichText []TextItem  `json:"rich_text,omitempty"`
	Number   *float64    `json:"number,omitempty"`
	Select   *Ref        `json:"select,omitempty"`
	Date     *DateObject `json:"date,omitempty"`
	Relation []Ref       `json:"relation,omitempty"`
}

// Page is a database row.
type Page struct {
	ID         string                   `json:"id"`
	URL        string                   `json:"url,omitempty"`
	Properties map[string]PropertyValue `json:"properties"`
}

// Title returns the text of a title property. ok is false when the property
// is missing or empty.
func (p Page) Title(name string) (string, bool) {
	return joinText(p.Properties[name].Title)
}

// Text returns the text of a rich_text property.
func (p Page) Text(name string) (string, bool) {
	return joinText(p.Properties[name].RichText)
}

// Number returns a number property.
func (p Page) Number(name string) (float64, bool) {
	v, ok := p.Properties[name]
	if !ok || v.Number == nil {
		return 0, false
	}
	return *v.Number, true
}

// SelectName returns the chosen option of a select property.
func (p Page) SelectName(name string) (string, bool) {
	v, ok := p.Properties[name]
	if !ok || v.Select == nil {
		return "", false
	}
	return v.Select.Name, true
}

// Date returns a date property; nil when unset.
func (p Page) Date(name string) *DateObject {
	return p.Properties[name].Date
}

func joinText(items []TextItem) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString(it.content())
	}
	return b.String(), true
}
