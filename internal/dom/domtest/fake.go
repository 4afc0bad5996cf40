// Package domtest provides a scriptable in-memory document for unit tests.
package domtest

import (
	"strings"

	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
)

// FakeElement implements dom.Element with plain settable fields and records
// every dispatched event in order.
type FakeElement struct {
	FieldID         string
	FieldName       string
	TagName         string
	TypeAttr        string
	Attrs           map[string]string
	PlaceholderText string

	IsRequired   bool
	CurrentValue string
	IsChecked    bool
	Opts         []dom.Option
	IsVisible    bool

	Label         string
	AncestorLabel string
	Preceding     string
	Parent        string

	Events    []dom.Event
	SetValues []string
}

// NewInput returns a visible input element of the given type.
func NewInput(id, name, typ string) *FakeElement {
	return &FakeElement{
		FieldID:   id,
		FieldName: name,
		TagName:   "input",
		TypeAttr:  typ,
		Attrs:     map[string]string{},
		IsVisible: true,
	}
}

// NewTag returns a visible element with an explicit tag (textarea, select).
func NewTag(id, name, tag string) *FakeElement {
	return &FakeElement{
		FieldID:   id,
		FieldName: name,
		TagName:   tag,
		Attrs:     map[string]string{},
		IsVisible: true,
	}
}

func (e *FakeElement) ID() string          { return e.FieldID }
func (e *FakeElement) Name() string        { return e.FieldName }
func (e *FakeElement) Tag() string         { return e.TagName }
func (e *FakeElement) Kind() dom.Kind      { return dom.KindOf(e.TagName, e.TypeAttr) }
func (e *FakeElement) Placeholder() string { return e.PlaceholderText }

func (e *FakeElement) Attr(name string) string {
	if name == "type" {
		return e.TypeAttr
	}
	if name == "placeholder" {
		return e.PlaceholderText
	}
	return e.Attrs[name]
}

func (e *FakeElement) Required() bool { return e.IsRequired }

func (e *FakeElement) Value() string { return e.CurrentValue }

func (e *FakeElement) SetValue(v string) error {
	e.CurrentValue = v
	e.SetValues = append(e.SetValues, v)
	return nil
}

func (e *FakeElement) Checked() bool { return e.IsChecked }

func (e *FakeElement) SetChecked(checked bool) error {
	e.IsChecked = checked
	return nil
}

func (e *FakeElement) Options() []dom.Option { return e.Opts }

func (e *FakeElement) SelectValue(value string) error {
	e.CurrentValue = value
	return nil
}

func (e *FakeElement) Visible() bool { return e.IsVisible }

func (e *FakeElement) Dispatch(ev dom.Event) error {
	e.Events = append(e.Events, ev)
	return nil
}

func (e *FakeElement) LabelText() string         { return e.Label }
func (e *FakeElement) AncestorLabelText() string { return e.AncestorLabel }
func (e *FakeElement) PrecedingText() string     { return e.Preceding }
func (e *FakeElement) ContainerText() string     { return e.Parent }

// EventNames returns the dispatched events as strings, for assertions.
func (e *FakeElement) EventNames() string {
	parts := make([]string, 0, len(e.Events))
	for _, ev := range e.Events {
		parts = append(parts, string(ev))
	}
	return strings.Join(parts, ",")
}

// FakeContainer implements dom.Container.
type FakeContainer struct {
	TagName  string
	Attrs    map[string]string
	Body     string
	Children []*FakeElement
}

// NewForm returns a native form container with the given elements.
func NewForm(text string, els ...*FakeElement) *FakeContainer {
	return &FakeContainer{TagName: "form", Attrs: map[string]string{}, Body: text, Children: els}
}

// NewGroup returns a non-native grouping container.
func NewGroup(tag, text string, attrs map[string]string, els ...*FakeElement) *FakeContainer {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &FakeContainer{TagName: tag, Attrs: attrs, Body: text, Children: els}
}

func (c *FakeContainer) Tag() string             { return c.TagName }
func (c *FakeContainer) Attr(name string) string { return c.Attrs[name] }
func (c *FakeContainer) Text() string            { return c.Body }

func (c *FakeContainer) Elements() []dom.Element {
	els := make([]dom.Element, 0, len(c.Children))
	for _, ch := range c.Children {
		els = append(els, ch)
	}
	return els
}

// FakeDocument implements dom.Document.
type FakeDocument struct {
	PageURL   string
	PageTitle string
	PageText  string
	FormList  []*FakeContainer
	GroupList []*FakeContainer
}

func (d *FakeDocument) URL() string   { return d.PageURL }
func (d *FakeDocument) Title() string { return d.PageTitle }
func (d *FakeDocument) Text() string  { return d.PageText }

func (d *FakeDocument) Forms() []dom.Container {
	out := make([]dom.Container, 0, len(d.FormList))
	for _, f := range d.FormList {
		out = append(out, f)
	}
	return out
}

func (d *FakeDocument) Groups() []dom.Container {
	out := make([]dom.Container, 0, len(d.GroupList))
	for _, g := range d.GroupList {
		out = append(out, g)
	}
	return out
}
