// Package snapshot implements the document interfaces over a parsed static
// HTML tree. It backs offline analysis and tests; nothing here talks to a
// browser.
package snapshot

import (
	"fmt"
	"io"
	"strings"

	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
	"golang.org/x/net/html"
)

// Document is a static page parsed from HTML markup.
type Document struct {
	url    string
	title  string
	root   *html.Node
	forms  []*container
	groups []*container
	labels map[string]string
}

// Parse reads HTML markup into a Document. The url is recorded as the page
// address for context classification.
func Parse(r io.Reader, url string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &Document{
		url:    url,
		root:   root,
		labels: map[string]string{},
	}
	d.index()
	return d, nil
}

// ParseString is Parse over an in-memory markup string.
func ParseString(markup, url string) (*Document, error) {
	return Parse(strings.NewReader(markup), url)
}

func (d *Document) URL() string   { return d.url }
func (d *Document) Title() string { return d.title }

func (d *Document) Text() string { return collapse(textOf(d.root)) }

func (d *Document) Forms() []dom.Container {
	out := make([]dom.Container, 0, len(d.forms))
	for _, f := range d.forms {
		out = append(out, f)
	}
	return out
}

func (d *Document) Groups() []dom.Container {
	out := make([]dom.Container, 0, len(d.groups))
	for _, g := range d.groups {
		out = append(out, g)
	}
	return out
}

// groupTags are the container tags considered as form-less groupings.
var groupTags = map[string]bool{
	"div":      true,
	"section":  true,
	"fieldset": true,
}

func (d *Document) index() {
	walk(d.root, func(n *html.Node) {
		switch n.Data {
		case "title":
			if d.title == "" {
				d.title = collapse(textOf(n))
			}
		case "label":
			if forID := attrOf(n, "for"); forID != "" {
				d.labels[forID] = collapse(textOf(n))
			}
		case "form":
			d.forms = append(d.forms, newContainer(d, n))
		default:
			if groupTags[n.Data] && !inside(n, "form") && !insideAny(n, groupTags) {
				c := newContainer(d, n)
				if len(c.Elements()) > 0 {
					d.groups = append(d.groups, c)
				}
			}
		}
	})
}

// container wraps one form or grouping node.
type container struct {
	doc  *Document
	node *html.Node
}

func newContainer(doc *Document, n *html.Node) *container {
	return &container{doc: doc, node: n}
}

func (c *container) Tag() string             { return c.node.Data }
func (c *container) Attr(name string) string { return attrOf(c.node, name) }
func (c *container) Text() string            { return collapse(textOf(c.node)) }

func (c *container) Elements() []dom.Element {
	var els []dom.Element
	walk(c.node, func(n *html.Node) {
		switch n.Data {
		case "input", "textarea", "select":
			els = append(els, &element{doc: c.doc, node: n})
		}
	})
	return els
}

// element wraps one interactive node. Writes mutate the parsed tree so a
// re-serialized snapshot reflects the fill.
type element struct {
	doc  *Document
	node *html.Node
}

func (e *element) ID() string   { return attrOf(e.node, "id") }
func (e *element) Name() string { return attrOf(e.node, "name") }
func (e *element) Tag() string  { return e.node.Data }

func (e *element) Kind() dom.Kind {
	return dom.KindOf(e.node.Data, attrOf(e.node, "type"))
}

func (e *element) Attr(name string) string { return attrOf(e.node, name) }
func (e *element) Placeholder() string     { return attrOf(e.node, "placeholder") }

func (e *element) Required() bool {
	return hasAttr(e.node, "required") || attrOf(e.node, "aria-required") == "true"
}

func (e *element) Value() string {
	if e.node.Data == "textarea" {
		return textOf(e.node)
	}
	if e.node.Data == "select" {
		var selected string
		var first string
		walk(e.node, func(n *html.Node) {
			if n.Data != "option" {
				return
			}
			v := optionValue(n)
			if first == "" {
				first = v
			}
			if hasAttr(n, "selected") && selected == "" {
				selected = v
			}
		})
		if selected != "" {
			return selected
		}
		return first
	}
	return attrOf(e.node, "value")
}

func (e *element) SetValue(v string) error {
	if e.node.Data == "textarea" {
		for c := e.node.FirstChild; c != nil; c = e.node.FirstChild {
			e.node.RemoveChild(c)
		}
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		return nil
	}
	setAttr(e.node, "value", v)
	return nil
}

func (e *element) Checked() bool { return hasAttr(e.node, "checked") }

func (e *element) SetChecked(checked bool) error {
	if checked {
		setAttr(e.node, "checked", "checked")
	} else {
		removeAttr(e.node, "checked")
	}
	return nil
}

func (e *element) Options() []dom.Option {
	if e.node.Data != "select" {
		return nil
	}
	var opts []dom.Option
	walk(e.node, func(n *html.Node) {
		if n.Data == "option" {
			opts = append(opts, dom.Option{
				Value: optionValue(n),
				Text:  collapse(textOf(n)),
			})
		}
	})
	return opts
}

func (e *element) SelectValue(value string) error {
	if e.node.Data != "select" {
		return fmt.Errorf("element %s is not a select", e.node.Data)
	}
	found := false
	walk(e.node, func(n *html.Node) {
		if n.Data != "option" {
			return
		}
		if optionValue(n) == value {
			setAttr(n, "selected", "selected")
			found = true
		} else {
			removeAttr(n, "selected")
		}
	})
	if !found {
		return fmt.Errorf("no option with value %q", value)
	}
	return nil
}

// Visible applies the static approximations available without layout: the
// hidden attribute, inline display/visibility styles and hidden input type.
func (e *element) Visible() bool {
	if e.Kind() == dom.KindHidden {
		return false
	}
	for n := e.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if hasAttr(n, "hidden") {
			return false
		}
		style := strings.ReplaceAll(attrOf(n, "style"), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

// Dispatch is a no-op: a static tree has no script listeners.
func (e *element) Dispatch(dom.Event) error { return nil }

func (e *element) LabelText() string {
	if id := e.ID(); id != "" {
		return e.doc.labels[id]
	}
	return ""
}

func (e *element) AncestorLabelText() string {
	for n := e.node.Parent; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if n.Data == "label" {
			return collapse(textOf(n))
		}
	}
	return ""
}

func (e *element) PrecedingText() string {
	for n := e.node.PrevSibling; n != nil; n = n.PrevSibling {
		text := collapse(textOf(n))
		if text != "" {
			return text
		}
	}
	return ""
}

func (e *element) ContainerText() string {
	if e.node.Parent != nil {
		return collapse(textOf(e.node.Parent))
	}
	return ""
}

// tree helpers

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func inside(n *html.Node, tag string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

func insideAny(n *html.Node, tags map[string]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && tags[p.Data] {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attrOf(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func optionValue(n *html.Node) string {
	if v := attrOf(n, "value"); v != "" {
		return v
	}
	return collapse(textOf(n))
}
