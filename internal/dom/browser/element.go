package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
)

// container wraps one form or grouping element on a live page.
type container struct {
	el *rod.Element
}

func (c *container) Tag() string {
	result, err := c.el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return ""
	}
	return result.Value.Str()
}

func (c *container) Attr(name string) string {
	val, err := c.el.Attribute(name)
	if err != nil || val == nil {
		return ""
	}
	return *val
}

func (c *container) Text() string {
	result, err := c.el.Eval(`() => this.innerText || ""`)
	if err != nil {
		return ""
	}
	return result.Value.Str()
}

func (c *container) Elements() []dom.Element {
	els, err := c.el.Elements("input, textarea, select")
	if err != nil {
		return nil
	}
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el})
	}
	return out
}

// element wraps one interactive element on a live page. Reads swallow
// protocol errors into zero values; writes surface them.
type element struct {
	el *rod.Element
}

func (e *element) evalString(js string) string {
	result, err := e.el.Eval(js)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(result.Value.Str())
}

func (e *element) ID() string   { return e.attr("id") }
func (e *element) Name() string { return e.attr("name") }

func (e *element) Tag() string {
	return e.evalString(`() => this.tagName.toLowerCase()`)
}

func (e *element) Kind() dom.Kind {
	return dom.KindOf(e.Tag(), e.attr("type"))
}

func (e *element) attr(name string) string {
	val, err := e.el.Attribute(name)
	if err != nil || val == nil {
		return ""
	}
	return *val
}

func (e *element) Attr(name string) string { return e.attr(name) }

func (e *element) Placeholder() string { return e.attr("placeholder") }

func (e *element) Required() bool {
	result, err := e.el.Eval(`() => this.required === true || this.getAttribute("aria-required") === "true"`)
	if err != nil {
		return false
	}
	return result.Value.Bool()
}

func (e *element) Value() string {
	result, err := e.el.Eval(`() => this.value || ""`)
	if err != nil {
		return ""
	}
	return result.Value.Str()
}

func (e *element) SetValue(v string) error {
	if _, err := e.el.Eval(`(v) => { this.value = v }`, v); err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}

func (e *element) Checked() bool {
	result, err := e.el.Eval(`() => this.checked === true`)
	if err != nil {
		return false
	}
	return result.Value.Bool()
}

func (e *element) SetChecked(checked bool) error {
	if _, err := e.el.Eval(`(c) => { this.checked = c }`, checked); err != nil {
		return fmt.Errorf("set checked: %w", err)
	}
	return nil
}

func (e *element) Options() []dom.Option {
	opts, err := e.el.Elements("option")
	if err != nil {
		return nil
	}
	out := make([]dom.Option, 0, len(opts))
	for _, o := range opts {
		value, err := o.Attribute("value")
		text, textErr := o.Text()
		if textErr != nil {
			text = ""
		}
		opt := dom.Option{Text: strings.TrimSpace(text)}
		if err == nil && value != nil {
			opt.Value = *value
		} else {
			opt.Value = opt.Text
		}
		out = append(out, opt)
	}
	return out
}

func (e *element) SelectValue(value string) error {
	result, err := e.el.Eval(`(v) => {
		for (const opt of this.options) {
			if (opt.value === v) {
				this.value = v
				return true
			}
		}
		return false
	}`, value)
	if err != nil {
		return fmt.Errorf("select option: %w", err)
	}
	if !result.Value.Bool() {
		return fmt.Errorf("no option with value %q", value)
	}
	return nil
}

func (e *element) Visible() bool {
	visible, err := e.el.Visible()
	if err != nil {
		return false
	}
	return visible
}

func (e *element) Dispatch(ev dom.Event) error {
	js := `(name) => {
		const evt = (name === "focus" || name === "blur")
			? new FocusEvent(name)
			: new Event(name, { bubbles: true, cancelable: true })
		this.dispatchEvent(evt)
	}`
	if _, err := e.el.Eval(js, string(ev)); err != nil {
		return fmt.Errorf("dispatch %s: %w", ev, err)
	}
	return nil
}

func (e *element) LabelText() string {
	return e.evalString(`() => {
		if (this.id) {
			const label = document.querySelector('label[for="' + CSS.escape(this.id) + '"]')
			if (label) return label.innerText
		}
		return ""
	}`)
}

func (e *element) AncestorLabelText() string {
	return e.evalString(`() => {
		const label = this.closest("label")
		return label ? label.innerText : ""
	}`)
}

func (e *element) PrecedingText() string {
	return e.evalString(`() => {
		let node = this.previousElementSibling
		while (node) {
			const text = (node.innerText || "").trim()
			if (text) return text
			node = node.previousElementSibling
		}
		return ""
	}`)
}

func (e *element) ContainerText() string {
	return e.evalString(`() => this.parentElement ? this.parentElement.innerText : ""`)
}
