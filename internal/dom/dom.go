// Package dom defines the interactive-document capability the engine is
// written against. Detection and fill never touch a concrete runtime
// directly; they see elements through these interfaces, so the core can run
// against a live browser page, a parsed HTML snapshot, or a fake in tests.
package dom

// Kind identifies the input behavior of an element, normalized across
// input[type=...], textarea and select tags.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindTel      Kind = "tel"
	KindNumber   Kind = "number"
	KindDate     Kind = "date"
	KindURL      Kind = "url"
	KindPassword Kind = "password"
	KindSearch   Kind = "search"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
	KindCheckbox Kind = "checkbox"
	KindRadio    Kind = "radio"
	KindFile     Kind = "file"
	KindHidden   Kind = "hidden"
	KindSubmit   Kind = "submit"
	KindButton   Kind = "button"
	KindReset    Kind = "reset"
)

// Event is a semantic notification dispatched after a write so that page
// scripts listening for user input observe the change.
type Event string

const (
	EventInput  Event = "input"
	EventChange Event = "change"
	EventBlur   Event = "blur"
	EventFocus  Event = "focus"
)

// Option is one choice of a select element.
type Option struct {
	Value string
	Text  string
}

// Element is a single interactive input. Reads must be side-effect free;
// writes go through SetValue/SetChecked/SelectValue followed by Dispatch.
type Element interface {
	ID() string
	Name() string
	Tag() string
	Kind() Kind
	Attr(name string) string
	Placeholder() string
	// Required reports the required attribute or an aria-required marker.
	Required() bool

	Value() string
	SetValue(v string) error
	Checked() bool
	SetChecked(checked bool) error
	Options() []Option
	SelectValue(value string) error

	// Visible reports whether the element currently has a layout box and is
	// not hidden by style or a detached container.
	Visible() bool
	Dispatch(e Event) error

	// Raw inputs for label inference. The host returns surrounding text
	// untrimmed of the element's own value; cleanup rules live in the engine.
	LabelText() string
	AncestorLabelText() string
	PrecedingText() string
	ContainerText() string
}

// Container is a grouping element holding interactive descendants, either a
// native form or a framework-rendered grouping without a form wrapper.
type Container interface {
	Tag() string
	Attr(name string) string
	Text() string
	// Elements returns interactive descendants in document order.
	Elements() []Element
}

// Document is one page the engine operates on.
type Document interface {
	URL() string
	Title() string
	Text() string
	// Forms returns native form containers.
	Forms() []Container
	// Groups returns non-form grouping containers that hold at least one
	// interactive descendant. The classifier decides which of them qualify.
	Groups() []Container
}

// KindOf normalizes a tag plus type attribute into a Kind.
func KindOf(tag, typeAttr string) Kind {
	switch tag {
	case "textarea":
		return KindTextarea
	case "select":
		return KindSelect
	case "input":
	default:
		return KindText
	}

	switch typeAttr {
	case "email":
		return KindEmail
	case "tel", "phone":
		return KindTel
	case "number":
		return KindNumber
	case "date":
		return KindDate
	case "url":
		return KindURL
	case "password":
		return KindPassword
	case "search":
		return KindSearch
	case "checkbox":
		return KindCheckbox
	case "radio":
		return KindRadio
	case "file":
		return KindFile
	case "hidden":
		return KindHidden
	case "submit":
		return KindSubmit
	case "button":
		return KindButton
	case "reset":
		return KindReset
	default:
		return KindText
	}
}

// NonInteractive reports kinds excluded from extraction and from the
// interactive-descendant count used for container qualification.
func NonInteractive(k Kind) bool {
	switch k {
	case KindHidden, KindSubmit, KindButton, KindReset:
		return true
	default:
		return false
	}
}
