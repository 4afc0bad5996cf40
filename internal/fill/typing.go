package fill

import (
	"context"
	"fmt"

	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
	"github.com/sanketmuchhala/ApplicationAgent/internal/utils"
)

// typeValue simulates keystroke-level input by writing growing prefixes of
// the value with an input event after each character. Framework-bound
// inputs ignore plain value assignment; this path keeps their change
// tracking in sync.
func (e *Executor) typeValue(ctx context.Context, el dom.Element, value string) error {
	if err := el.SetValue(""); err != nil {
		return fmt.Errorf("clear value: %w", err)
	}
	if err := el.Dispatch(dom.EventFocus); err != nil {
		return fmt.Errorf("dispatch focus: %w", err)
	}

	runes := []rune(value)
	for i := range runes {
		if err := el.SetValue(string(runes[:i+1])); err != nil {
			return fmt.Errorf("type character %d: %w", i, err)
		}
		if err := el.Dispatch(dom.EventInput); err != nil {
			return fmt.Errorf("dispatch input: %w", err)
		}
		if i < len(runes)-1 {
			if err := utils.WaitFor(ctx, e.typeDelay); err != nil {
				return err
			}
		}
	}

	return dispatchAll(el, dom.EventChange, dom.EventBlur)
}
