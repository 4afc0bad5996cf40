// Package browser implements the document interfaces over a live Chromium
// page driven through the DevTools protocol.
package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
	"github.com/ysmood/gson"
	"go.uber.org/zap"
)

// Browser owns one Chromium instance.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	logger   *zap.Logger
}

// Config controls how the browser is launched.
type Config struct {
	// Headless launches without a visible window. Interactive review of a
	// filled form needs a headed browser.
	Headless bool

	// ControlURL attaches to an already-running browser instead of
	// launching one.
	ControlURL string
}

// Launch starts (or attaches to) a Chromium instance.
func Launch(cfg Config, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Browser{logger: logger}

	wsURL := cfg.ControlURL
	if wsURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		url, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		b.launcher = l
		wsURL = url
	}

	browser := rod.New().ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	b.browser = browser

	logger.Debug("browser connected", zap.String("control_url", wsURL))
	return b, nil
}

// Open navigates a new page to the url and waits for it to load.
func (b *Browser) Open(ctx context.Context, url string) (*Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	page = page.Context(ctx)
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for page load: %w", err)
	}
	return &Page{page: page, logger: b.logger}, nil
}

// Close shuts the browser down and cleans up a launched instance.
func (b *Browser) Close() error {
	err := b.browser.Close()
	if b.launcher != nil {
		b.launcher.Cleanup()
	}
	return err
}

// Page is one live browser tab.
type Page struct {
	page   *rod.Page
	logger *zap.Logger
}

func (p *Page) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *Page) Title() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.Title
}

func (p *Page) Text() string {
	result, err := p.page.Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return ""
	}
	return result.Value.Str()
}

// ObserveMutations installs a MutationObserver on the page and invokes
// notify for every batch of structural changes. Debouncing is the caller's
// concern.
func (p *Page) ObserveMutations(notify func()) error {
	stop, err := p.page.Expose("__formAgentMutation", func(gson.JSON) (interface{}, error) {
		notify()
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("expose mutation callback: %w", err)
	}
	_ = stop

	_, err = p.page.Eval(`() => {
		const observer = new MutationObserver(() => window.__formAgentMutation())
		observer.observe(document.body, { childList: true, subtree: true, attributes: true })
	}`)
	if err != nil {
		return fmt.Errorf("install mutation observer: %w", err)
	}
	return nil
}

func (p *Page) Forms() []dom.Container {
	els, err := p.page.Elements("form")
	if err != nil {
		p.logger.Debug("container query failed", zap.String("selector", "form"), zap.Error(err))
		return nil
	}
	return p.wrap(els)
}

// Groups returns only outermost grouping containers: elements inside a
// native form (or inside another grouping tag) belong to their ancestor's
// detection pass, not their own.
func (p *Page) Groups() []dom.Container {
	els, err := p.page.ElementsByJS(rod.Eval(`() =>
		Array.from(document.querySelectorAll('div, section, fieldset')).filter(el =>
			!el.closest('form') &&
			!(el.parentElement && el.parentElement.closest('div, section, fieldset')) &&
			el.querySelector('input, select, textarea'))`))
	if err != nil {
		p.logger.Debug("group query failed", zap.Error(err))
		return nil
	}
	return p.wrap(els)
}

func (p *Page) wrap(els rod.Elements) []dom.Container {
	out := make([]dom.Container, 0, len(els))
	for _, el := range els {
		out = append(out, &container{el: el})
	}
	return out
}
