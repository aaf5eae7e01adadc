// Package rodpage drives a headless Chrome page with go-rod to render a channel's video list
package rodpage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tubemail/internal/platform/logger"
	"tubemail/internal/services/harvest/domain"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// UserAgent is the desktop Chrome identity the page presents
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configure the browser session
type Options struct {
	Headless bool
	Bin      string // chrome binary, empty lets rod resolve or download one
	Width    int
	Height   int
}

// consentButtons are tried in order; css selectors first, then text matches
var consentButtons = []struct{ css, text string }{
	{css: `button[aria-label*="Accept"]`},
	{css: `button[aria-label*="Accepter"]`},
	{css: "button", text: "Accept all"},
	{css: "button", text: "Tout accepter"},
}

// collectJS returns every watch link rendered on the page, shorts excluded
const collectJS = `() => {
	const out = [];
	for (const a of document.querySelectorAll('a[href*="/watch?v="]')) {
		const href = a.href || '';
		if (href.includes('/shorts/')) continue;
		let id = '';
		try { id = new URL(href).searchParams.get('v') || ''; } catch (e) { continue; }
		if (!id) continue;
		const title = (a.getAttribute('title') || a.textContent || '').trim();
		out.push({ id: id, url: 'https://www.youtube.com/watch?v=' + id, title: title });
	}
	return out;
}`

const scrollJS = `() => window.scrollTo(0, document.documentElement.scrollHeight)`

// Page implements domain.Renderer
// the browser is launched on the first Navigate and released by Close
type Page struct {
	opts Options

	mu      sync.Mutex
	l       *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
}

// New returns a Page that has not launched anything yet
func New(opts Options) *Page {
	if opts.Width <= 0 {
		opts.Width = 1920
	}
	if opts.Height <= 0 {
		opts.Height = 1080
	}
	return &Page{opts: opts}
}

func (p *Page) launch() (*rod.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page != nil {
		return p.page, nil
	}

	l := launcher.New().Headless(p.opts.Headless).NoSandbox(true)
	if p.opts.Bin != "" {
		l = l.Bin(p.opts.Bin)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	pg, err := b.Page(proto.TargetCreateTarget{})
	if err == nil {
		err = pg.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width: p.opts.Width, Height: p.opts.Height, DeviceScaleFactor: 1,
		})
	}
	if err == nil {
		err = pg.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: UserAgent})
	}
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	p.l, p.browser, p.page = l, b, pg
	logger.Named("rodpage").Debug().Bool("headless", p.opts.Headless).Msg("browser launched")
	return pg, nil
}

func (p *Page) current() (*rod.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page == nil {
		return nil, fmt.Errorf("browser not launched")
	}
	return p.page, nil
}

// Navigate implements domain.Renderer
func (p *Page) Navigate(ctx context.Context, url string) error {
	pg, err := p.launch()
	if err != nil {
		return err
	}
	pg = pg.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

// Settle implements domain.Renderer
func (p *Page) Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DismissConsent implements domain.Renderer
func (p *Page) DismissConsent(ctx context.Context) bool {
	pg, err := p.current()
	if err != nil {
		return false
	}
	pg = pg.Context(ctx)
	log := logger.NamedC(ctx, "rodpage")

	for _, b := range consentButtons {
		var (
			ok bool
			el *rod.Element
		)
		if b.text == "" {
			ok, el, err = pg.Has(b.css)
		} else {
			ok, el, err = pg.HasR(b.css, b.text)
		}
		if err != nil || !ok {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			log.Debug().Err(err).Str("selector", b.css).Msg("consent click failed")
			continue
		}
		log.Info().Str("selector", b.css).Str("text", b.text).Msg("cookie consent dismissed")
		return true
	}
	return false
}

// Snapshot implements domain.Renderer
func (p *Page) Snapshot(ctx context.Context) ([]domain.ItemRef, error) {
	pg, err := p.current()
	if err != nil {
		return nil, err
	}
	obj, err := pg.Context(ctx).Eval(collectJS)
	if err != nil {
		return nil, fmt.Errorf("collect links: %w", err)
	}
	return parseRecords(obj.Value.Val()), nil
}

// Extend implements domain.Renderer
func (p *Page) Extend(ctx context.Context) error {
	pg, err := p.current()
	if err != nil {
		return err
	}
	if _, err := pg.Context(ctx).Eval(scrollJS); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

// Close implements domain.Renderer
// it is idempotent and a later Navigate launches a fresh browser
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	p.l.Kill()
	p.l, p.browser, p.page = nil, nil, nil
	return err
}

// parseRecords converts the untyped script result into refs
// entries without a string id and url are skipped, titles are trimmed and may be empty
func parseRecords(v any) []domain.ItemRef {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]domain.ItemRef, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		id, _ := m["id"].(string)
		url, _ := m["url"].(string)
		if id == "" || url == "" {
			continue
		}
		title, _ := m["title"].(string)
		out = append(out, domain.ItemRef{ID: id, URL: url, Title: strings.TrimSpace(title)})
	}
	return out
}

var _ domain.Renderer = (*Page)(nil)
