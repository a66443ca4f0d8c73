// Package browser provides the navigation driver the browser and planner
// agents use. It owns one headless Chrome instance via rod; the driver is
// owned exclusively by the agent that created it and is not shared.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"taskseek/internal/config"
	"taskseek/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Driver wraps a rod browser with a single active page.
type Driver struct {
	cfg     config.BrowserConfig
	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// NewDriver creates a driver; the browser process launches lazily on the
// first navigation.
func NewDriver(cfg config.BrowserConfig) *Driver {
	return &Driver{cfg: cfg}
}

// start launches Chrome and connects. Caller holds d.mu.
func (d *Driver) start() error {
	if d.browser != nil {
		return nil
	}

	logging.Browser("Launching browser (headless=%v)", d.cfg.Headless)

	l := launcher.New().Headless(d.cfg.Headless).Leakless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	d.browser = b
	return nil
}

// Navigate loads the URL and returns a text outcome describing the page:
// title plus readable body text, truncated to the configured limit. The
// outcome is what gets appended verbatim to the invoking agent's memory.
func (d *Driver) Navigate(ctx context.Context, url string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.start(); err != nil {
		return "", err
	}

	if !strings.Contains(url, "://") {
		url = "https://" + url
	}

	timer := logging.StartTimer(logging.CategoryBrowser, "Navigate")
	defer timer.Stop()
	logging.Browser("Navigating to %s", url)

	page, err := d.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}

	// One page at a time; close the previous one.
	if d.page != nil {
		_ = d.page.Close()
	}
	d.page = page

	page = page.Context(ctx).Timeout(d.cfg.NavigationTimeout())
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("page load failed for %s: %w", url, err)
	}

	info, err := page.Info()
	title := url
	if err == nil && info.Title != "" {
		title = info.Title
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}

	text := ExtractText(html)
	limit := d.cfg.PageTextLimit
	if limit <= 0 {
		limit = 8000
	}
	if len(text) > limit {
		text = text[:limit] + "\n[...truncated...]"
	}

	logging.BrowserDebug("Loaded %s (title=%q, text=%d chars)", url, title, len(text))
	return fmt.Sprintf("Page loaded: %s\nTitle: %s\n\n%s", url, title, text), nil
}

// CurrentURL returns the URL of the active page, if any.
func (d *Driver) CurrentURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.page == nil {
		return ""
	}
	info, err := d.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close shuts down the browser process.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser == nil {
		return nil
	}
	logging.Browser("Closing browser")
	err := d.browser.Close()
	d.browser = nil
	d.page = nil
	return err
}
