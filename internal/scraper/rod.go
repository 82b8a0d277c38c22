package scraper

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// RodRenderer launches one headless Chromium per session
type RodRenderer struct {
	// Bin is the browser binary; empty lets the launcher find or download one
	Bin       string
	UserAgent string
}

// NewRodRenderer creates a renderer using the given browser binary
func NewRodRenderer(bin, userAgent string) *RodRenderer {
	return &RodRenderer{Bin: bin, UserAgent: userAgent}
}

// Acquire starts an isolated browser with a throwaway profile directory
func (r *RodRenderer) Acquire(ctx context.Context) (Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true).
		Set("disable-dev-shm-usage")
	if r.Bin != "" {
		l = l.Bin(r.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		// Cleanup waits for a process exit that never comes when the launch failed
		_ = os.RemoveAll(l.Get(flags.UserDataDir))
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &rodSession{browser: browser, launcher: l, userAgent: r.UserAgent}, nil
}

type rodSession struct {
	browser   *rod.Browser
	launcher  *launcher.Launcher
	userAgent string
}

func (s *rodSession) Render(ctx context.Context, url string, settle time.Duration) (string, error) {
	// Listing pages hide content from browsers that look automated
	page, err := stealth.Page(s.browser)
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	page = page.Context(ctx)

	if s.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.userAgent}); err != nil {
			return "", fmt.Errorf("set user agent: %w", err)
		}
	}
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	// Client-side rendering finishes after the load event
	select {
	case <-time.After(settle):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("capture html: %w", err)
	}
	return html, nil
}

// Release closes the browser, kills the process and removes its profile
func (s *rodSession) Release() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}
