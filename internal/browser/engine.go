// Package browser owns the one long-lived headless Chrome session used for
// every portal fetch. A plain HTTP client cannot replace it: the federated
// login spans 2-3 domains with correlation state, the portal fingerprints
// non-browser clients, and some query parameters are shaped client-side.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"juradoc/internal/session"
	"juradoc/internal/telemetry"
)

// defaultUserAgent is a realistic desktop identity. The portal rejects
// obvious automation user agents before the login form ever loads.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// snippetLen bounds the page excerpt attached to auth errors.
const snippetLen = 300

// FetchResult is one rendered page: the post-redirect location plus the
// full page markup.
type FetchResult struct {
	FinalURL   string
	RawContent string
}

// Credentials are the portal account secrets.
type Credentials struct {
	Username string
	Password string
}

// Options fixes the portal endpoints and timing the engine works against.
type Options struct {
	Origin           string
	LoginPath        string
	LandingPath      string
	AuthCookie       string
	UserAgent        string
	NavTimeout       time.Duration
	LoginTimeout     time.Duration
	Headless         bool
	ContentSelectors []string
}

// AuthError means the login handshake never reached an authenticated
// state. StuckURL and Snippet record where the redirect chain ended for
// diagnosis.
type AuthError struct {
	StuckURL string
	Snippet  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login did not reach authenticated state (stuck at %s): %s", e.StuckURL, e.Snippet)
}

// Engine is the process-wide authenticated fetcher. Construct once; all
// navigations serialize on the internal mutex because interleaved
// navigations on the one shared page corrupt each other's results.
type Engine struct {
	mu sync.Mutex

	opts   Options
	creds  Credentials
	store  session.Store
	logger *log.Logger

	state       State
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	brCtx       context.Context
	cancelBr    context.CancelFunc
	currentURL  string
}

// NewEngine wires the engine without starting Chrome; the browser launches
// lazily on the first fetch.
func NewEngine(opts Options, creds Credentials, store session.Store, logger *log.Logger) *Engine {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = 20 * time.Second
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[BROWSER] ", log.LstdFlags)
	}
	return &Engine{
		opts:   opts,
		creds:  creds,
		store:  store,
		logger: logger,
		state:  StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentURL returns the last-navigated URL, empty if never initialized.
func (e *Engine) CurrentURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentURL
}

// FetchPage guarantees the returned page was fetched while authenticated.
// Path-only URLs are resolved against the fixed origin.
func (e *Engine) FetchPage(ctx context.Context, pageURL string) (FetchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fetchLocked(ctx, pageURL)
}

// ResolveURL performs the same navigation as FetchPage but the caller only
// wants the final redirected location.
func (e *Engine) ResolveURL(ctx context.Context, pageURL string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.fetchLocked(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return res.FinalURL, nil
}

// Close terminates the automation session and clears all in-memory state.
// Idempotent; a later fetch relaunches from scratch.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancelBr != nil {
		e.cancelBr()
	}
	if e.cancelAlloc != nil {
		e.cancelAlloc()
	}
	e.brCtx, e.cancelBr = nil, nil
	e.allocCtx, e.cancelAlloc = nil, nil
	e.currentURL = ""
	e.state = StateUninitialized
}

func (e *Engine) fetchLocked(ctx context.Context, pageURL string) (FetchResult, error) {
	if err := e.ensureBrowser(); err != nil {
		return FetchResult{}, err
	}
	if e.state != StateAuthenticated {
		if err := e.login(ctx); err != nil {
			return FetchResult{}, err
		}
	}

	target := e.absoluteURL(pageURL)
	navCtx, cancel := context.WithTimeout(e.brCtx, e.opts.NavTimeout)
	defer cancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(target)); err != nil {
		telemetry.PageFetches.WithLabelValues("error").Inc()
		return FetchResult{}, fmt.Errorf("navigate %s: %w", target, err)
	}

	// Best-effort waits for known content containers so we do not capture
	// a pre-render placeholder. Timeouts here never fail the fetch.
	for _, sel := range e.opts.ContentSelectors {
		waitCtx, cancelWait := context.WithTimeout(e.brCtx, 2*time.Second)
		err := chromedp.Run(waitCtx, chromedp.WaitReady(sel, chromedp.ByQuery))
		cancelWait()
		if err == nil {
			break
		}
	}

	// The capture is bounded like the navigate above it; a hung renderer
	// must not hold the engine mutex forever.
	var finalURL, html string
	capCtx, cancelCap := context.WithTimeout(e.brCtx, e.opts.NavTimeout)
	defer cancelCap()
	if err := chromedp.Run(capCtx,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		telemetry.PageFetches.WithLabelValues("error").Inc()
		return FetchResult{}, fmt.Errorf("capture page: %w", err)
	}
	telemetry.PageFetches.WithLabelValues("ok").Inc()
	e.currentURL = finalURL

	// Persisting refreshed cookies is an optimization, not a correctness
	// requirement.
	if cookies, err := e.readCookies(); err == nil {
		if err := e.store.Save(cookies); err != nil {
			e.logger.Printf("cookie save failed: %v", err)
		}
	}

	return FetchResult{FinalURL: finalURL, RawContent: html}, nil
}

// ensureBrowser performs Uninitialized -> Initialized -> SessionRestored.
// Restored cookies are loaded into the browser context but not yet
// verified against the portal.
func (e *Engine) ensureBrowser() error {
	if e.brCtx != nil {
		return nil
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.opts.Headless),
		chromedp.UserAgent(e.opts.UserAgent),
	)
	e.allocCtx, e.cancelAlloc = chromedp.NewExecAllocator(context.Background(), opts...)
	e.brCtx, e.cancelBr = chromedp.NewContext(e.allocCtx)
	e.state = StateInitialized

	cookies, ok := e.store.Load()
	if !ok {
		return nil
	}
	if err := e.setCookies(cookies); err != nil {
		e.logger.Printf("cookie restore failed: %v", err)
		return nil
	}
	e.state = StateSessionRestored
	e.logger.Printf("restored %d persisted cookies", len(cookies))
	return nil
}

// login verifies liveness against the authenticated-only landing page and
// runs the full federated handshake when the session turns out stale.
func (e *Engine) login(ctx context.Context) error {
	landing := e.opts.Origin + e.opts.LandingPath
	navCtx, cancel := context.WithTimeout(e.brCtx, e.opts.NavTimeout)
	err := chromedp.Run(navCtx, chromedp.Navigate(landing))
	cancel()
	if err != nil {
		return fmt.Errorf("liveness probe: %w", err)
	}
	if e.hasAuthCookie() {
		e.state = StateAuthenticated
		e.persistCookies()
		return nil
	}
	if e.state == StateSessionRestored {
		e.logger.Printf("persisted session is stale, running login handshake")
	}
	e.state = StateStale
	return e.handshake(ctx)
}

// handshake drives the identity-federation login: initiation endpoint,
// IdP form, and the 2-3 redirect hops back to the origin. The
// intermediate hops may not fire one consolidated navigation event, hence
// the second bounded wait.
func (e *Engine) handshake(ctx context.Context) error {
	loginURL := e.opts.Origin + e.opts.LoginPath
	navCtx, cancel := context.WithTimeout(e.brCtx, e.opts.NavTimeout)
	err := chromedp.Run(navCtx, chromedp.Navigate(loginURL))
	cancel()
	if err != nil {
		return fmt.Errorf("navigate login endpoint: %w", err)
	}

	location, err := e.location()
	if err != nil {
		return err
	}

	if e.onOrigin(location) {
		// No redirect to the IdP form: the session is already live.
		e.state = StateAuthenticated
		e.persistCookies()
		return nil
	}

	formCtx, cancelForm := context.WithTimeout(e.brCtx, e.opts.LoginTimeout)
	err = chromedp.Run(formCtx,
		chromedp.WaitVisible(`input#username`, chromedp.ByQuery),
		chromedp.SendKeys(`input#username`, e.creds.Username, chromedp.ByQuery),
		chromedp.SendKeys(`input#password`, e.creds.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
	)
	cancelForm()
	if err != nil {
		return fmt.Errorf("submit credentials: %w", err)
	}

	// Absorb the remaining federation hops. Expiry of this wait is
	// tolerated: the chain may already have arrived.
	e.awaitOrigin(ctx)

	if !e.hasAuthCookie() {
		stuck, _ := e.location()
		snippet := e.bodySnippet()
		e.logger.Printf("login failed, stuck at %s", stuck)
		telemetry.LoginAttempts.WithLabelValues("error").Inc()
		return &AuthError{StuckURL: stuck, Snippet: snippet}
	}

	e.state = StateAuthenticated
	e.currentURL, _ = e.location()
	e.persistCookies()
	telemetry.LoginAttempts.WithLabelValues("ok").Inc()
	e.logger.Printf("login handshake complete")
	return nil
}

// awaitOrigin polls the page location until it is back on the origin
// domain or the bounded login timeout passes.
func (e *Engine) awaitOrigin(ctx context.Context) {
	deadline := time.Now().Add(e.opts.LoginTimeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}
		location, err := e.location()
		if err == nil && e.onOrigin(location) {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func (e *Engine) onOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	origin, err := url.Parse(e.opts.Origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, origin.Host)
}

func (e *Engine) absoluteURL(raw string) string {
	if strings.HasPrefix(raw, "/") {
		return e.opts.Origin + raw
	}
	return raw
}

func (e *Engine) location() (string, error) {
	var location string
	if err := chromedp.Run(e.brCtx, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return location, nil
}

func (e *Engine) bodySnippet() string {
	var text string
	snipCtx, cancel := context.WithTimeout(e.brCtx, 2*time.Second)
	defer cancel()
	if err := chromedp.Run(snipCtx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > snippetLen {
		text = text[:snippetLen]
	}
	return text
}

func (e *Engine) hasAuthCookie() bool {
	cookies, err := e.readCookies()
	if err != nil {
		return false
	}
	for _, c := range cookies {
		if c.Name == e.opts.AuthCookie {
			return true
		}
	}
	return false
}

func (e *Engine) persistCookies() {
	cookies, err := e.readCookies()
	if err != nil {
		e.logger.Printf("cookie read failed: %v", err)
		return
	}
	if err := e.store.Save(cookies); err != nil {
		e.logger.Printf("cookie save failed: %v", err)
	}
}

func (e *Engine) readCookies() ([]session.Cookie, error) {
	var out []session.Cookie
	err := chromedp.Run(e.brCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		out = make([]session.Cookie, 0, len(cookies))
		for _, c := range cookies {
			out = append(out, session.Cookie{
				Name:    c.Name,
				Value:   c.Value,
				Domain:  c.Domain,
				Path:    c.Path,
				Expires: c.Expires,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) setCookies(cookies []session.Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		}
		if c.Expires > 0 {
			exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &exp
		}
		params = append(params, p)
	}
	if len(params) == 0 {
		return errors.New("no cookies to restore")
	}
	return chromedp.Run(e.brCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.SetCookies(params).Do(ctx)
	}))
}
