package main

import (
	"log"

	"juradoc/config"
	"juradoc/internal/browser"
	"juradoc/internal/corpus"
	"juradoc/internal/mcp"
	"juradoc/internal/session"
	"juradoc/internal/source/beck"
	"juradoc/internal/source/gii"
)

// app is the wired dependency graph shared by both transports.
type app struct {
	cfg    *config.Config
	engine *browser.Engine // nil when the portal is not configured
	tools  *mcp.Server
}

func buildApp(cfgPath string) (*app, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		engine  *browser.Engine
		beckSrc *beck.Source
	)
	if cfg.Beck.Enabled() {
		engine = browser.NewEngine(browser.Options{
			Origin:           cfg.Beck.Origin,
			LoginPath:        beck.LoginPath,
			LandingPath:      beck.LandingPath,
			AuthCookie:       beck.AuthCookieName,
			NavTimeout:       cfg.Beck.NavTimeout,
			LoginTimeout:     cfg.Beck.LoginTimeout,
			Headless:         cfg.Beck.Headless,
			ContentSelectors: beck.ContentSelectors,
		}, browser.Credentials{
			Username: cfg.Beck.Username,
			Password: cfg.Beck.Password,
		}, buildSessionStore(cfg), nil)
		beckSrc = beck.NewSource(engine, cfg.Beck.Origin, nil)
	} else {
		log.Printf("portal credentials absent, serving without beck_* tools")
	}

	tools := mcp.NewServer(beckSrc, gii.NewSource(nil, "", nil), corpus.NewManager(), nil)
	return &app{cfg: cfg, engine: engine, tools: tools}, nil
}

func buildSessionStore(cfg *config.Config) session.Store {
	if cfg.Storage.Backend == "redis" {
		return session.NewRedisStore(
			cfg.Storage.Redis.Addr,
			cfg.Storage.Redis.Password,
			cfg.Storage.Redis.DB,
			cfg.Beck.Username,
			beck.AuthCookieName,
		)
	}
	path := cfg.Beck.CookieFile
	if path == "" {
		path = session.DefaultJarPath()
	}
	return session.NewFileStore(path, beck.AuthCookieName)
}

// close releases the browser; safe to call with no engine wired.
func (a *app) close() {
	if a.engine != nil {
		a.engine.Close()
	}
}
