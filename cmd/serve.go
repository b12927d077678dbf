package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"tasublog/handler"
	"tasublog/view"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the blog over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg.Env)
		if err != nil {
			return err
		}
		defer log.Sync()

		a, err := newApp(cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		notice := a.startup(ctx)

		h, err := a.handler()
		if err != nil {
			return err
		}
		if notice != "" {
			h.Announce(notice)
		}
		templates, err := view.NewTemplates()
		if err != nil {
			return err
		}
		hub := handler.NewHub(a.posts, log.Named("events"))
		e := handler.NewServer(h, hub, templates, cfg.AssetsDir)

		errc := make(chan error, 1)
		go func() { errc <- start(e, cfg.AddressListen, cfg.WhitelistHost, cfg.CertCacheDir) }()
		log.Info("serving", zap.String("address", cfg.AddressListen), zap.String("env", cfg.Env))

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdown)
	},
}

// start listens on addr, or on :443 with certificates from Let's Encrypt
// when no address is configured.
func start(e *echo.Echo, addr, onlyHost, cacheDir string) error {
	if addr != "" {
		return e.Start(addr)
	}
	// Cache certificates to avoid issues with rate limits (https://letsencrypt.org/docs/rate-limits)
	e.AutoTLSManager.Cache = autocert.DirCache(cacheDir)
	if onlyHost != "" {
		e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(onlyHost)
	}
	e.Pre(middleware.HTTPSRedirect())
	return e.StartAutoTLS(":443")
}
