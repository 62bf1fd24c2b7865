package cli

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/bridgekit/mentiond/internal/fetch"
	"github.com/bridgekit/mentiond/internal/interface/rest"
	"github.com/bridgekit/mentiond/internal/mf2"
	"github.com/bridgekit/mentiond/internal/observe"
	"github.com/bridgekit/mentiond/internal/pages"
	"github.com/bridgekit/mentiond/internal/ratelimit"
	"github.com/bridgekit/mentiond/internal/sanitize"
	"github.com/bridgekit/mentiond/internal/service"
	"github.com/bridgekit/mentiond/internal/store"
	"github.com/bridgekit/mentiond/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webmention endpoint",
	RunE:  serveAction,
}

func serveAction(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if cfg.Trace.Enable {
		shutdown, err := observe.SetupTracer(ctx, "mentiond", cfg.Trace.Endpoint)
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	kvs, rdb, err := openStore(cfg)
	if err != nil {
		return err
	}

	index, err := pages.Load(cfg.Site.PagesFile, cfg.Site.BaseURL)
	if err != nil {
		return err
	}

	mentions := store.New(
		kvs,
		openCache(cfg),
		service.NewSignalService(rdb),
		logger,
		cfg.Display.RepliesOrder,
	)

	limiter := ratelimit.New(kvs, logger, ratelimit.Options{
		Enabled:       cfg.Security.RateLimit.Enabled,
		MaxRequests:   cfg.Security.RateLimit.MaxRequests,
		WindowSeconds: cfg.Security.RateLimit.WindowSeconds,
	})

	receive := usecase.NewReceiveUsecase(
		limiter,
		fetch.New(cfg.FetchTimeoutDuration(), cfg.Security.MaxContentSize),
		mf2.NewParser(),
		sanitize.New(cfg.Security.SanitizeHTML, cfg.Security.MaxContentLength),
		mentions,
		index,
		logger,
		cfg.Security.AllowedSources,
		cfg.Site.Languages,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if cfg.Trace.Enable {
		e.Use(otelecho.Middleware("mentiond"))
	}

	rest.NewHandler(receive, mentions, cfg.Server.AdminToken).RegisterRoutes(e)

	logger.Info("starting server", slog.String("listen", cfg.Server.Listen))
	return e.Start(cfg.Server.Listen)
}
