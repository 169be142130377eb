package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/pgagates/gatesite/internal/admin"
	"github.com/pgagates/gatesite/internal/boot"
	"github.com/pgagates/gatesite/internal/captcha"
	"github.com/pgagates/gatesite/internal/config"
	"github.com/pgagates/gatesite/internal/handlers"
	"github.com/pgagates/gatesite/internal/ledger"
	"github.com/pgagates/gatesite/internal/logger"
	"github.com/pgagates/gatesite/internal/mail"
	"github.com/pgagates/gatesite/internal/quote"
	"github.com/pgagates/gatesite/internal/seo"
	"github.com/pgagates/gatesite/internal/server"
	"github.com/pgagates/gatesite/internal/site"
	"github.com/pgagates/gatesite/internal/store"
	"github.com/pgagates/gatesite/internal/store/githubstore"
	"github.com/pgagates/gatesite/internal/store/localstore"
	"github.com/pgagates/gatesite/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the site server",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

func runServer() {
	fx.New(
		fx.Provide(
			provideConfig,
			boot.ProvideRuntimeConfig,
			provideLogger,

			provideStore,
			ledger.NewService,
			provideAdminService,
			provideCaptchaVerifier,
			provideMailSender,
			provideQuoteService,
			provideSiteService,
			provideReviews,
			provideSEOService,

			handlers.NewGalleryHandler,
			// The gallery handler is both a route handler and a dependency of
			// the SEO and page handlers; register the same instance.
			provideServerHandler(func(galleryHandler *handlers.GalleryHandler) *handlers.GalleryHandler {
				return galleryHandler
			}),
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(handlers.NewUploadHandler),
			provideServerHandler(handlers.NewQuoteHandler),
			provideServerHandler(handlers.NewSEOHandler),
			provideServerHandler(handlers.NewSiteHandler),

			provideServer,
		),
		fx.Invoke(
			startGallery,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideStore(log *slog.Logger, cfg config.Config, runtimeConfig *boot.RuntimeConfig) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "github":
		return githubStore(log, cfg, runtimeConfig)
	case "local", "":
		return localStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (use \"github\" or \"local\")", cfg.Storage.Backend)
	}
}

func githubStore(log *slog.Logger, cfg config.Config, runtimeConfig *boot.RuntimeConfig) (store.Store, error) {
	s, err := githubstore.New(log, cfg.GitHub.Repo, runtimeConfig.GitHubToken, cfg.GitHub.Branch)
	if err != nil {
		return nil, fmt.Errorf("github store: %w", err)
	}
	return s, nil
}

func localStore(cfg config.Config) (store.Store, error) {
	s, err := localstore.New(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	return s, nil
}

func provideAdminService(log *slog.Logger, cfg config.Config, runtimeConfig *boot.RuntimeConfig) (*admin.Service, error) {
	return admin.NewService(log, cfg.Admin.Username, runtimeConfig.AdminPassword)
}

func provideCaptchaVerifier(log *slog.Logger, runtimeConfig *boot.RuntimeConfig) captcha.Verifier {
	return captcha.New(log, runtimeConfig.CaptchaSecret)
}

func provideMailSender(log *slog.Logger, cfg config.Config, runtimeConfig *boot.RuntimeConfig) (mail.Sender, error) {
	switch cfg.Mail.Provider {
	case "mailgun":
		return mail.NewMailgunSender(log, cfg.Mail.Mailgun.Domain, runtimeConfig.MailgunAPIKey)
	case "smtp":
		return mail.NewSMTPSender(log, cfg.Mail.SMTP.Host, cfg.Mail.SMTP.Port, cfg.Mail.SMTP.Username, runtimeConfig.SMTPPassword)
	case "log", "":
		return mail.NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q (use \"mailgun\", \"smtp\" or \"log\")", cfg.Mail.Provider)
	}
}

func provideQuoteService(log *slog.Logger, verifier captcha.Verifier, sender mail.Sender, cfg config.Config) *quote.Service {
	return quote.NewService(log, verifier, sender,
		cfg.Mail.To, cfg.Mail.From, cfg.Mail.FromName,
		cfg.Quote.PerMinute, cfg.Quote.Burst)
}

func provideSiteService(log *slog.Logger, cfg config.Config) (*site.Service, error) {
	return site.NewService(log, site.Info{
		Name:         cfg.Site.Name,
		Tagline:      cfg.Site.Tagline,
		Phone:        cfg.Site.Phone,
		Email:        cfg.Site.Email,
		BaseURL:      cfg.Site.BaseURL,
		ServiceAreas: cfg.Site.ServiceAreas,
	})
}

func provideReviews(log *slog.Logger, cfg config.Config) []site.Review {
	reviews, err := site.LoadReviews(cfg.Site.ReviewsFile)
	if err != nil {
		// A broken reviews file shouldn't keep the site down.
		log.Warn("load reviews", slog.Any("error", err))
		return nil
	}
	return reviews
}

func provideSEOService(log *slog.Logger, cfg config.Config) *seo.Service {
	return seo.NewService(log, cfg.Site.BaseURL, cfg.Site.Name, cfg.Site.Tagline)
}

func provideAuthHandler(log *slog.Logger, adminService *admin.Service, runtimeConfig *boot.RuntimeConfig) *handlers.AuthHandler {
	return handlers.NewAuthHandler(log, adminService, runtimeConfig.JwtSecret, runtimeConfig.JwtExpiresIn)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.RuntimeConfig.ServerAddr, params.RuntimeConfig.JwtSecret, params.ServerHandlers...)
}

func startGallery(lc fx.Lifecycle, galleryHandler *handlers.GalleryHandler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return galleryHandler.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			galleryHandler.Stop()
			return nil
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	shutdowner fx.Shutdowner,
) {
	fmt.Printf("Starting gatesite %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
