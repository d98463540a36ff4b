// Package app assembles the till from its parts.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/admin"
	"github.com/appetiteclub/till/internal/api"
	"github.com/appetiteclub/till/internal/archive"
	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/menu"
	"github.com/appetiteclub/till/internal/notify"
	"github.com/appetiteclub/till/internal/order"
	"github.com/appetiteclub/till/internal/remote"
	"github.com/appetiteclub/till/internal/seeding"
	"github.com/appetiteclub/till/internal/settings"
	"github.com/appetiteclub/till/internal/shift"
	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/internal/syncer"
	"github.com/appetiteclub/till/pkg"
	"github.com/appetiteclub/till/pkg/event"
	"github.com/appetiteclub/till/pkg/platform"
)

const (
	AppName    = "till"
	AppVersion = "0.1.0"
)

// App encapsulates the till service.
type App struct {
	config *platform.Config
	logger platform.Logger
	server *platform.Server

	kv     storage.KV
	store  *ledger.Store
	shifts *shift.Manager
	engine *order.Engine
	menu   *menu.Catalog
}

func New(config *platform.Config, logger platform.Logger) (*App, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	return &App{
		config: config,
		logger: logger,
	}, nil
}

// Initialize builds every component and the lifecycle that starts them.
// Nothing connects until Run.
func (a *App) Initialize(ctx context.Context) error {
	cfg := a.config
	loc := clock.LoadLocation(cfg.GetStringOrDef("till.timezone", "Asia/Bangkok"))
	clk := clock.New(loc)

	kv, kvHooks, err := NewBackend(cfg, a.logger)
	if err != nil {
		return err
	}
	a.kv = kv

	publisher, subscriber, eventHooks, err := a.initEvents(ctx)
	if err != nil {
		return err
	}

	store := ledger.NewStore(kv, clk, a.logger)
	a.store = store

	var dayArchive api.OrderArchive
	var archiveHooks platform.LifecycleHooks
	if cfg.GetBool("archive.enabled") {
		ga := archive.NewGormArchive(cfg.GetStringOrDef("db.postgres.url", ""), a.logger)
		store.SetArchiver(ga)
		dayArchive = ga
		archiveHooks = platform.LifecycleHooks{OnStart: ga.Start, OnStop: ga.Stop}
	}

	remoteClient := remote.NewClient(
		cfg.GetStringOrDef("remote.endpoint", ""),
		cfg.GetDurationOrDef("remote.timeout", 15*time.Second),
		a.logger,
	)

	a.shifts = shift.NewManager(store, shift.NewHistory(kv, a.logger), clk, shift.Options{
		MaxPerDay: cfg.GetIntOrDef("shift.limit", shift.DefaultMaxPerDay),
		Publisher: publisher,
	}, a.logger)

	vatRate := decimal.NewFromFloat(cfg.GetFloat64OrDef("tax.rate", order.DefaultVatRate.InexactFloat64()))
	a.engine = order.NewEngine(store, clk, order.Options{
		VatRate:   &vatRate,
		Publisher: publisher,
	}, a.logger)

	reconciler := syncer.NewReconciler(store, remoteClient, clk, syncer.Options{
		Interval:    cfg.GetDurationOrDef("sync.interval", syncer.DefaultInterval),
		Concurrency: cfg.GetIntOrDef("sync.concurrency", syncer.DefaultConcurrency),
		Publisher:   publisher,
	}, a.logger)
	a.engine.SetSync(reconciler)

	a.menu = menu.NewCatalog(kv, remoteClient, clk, cfg.GetDurationOrDef("menu.cache.ttl", menu.DefaultCacheTTL), store, a.logger)

	cart := order.NewCart(false)
	shopSettings := settings.NewService(kv, a.logger)
	shopSettings.OnChange(func(s settings.ShopSettings) {
		cart.SetVatDefault(s.IsVatDefaultEnabled)
		if len(cart.Lines()) == 0 {
			cart.SetVat(s.IsVatDefaultEnabled)
		}
	})

	guard := admin.NewGuard(kv, clk, cfg.GetDurationOrDef("admin.session.ttl", admin.DefaultSessionTTL), a.logger)
	center := notify.NewCenter(clk, cfg.GetDurationOrDef("notify.ttl", notify.DefaultTTL), a.logger)

	handler := api.NewHandler(api.Deps{
		Store:    store,
		Engine:   a.engine,
		Cart:     cart,
		Shifts:   a.shifts,
		Sync:     reconciler,
		Menu:     a.menu,
		Settings: shopSettings,
		Guard:    guard,
		Notify:   center,
		Archive:  dayArchive,
		Location: loc,
	}, a.logger)

	ledgerHooks := platform.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			if err := store.InitializeForToday(ctx); err != nil {
				return err
			}
			shopSettings.Load(ctx)
			if err := a.menu.Load(ctx, false); err != nil {
				a.logger.Info("menu unavailable at start", "error", err)
				center.Push(notify.Warning, "Menu could not be loaded, check the connection")
			}
			return nil
		},
	}

	lifecycles := []platform.LifecycleHooks{kvHooks, eventHooks, archiveHooks, ledgerHooks}

	if subscriber != nil {
		kitchenSub := order.NewKitchenCommandSubscriber(subscriber, a.engine, a.logger)
		lifecycles = append(lifecycles, platform.LifecycleHooks{OnStart: kitchenSub.Start})
	}

	if cfg.GetBool("seeding.demo") {
		a.logger.Info("demo seeding enabled")
		lifecycles = append(lifecycles, platform.LifecycleHooks{
			OnStart: func(ctx context.Context) error {
				_, err := seeding.SeedDemoDay(ctx, seeding.Deps{
					KV:     kv,
					Store:  store,
					Shifts: a.shifts,
					Engine: a.engine,
					Menu:   a.menu.Items(),
				}, a.logger)
				if err != nil {
					a.logger.Error("demo seeding failed (non-fatal)", "error", err)
				}
				return nil
			},
		})
	}

	lifecycles = append(lifecycles, platform.LifecycleHooks{OnStart: reconciler.Start, OnStop: reconciler.Stop})

	a.server = platform.NewServer(platform.ServerOptions{
		Name:        AppName,
		Addr:        cfg.GetStringOrDef("web.port", ":8080"),
		CORSOrigins: splitList(cfg.GetStringOrDef("web.cors.origins", "*")),
		Logger:      a.logger,
		Modules:     []platform.RouteRegistrar{handler},
		Lifecycles:  lifecycles,
	})
	return nil
}

// initEvents connects to NATS when enabled. Ledger events go through a
// JetStream stream when nats.stream.enabled is set.
func (a *App) initEvents(ctx context.Context) (platform.Publisher, platform.Subscriber, platform.LifecycleHooks, error) {
	if !a.config.GetBool("nats.enabled") {
		return nil, nil, platform.LifecycleHooks{}, nil
	}

	conn, err := pkg.ConnectNATS(a.config.GetStringOrDef("nats.url", nats.DefaultURL), AppName, a.logger)
	if err != nil {
		return nil, nil, platform.LifecycleHooks{}, err
	}

	var publisher platform.Publisher
	if a.config.GetBool("nats.stream.enabled") {
		stream, err := pkg.NewNATSStream(ctx, conn, pkg.NATSStreamConfig{Topic: event.LedgerTopic}, a.logger)
		if err != nil {
			conn.Close()
			return nil, nil, platform.LifecycleHooks{}, err
		}
		publisher = stream
	} else {
		publisher = pkg.NewNATSPublisher(conn)
	}

	subscriber := pkg.NewNATSSubscriber(conn, a.logger)
	hooks := platform.LifecycleHooks{
		OnStop: func(context.Context) error {
			_ = subscriber.Close()
			return conn.Drain()
		},
	}

	a.logger.Info("NATS events enabled", "url", conn.ConnectedUrl())
	return publisher, subscriber, hooks, nil
}

// Run starts the lifecycle and serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.server == nil {
		return errors.New("app not initialized")
	}
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.server.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}

// Router exposes the HTTP routes, mainly for tests.
func (a *App) Router() chi.Router {
	if a.server == nil {
		return nil
	}
	return a.server.Router()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
