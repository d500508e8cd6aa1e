// Package collectorapp wires the collector daemon's components around
// an embedded PocketBase instance: a thin wrapper embedding
// *pocketbase.PocketBase, with OnServe/OnTerminate hooks starting and
// stopping the daemon's own long-running components instead of
// PocketBase's own web routes.
package collectorapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"telemetry-collector/internal/config"
	"telemetry-collector/internal/handlers/match"
	"telemetry-collector/internal/handlers/player"
	"telemetry-collector/internal/handlers/ranking"
	"telemetry-collector/internal/handlers/weapon"
	"telemetry-collector/internal/ingress"
	"telemetry-collector/internal/logging"
	"telemetry-collector/internal/processor"
	"telemetry-collector/internal/store"
	"telemetry-collector/internal/store/pbstore"
	"telemetry-collector/internal/weaponcatalog"

	_ "telemetry-collector/migrations"
)

// App wraps PocketBase with the collector's own components.
type App struct {
	*pocketbase.PocketBase

	Config *config.Config

	store     *pbstore.Store
	catalog   *weaponcatalog.Catalog
	processor *processor.Processor
	ingress   *ingress.Ingress

	customLogger *slog.Logger
	logCloser    io.Closer

	Version string
}

// Logger returns the daemon's own structured logger, with its
// categorical tag levels, rather than PocketBase's default one.
func (app *App) Logger() *slog.Logger {
	if app.customLogger != nil {
		return app.customLogger
	}
	return app.PocketBase.Logger()
}

// New builds the collector application. Config and logging are loaded
// eagerly so Bootstrap fails fast on a bad environment rather than
// inside PocketBase's own serve loop.
func New(version string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, logCloser := logging.New(cfg.Logging)

	app := &App{
		PocketBase:   pocketbase.New(),
		Config:       cfg,
		Version:      version,
		customLogger: logger,
		logCloser:    logCloser,
	}

	migratecmd.MustRegister(app.PocketBase, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	app.RootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("telemetry-collector version %s\n", app.Version)
		},
	})

	return app, nil
}

// Bootstrap registers the OnServe/OnTerminate hooks that start and
// stop the UDP Ingress alongside PocketBase's own lifecycle.
func (app *App) Bootstrap() error {
	app.OnServe().BindFunc(app.onServe)
	app.OnTerminate().BindFunc(app.onTerminate)
	return nil
}

func (app *App) onServe(e *core.ServeEvent) error {
	logger := app.Logger().With("component", "APP")
	logger.Info("starting telemetry-collector", "version", app.Version)

	app.store = pbstore.New(app.PocketBase)
	app.catalog = weaponcatalog.New(app.store)

	if app.Config.WeaponsPath != "" {
		if err := loadWeaponOverrides(context.Background(), app.store, app.catalog, app.Config.WeaponsPath); err != nil {
			logger.Warn("failed to load weapon overrides", "path", app.Config.WeaponsPath, "error", err)
		}
	}

	handlers := processor.Handlers{
		Player:  player.New(app.store),
		Weapon:  weapon.New(app.store, app.catalog),
		Match:   match.New(app.store),
		Ranking: ranking.New(app.store, app.catalog),
	}

	app.processor = processor.New(app.store, handlers, app.Logger(), app.Config.Game, app.Config.LogBots)
	app.ingress = ingress.New(app.store, app.processor, app.Logger().With("component", "INGRESS"), app.Config.SkipAuth, app.Config.Game)

	if app.Config.ConfigWatch {
		stopWatch, err := config.Watch(app.Logger().With("component", "CONFIG"), func(cfg *config.Config) {
			logger.Info("config file changed, reloaded", "ingressPort", cfg.IngressPort, "game", cfg.Game)
			logger.Warn("config reload does not hot-swap the running ingress/processor; restart to apply ingressPort/game/skipAuth changes")
		})
		if err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		} else {
			app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
				stopWatch()
				return e.Next()
			})
		}
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("ingress panic recovered", "panic", r)
			}
		}()
		if err := app.ingress.Serve(context.Background(), app.Config.IngressPort); err != nil {
			logger.Error("ingress serve exited", "error", err)
		}
	}()

	logger.Info("udp ingress listening", "port", app.Config.IngressPort)

	return e.Next()
}

func (app *App) onTerminate(e *core.TerminateEvent) error {
	if app.ingress != nil {
		app.ingress.Stop()
	}
	if app.logCloser != nil {
		app.logCloser.Close()
	}
	return e.Next()
}

// weaponOverride is one row of the optional weaponsPath YAML file.
type weaponOverride struct {
	Game       string  `yaml:"game"`
	Weapon     string  `yaml:"weapon"`
	Multiplier float64 `yaml:"multiplier"`
}

// loadWeaponOverrides seeds the Store's weapon_modifiers table from a
// YAML file of {game, weapon, multiplier} rows at startup: the
// built-in table is the default, and a Store-backed override beats it
// for every (game, weapon) the file names. The catalog's own
// memoization cache is cleared afterward so freshly seeded overrides
// take effect on the next lookup.
func loadWeaponOverrides(ctx context.Context, s store.Store, catalog *weaponcatalog.Catalog, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var overrides []weaponOverride
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return fmt.Errorf("parse weapon overrides: %w", err)
	}

	for _, o := range overrides {
		if err := s.SetWeaponModifier(ctx, o.Game, o.Weapon, o.Multiplier); err != nil {
			return fmt.Errorf("seed weapon override %s/%s: %w", o.Game, o.Weapon, err)
		}
	}

	catalog.Clear()
	return nil
}
