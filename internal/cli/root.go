package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/knightqmd/scheduler-app/internal/config"
	"github.com/knightqmd/scheduler-app/internal/importer"
	"github.com/knightqmd/scheduler-app/internal/logging"
	"github.com/knightqmd/scheduler-app/internal/service"
)

// Wiring opens the stores and builds the planning service for a resolved
// configuration. The returned func releases whatever was opened.
type Wiring func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.PlanService, func() error, error)

// App holds the services and settings used by CLI commands. Fields left nil
// are filled in by the root command before a subcommand runs: Config from
// flags, environment and config file, Logger from Config.Debug, and Plans
// from Wire.
type App struct {
	Plans  service.PlanService
	Config *config.Config
	Logger *zap.Logger
	Wire   Wiring

	// IsInteractive reports whether stdin is a terminal. nil means never.
	IsInteractive func() bool
	// In is where requests are read from when not interactive. Defaults to os.Stdin.
	In  io.Reader
	Now func() time.Time

	closeFn func() error
}

// Close releases resources opened by Wire. Safe to call more than once.
func (a *App) Close() error {
	if a.closeFn == nil {
		return nil
	}
	fn := a.closeFn
	a.closeFn = nil
	return fn()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) stdin() io.Reader {
	if a.In != nil {
		return a.In
	}
	return os.Stdin
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "weekplan" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "weekplan",
		Short:         "AI 周日程规划助手",
		Long:          "根据自然语言需求，结合已有日程与长期计划，由模型生成并替换本周日程。",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			if err := app.setup(cmd, configFile); err != nil {
				return err
			}
			if cmd.Annotations[annotationNoBootstrap] == "true" {
				return nil
			}
			return app.bootstrap(cmd.Context())
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ./weekplan.yaml or ~/.weekplan/weekplan.yaml)")
	pf.Bool("debug", false, "verbose logging (also SCHEDULER_DEBUG=1)")
	pf.String("db", "", "SQLite database path (default ~/.weekplan/weekplan.db)")

	root.AddCommand(
		newPlanCmd(app),
		newShowCmd(app),
		newLongTermCmd(app),
		newImportCmd(app),
		newExportCmd(app),
		newHistoryCmd(app),
		newServeCmd(app),
	)

	return root
}

// annotationNoBootstrap marks commands that must not seed an empty store.
const annotationNoBootstrap = "weekplan/no-bootstrap"

func (a *App) setup(cmd *cobra.Command, configFile string) error {
	if a.Config == nil {
		v, err := config.NewViper(configFile)
		if err != nil {
			return err
		}
		if err := bindFlags(v, cmd.Root().PersistentFlags()); err != nil {
			return err
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		a.Config = cfg
	}

	if a.Logger == nil {
		logger, err := a.newLogger()
		if err != nil {
			return err
		}
		a.Logger = logger
		a.Logger.Debug("logger initialised", zap.Bool("debug", a.Config.Debug))
	}

	if a.Plans == nil {
		if a.Wire == nil {
			return errors.New("no planning service configured")
		}
		plans, closeFn, err := a.Wire(cmd.Context(), a.Config, a.Logger)
		if err != nil {
			return err
		}
		a.Plans = plans
		a.closeFn = closeFn
	}
	return nil
}

// newLogger keeps a terminal session to warnings and errors unless debug
// is on, so info lines do not land between the spinner and the form.
func (a *App) newLogger() (*zap.Logger, error) {
	if a.interactive() && !a.Config.Debug {
		return logging.Quiet(), nil
	}
	return logging.New(a.Config.Debug)
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"debug": "debug",
	"db":    "db_path",
}

// bindFlags lets explicitly set flags override the config file and
// environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// bootstrap seeds an empty store from the configured schedule file, or the
// demo week when none is configured or it cannot be read.
func (a *App) bootstrap(ctx context.Context) error {
	week, err := a.Plans.Schedule(ctx)
	if err != nil {
		return err
	}
	if !week.IsEmpty() {
		return nil
	}
	seed := importer.LoadExisting(a.Config.ScheduleFile, a.Config.Owner, a.Logger)
	a.Logger.Info("seeding empty schedule", zap.Int("items", seed.ItemCount()))
	return a.Plans.Replace(ctx, seed)
}
