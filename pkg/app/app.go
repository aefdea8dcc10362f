// Package app provides the cobra/viper scaffolding shared by the Astrolink
// binaries: flag registration, optional config-file loading, option
// validation and signal-aware execution.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/astrolink-io/astrolink/pkg/log"
)

// RunFunc is the application's run callback. The context is cancelled on
// SIGINT/SIGTERM.
type RunFunc func(ctx context.Context) error

// CliOptions abstracts the option struct an application binds to its flags.
type CliOptions interface {
	// AddFlags registers the options' flags on the command's FlagSet.
	AddFlags(fs *pflag.FlagSet)

	// Complete fills in defaults that depend on other options.
	Complete() error

	// Validate checks the final option values.
	Validate() error
}

// App assembles a runnable command-line application.
type App struct {
	name        string
	short       string
	description string
	options     CliOptions
	runFunc     RunFunc
	logOptions  *log.Options

	configFile string
	cmd        *cobra.Command
}

// Option configures an App.
type Option func(*App)

// WithDescription sets the long description of the application.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithOptions binds a CliOptions implementation to the application.
func WithOptions(opts CliOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the application's run callback.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithLogOptions wires the log options so the global logger is initialized
// before the run callback fires.
func WithLogOptions(opts *log.Options) Option {
	return func(a *App) { a.logOptions = opts }
}

// NewApp creates an application with the given name and short description.
func NewApp(name, short string, opts ...Option) *App {
	a := &App{
		name:  name,
		short: short,
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.short,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          a.runE,
	}

	cmd.Flags().StringVarP(&a.configFile, "config", "c", "", "Path to an optional YAML configuration file.")

	if a.options != nil {
		a.options.AddFlags(cmd.Flags())
	}

	a.cmd = cmd
}

// Command exposes the underlying cobra command, mainly for subcommand reuse.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the application and exits non-zero on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *App) runE(cmd *cobra.Command, args []string) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}

	if a.options != nil {
		if err := a.options.Complete(); err != nil {
			return fmt.Errorf("failed to complete options: %w", err)
		}
		if err := a.options.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}

	if a.logOptions != nil {
		log.Init(a.logOptions)
	}

	if a.runFunc == nil {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting application", "name", a.name)
	return a.runFunc(ctx)
}

// loadConfig overlays values from an optional config file and the environment
// onto any flag not set explicitly on the command line.
func (a *App) loadConfig(cmd *cobra.Command) error {
	v := viper.New()

	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", a.configFile, err)
		}
	}

	v.SetEnvPrefix(strings.ReplaceAll(strings.ToUpper(a.name), "-", "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			bindErr = err
			return
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				bindErr = fmt.Errorf("failed to apply config value for --%s: %w", f.Name, err)
			}
		}
	})

	return bindErr
}
