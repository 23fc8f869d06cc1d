// root.go - Root command, config file, environment and log setup.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parkitectnexus/assettools/pkg/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app holds the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
}

// usageError marks failures caused by how the command was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "assettools",
		Short: "Inspect and restyle Parkitect blueprints and savegames",
		Long: `assettools reads the data hidden in Parkitect blueprint images and the
entity stream of savegames, dumps a summary of them, and restyles blueprint
images with new artwork and text while keeping the blueprint intact.

Examples:
  assettools blueprint coaster.png
  assettools savegame --format toon park.txt
  assettools blueprint-convert --font "Go Bold" --draw-text "20,440,#FFFFFF,14 My Coaster" -o out.png coaster.png
  assettools serve --addr :8080`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./assettools.yaml or $XDG_CONFIG_HOME/assettools/assettools.yaml)")
	root.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn or error")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(
		a.newBlueprintCmd(),
		a.newSavegameCmd(),
		a.newConvertCmd(),
		a.newServeCmd(),
		a.newInitCmd(),
	)
	return root
}

func (a *app) initConfig(cmd *cobra.Command, args []string) error {
	if err := a.bind(cmd.Root().PersistentFlags(), map[string]string{"log.level": "log-level"}); err != nil {
		return err
	}
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.SetConfigName("assettools")
		a.v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(dir, "assettools"))
		}
	}

	a.useEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return usageError{fmt.Errorf("read config: %w", err)}
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log.level"))); err != nil {
		return usageError{fmt.Errorf("log level: %w", err)}
	}
	pipeline.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	if f := a.v.ConfigFileUsed(); f != "" {
		pipeline.Logger().Info("using config file", "path", f)
	}
	return nil
}

// useEnv lets ASSETTOOLS_<SECTION>_<KEY> override any config key.
func (a *app) useEnv() {
	a.v.SetEnvPrefix("ASSETTOOLS")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()
}

// bind maps config keys to the flags of the running command. It runs from
// the pre-run hooks so commands sharing a key never overwrite each other's
// binding.
func (a *app) bind(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}

// stringList returns the flag's values when it was given, even if empty,
// otherwise the config value at key, otherwise def.
func (a *app) stringList(flags *pflag.FlagSet, name, key string, def []string) []string {
	if f := flags.Lookup(name); f != nil && f.Changed {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			return sv.GetSlice()
		}
	}
	if a.v.IsSet(key) {
		return a.v.GetStringSlice(key)
	}
	return def
}

// drawText returns the --draw-text values when given, otherwise the
// convert.draw_text config list. A plain string, which is what
// ASSETTOOLS_CONVERT_DRAW_TEXT yields, holds one directive per line.
func (a *app) drawText(flags *pflag.FlagSet) []string {
	if f := flags.Lookup("draw-text"); f == nil || !f.Changed {
		if s, ok := a.v.Get("convert.draw_text").(string); ok {
			var lines []string
			for _, line := range strings.Split(s, "\n") {
				if line = strings.TrimRight(strings.TrimLeft(line, " \t"), "\r"); line != "" {
					lines = append(lines, line)
				}
			}
			return lines
		}
	}
	return a.stringList(flags, "draw-text", "convert.draw_text", nil)
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// report returns what is printed for a failed invocation.
func report(err error) string {
	var ue usageError
	if errors.As(err, &ue) {
		return fmt.Sprintf("Error: %v\nRun 'assettools --help' for usage.", ue.err)
	}
	return pipeline.Message(err)
}
