package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fedestu/RPA-Challenge/config"
	"github.com/fedestu/RPA-Challenge/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds what every subcommand shares once the configuration is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string
	debug   bool
	out     io.Writer

	cfg *config.Config
	log logger.Logger
}

// Execute runs the root command until it returns or the process receives
// SIGINT or SIGTERM.
func Execute() error {
	// .env never overrides variables already set in the environment
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCommand(os.Stdout).ExecuteContext(ctx)
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{v: config.NewViper(), out: out}

	root := &cobra.Command{
		Use:   "newsreport",
		Short: "Collect news search results into an Excel report",
		Long: `newsreport searches a news site for a phrase, optionally narrows the
results to one category, and writes every article published in the requested
number of months to news_data_<date>.xlsx, downloading each article image.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default is ./newsreport.yaml or ./config/newsreport.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newCollectCommand(a),
		newReportCommand(a),
		newHistoryCommand(a),
		newServeCommand(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return nil
			},
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "newsreport version %s\n", version)
			},
		},
	)

	return root
}

// setup reads the config file, loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.ReadFile(a.v, a.cfgFile); err != nil {
		return err
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.cfg = cfg
	a.log = log.With(logger.String("command", cmd.Name()))
	return nil
}

// bindFlags binds each named flag of cmd to its configuration key so flags
// take precedence over every other source.
func (a *app) bindFlags(cmd *cobra.Command, keys map[string]string) {
	for name, key := range keys {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}
