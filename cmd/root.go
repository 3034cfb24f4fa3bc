// Package cmd wires the command line: configuration, logging and the
// compute pipeline.
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/maastricht-university/calltimeline/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

type rootOptions struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCmd builds the command tree around a fresh viper instance.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{v: config.New()}
	root := &cobra.Command{
		Use:          "calltimeline",
		Short:        "Timing, turn-taking and balance metrics for call transcripts",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&o.cfgFile, "config", "", "config file (default: config/$CONFIG_ENV/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	_ = o.v.BindPFlag("pipeline.log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newComputeCmd(o), newMetricsCmd(), newVersionCmd())
	return root
}

// Execute runs the CLI until done or interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *rootOptions) load() (*config.Root, error) {
	return config.Load(o.v, o.cfgFile)
}

func newLogger(c *config.Root, w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	if lvl, err := logrus.ParseLevel(c.Pipeline.LogLvl); err == nil {
		l.SetLevel(lvl)
	}
	if c.Pipeline.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}
