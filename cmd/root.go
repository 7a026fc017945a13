// Package cmd wires the command line entry points of the dispatch service.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tguellec/qcdispatch/app"
	"github.com/tguellec/qcdispatch/config"
	"github.com/tguellec/qcdispatch/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "qcdispatch",
	Short:        "QC test dispatch scheduling service",
	Long:         "Scans active dispatch descriptors on a fixed tick, fans eligible ones out into per-personnel QC tasks and notifies the assignees.",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// newService loads the configuration and assembles the service around it.
func newService() (*app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	log := logger.New("serve")
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			log.Errorf("service close: %v", cerr)
		}
	}()
	log.Infof("dispatch service starting")
	return svc.Run(ctx)
}
