package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tguellec/qcdispatch/infra/logger"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger <dispatch-id>",
	Short: "Fire a single dispatch immediately",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrigger,
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}

func runTrigger(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	log := logger.New("trigger")
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			log.Errorf("service close: %v", cerr)
		}
	}()

	id := args[0]
	found, err := svc.Engine.ManualDispatch(ctx, id)
	if err != nil {
		return fmt.Errorf("trigger dispatch %s: %w", id, err)
	}
	if !found {
		return fmt.Errorf("unknown dispatch id %s", id)
	}
	log.Infof("dispatch %s fired", id)
	return nil
}
