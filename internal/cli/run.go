package cli

import (
	"context"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/portkeeper/internal/config"
	"github.com/shinji-kodama/portkeeper/internal/console"
	"github.com/shinji-kodama/portkeeper/internal/keeper"
	"github.com/shinji-kodama/portkeeper/internal/port"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	spec     config.Options
	interval time.Duration
	noColor  bool
}

// NewRunCommand creates the "run" cobra command.
func NewRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reserve the configured ports until interrupted",
		Long: `Bind every configured port that is free and hold it open. Busy ports
are retried every interval until they are freed. Ctrl-C (SIGINT) or
SIGTERM releases everything and exits.

Each change is printed as one line:
  + <port>           port bound
  - <port>           port released
  E <port> : <why>   initial bind failed (retried silently)

Examples:
  portkeeper run
  portkeeper run --config /etc/portkeeper.properties
  portkeeper run --ports 5000-5010 --exclude 5005`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeeper(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	addSpecFlags(cmd, &opts.spec)
	cmd.Flags().DurationVar(&opts.interval, "interval", keeper.DefaultRetryInterval, "Wait between retries of busy ports")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")

	return cmd
}

// runKeeper reserves the configured ports and blocks until a termination
// signal arrives or ctx is cancelled, then releases everything.
//
// A configuration or specification error returns before any port is
// bound.
func runKeeper(ctx context.Context, out, errOut io.Writer, opts runOptions) error {
	sink := console.New(out, errOut, !opts.noColor && !color.NoColor)
	manager := port.NewManager(sink)
	ctrl := keeper.New(manager,
		keeper.WithInterval(opts.interval),
		keeper.WithLogger(VerboseLog),
	)

	// The handler is wired before Start so a signal during the first pass
	// still releases what was bound.
	signals := keeper.NewSignalHandler()
	defer signals.Stop()
	signals.OnShutdown(ctrl.Stop)

	if err := ctrl.Start(config.Source(opts.spec)); err != nil {
		return specError(err)
	}
	VerboseLog("holding %d port(s), %d pending", len(manager.Bound()), len(manager.Pending()))

	select {
	case <-ctx.Done():
		VerboseLog("context cancelled, releasing ports")
		signals.Shutdown()
	case <-signals.Done():
		VerboseLog("signal received, releasing ports")
	}

	// A signal runs Stop on the handler's goroutine, which may still be
	// releasing when Done is closed.
	<-ctrl.Done()
	VerboseLog("all ports released")
	return nil
}
