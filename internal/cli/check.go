package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/portkeeper/internal/config"
	"github.com/shinji-kodama/portkeeper/internal/docker"
	"github.com/shinji-kodama/portkeeper/internal/port"
)

// NewCheckCommand creates the "check" cobra command, which reports which
// configured ports are free right now.
func NewCheckCommand() *cobra.Command {
	var opts config.Options
	var withDocker bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report which configured ports are free",
		Long: `Probe every configured port once and report whether it could be
reserved right now. Ports are released immediately after probing.

With --docker, busy ports published by a running container are attributed
to that container.

Examples:
  portkeeper check
  portkeeper check --ports 5432,6379 --docker
  portkeeper check --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), opts, withDocker)
		},
	}

	addSpecFlags(cmd, &opts)
	cmd.Flags().BoolVar(&withDocker, "docker", false, "Name containers that publish busy ports")

	return cmd
}

// runCheck scans the configured ports and prints their availability.
func runCheck(ctx context.Context, out io.Writer, opts config.Options, withDocker bool) error {
	_, ports, err := loadPorts(opts)
	if err != nil {
		return err
	}

	result := port.NewScanner().Scan(ports)

	if withDocker {
		if err := attributeOwners(ctx, result); err != nil {
			return err
		}
	}

	printCheckResult(out, result)
	return nil
}

// attributeOwners fills in Owner for busy ports published by a running
// container.
func attributeOwners(ctx context.Context, result []port.Availability) error {
	var busy []int
	for _, a := range result {
		if !a.Free {
			busy = append(busy, a.Port)
		}
	}
	if len(busy) == 0 {
		return nil
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon")

	owners, err := docker.PublishedPortOwners(ctx, cli, busy)
	if err != nil {
		return err
	}
	for i := range result {
		if owner, ok := owners[result[i].Port]; ok {
			result[i].Owner = owner
		}
	}
	return nil
}

// printCheckResult outputs the scan in text or JSON format.
func printCheckResult(out io.Writer, result []port.Availability) {
	if IsJSONOutput() {
		printCheckResultJSON(out, result)
	} else {
		printCheckResultText(out, result)
	}
}

// printCheckResultJSON outputs the scan as a JSON array.
func printCheckResultJSON(out io.Writer, result []port.Availability) {
	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(out, string(data))
}

// printCheckResultText outputs an aligned table followed by a summary
// line.
func printCheckResultText(out io.Writer, result []port.Availability) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PORT\tSTATUS\tDETAIL")

	free := 0
	for _, a := range result {
		status := "in use"
		if a.Free {
			status = "free"
			free++
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", a.Port, status, availabilityDetail(a))
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "\n%d of %d port(s) free\n", free, len(result))
}

// availabilityDetail returns the owner (when known) or the bind error for
// a busy port, "-" otherwise.
func availabilityDetail(a port.Availability) string {
	switch {
	case a.Free:
		return "-"
	case a.Owner != "":
		return "published by " + a.Owner
	case a.Reason != "":
		return a.Reason
	default:
		return "-"
	}
}
