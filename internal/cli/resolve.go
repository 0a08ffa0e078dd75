package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/portkeeper/internal/config"
	"github.com/shinji-kodama/portkeeper/internal/model"
	"github.com/shinji-kodama/portkeeper/internal/port"
)

// NewResolveCommand creates the "resolve" cobra command, which prints the
// ports a run would reserve without binding anything.
func NewResolveCommand() *cobra.Command {
	var opts config.Options

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the ports the configuration resolves to",
		Long: `Expand the configured ranges and exclusions and print the resulting
ports in reservation order, one per line. Nothing is bound.

Examples:
  portkeeper resolve
  portkeeper resolve --ports 5000-5002,5010 --exclude 5001
  portkeeper resolve --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.OutOrStdout(), opts)
		},
	}

	addSpecFlags(cmd, &opts)
	return cmd
}

// runResolve loads and resolves the specification and prints the result.
func runResolve(out io.Writer, opts config.Options) error {
	spec, ports, err := loadPorts(opts)
	if err != nil {
		return err
	}
	VerboseLog("ports=%q ports.exclude=%q", spec.Include, spec.Exclude)

	printResolveResult(out, ports)
	return nil
}

// loadPorts loads the specification described by opts and resolves it,
// converting failures to CLIErrors.
func loadPorts(opts config.Options) (model.PortSpec, []int, error) {
	spec, err := config.Resolve(opts)
	if err != nil {
		return model.PortSpec{}, nil, specError(err)
	}
	ports, err := port.ResolveSpec(spec)
	if err != nil {
		return model.PortSpec{}, nil, specError(err)
	}
	return spec, ports, nil
}

// printResolveResult outputs the resolved ports in text or JSON format.
func printResolveResult(out io.Writer, ports []int) {
	if IsJSONOutput() {
		printResolveResultJSON(out, ports)
	} else {
		printResolveResultText(out, ports)
	}
}

// printResolveResultJSON outputs the ports, their count and the compact
// range form as a JSON object.
func printResolveResultJSON(out io.Writer, ports []int) {
	result := map[string]interface{}{
		"ports": ports,
		"count": len(ports),
		"spec":  port.FormatRanges(ports),
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(out, string(data))
}

// printResolveResultText outputs one port per line.
func printResolveResultText(out io.Writer, ports []int) {
	for _, p := range ports {
		fmt.Fprintln(out, p)
	}
}
