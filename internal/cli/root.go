// Package cli implements the trace2e command tree: serve runs a node,
// the remaining commands drive a running node's operator surface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trace2e-io/trace2e/internal/naming"
)

var rootCmd = &cobra.Command{
	Use:   "trace2e",
	Short: "Distributed traceability middleware",
	Long: "Per-node middleware that intercepts process I/O, records cross-resource\n" +
		"provenance, and enforces compliance policy locally and across peers.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resourceFlags is the shared way operator commands name a resource:
// exactly one of --file, --stream-local/--stream-peer, or --pid.
type resourceFlags struct {
	file       string
	streamFrom string
	streamTo   string
	pid        int32
}

func (f *resourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "File resource by path")
	cmd.Flags().StringVar(&f.streamFrom, "stream-local", "", "Stream resource: local socket (host:port)")
	cmd.Flags().StringVar(&f.streamTo, "stream-peer", "", "Stream resource: peer socket (host:port)")
	cmd.Flags().Int32Var(&f.pid, "pid", 0, "Process resource by pid")
}

func (f *resourceFlags) resource() (naming.Resource, error) {
	switch {
	case f.file != "" && f.streamFrom == "" && f.pid == 0:
		return naming.NewFile(f.file), nil
	case f.file == "" && f.streamFrom != "" && f.streamTo != "" && f.pid == 0:
		if !naming.ValidSocket(f.streamFrom) || !naming.ValidSocket(f.streamTo) {
			return naming.Resource{}, fmt.Errorf("invalid stream sockets %q, %q", f.streamFrom, f.streamTo)
		}
		return naming.NewStream(f.streamFrom, f.streamTo), nil
	case f.file == "" && f.streamFrom == "" && f.pid != 0:
		return naming.NewProcess(f.pid), nil
	default:
		return naming.Resource{}, fmt.Errorf("name exactly one resource: --file, --stream-local/--stream-peer, or --pid")
	}
}
