// mbsync talks Modbus TCP and RTU as plain blocking calls.
//
// One-shot commands (read, write, rw, call) open a connection from the
// global flags, run a single exchange and print the result. The replicate
// command runs the poll -> mirror -> status daemon from a YAML file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "mbsync",
		Short:         "Blocking Modbus client and register replicator",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	f := rootCmd.PersistentFlags()
	f.StringVarP(&opts.conn.Transport, "transport", "t", "tcp", "transport: tcp or rtu")
	f.StringVarP(&opts.conn.Endpoint, "endpoint", "e", "127.0.0.1:502", "host:port for tcp, serial device for rtu")
	f.Uint8VarP(&opts.conn.UnitID, "unit-id", "u", 1, "Modbus unit (slave) id")
	f.IntVar(&opts.conn.TimeoutMs, "timeout-ms", 0, "response timeout in milliseconds (0 = transport default)")
	f.IntVar(&opts.serial.BaudRate, "baud", 0, "rtu baud rate (0 = 9600)")
	f.IntVar(&opts.serial.DataBits, "data-bits", 0, "rtu data bits (0 = 8)")
	f.StringVar(&opts.serial.Parity, "parity", "", "rtu parity: N, E or O (default N)")
	f.IntVar(&opts.serial.StopBits, "stop-bits", 0, "rtu stop bits (0 = 2 without parity, else 1)")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	f.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		newReadCmd(opts),
		newWriteCmd(opts),
		newRWCmd(opts),
		newCallCmd(opts),
		newReplicateCmd(opts),
	)

	return rootCmd
}
