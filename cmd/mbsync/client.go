package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-sync/internal/bridge"
	"github.com/tamzrod/modbus-sync/internal/frame"
)

type bitRow struct {
	Address uint16 `json:"address"`
	Value   bool   `json:"value"`
}

type registerRow struct {
	Address uint16 `json:"address"`
	Value   uint16 `json:"value"`
}

func bitRows(addr uint16, bits []bool) []bitRow {
	rows := make([]bitRow, len(bits))
	for i, b := range bits {
		rows[i] = bitRow{Address: addr + uint16(i), Value: b}
	}
	return rows
}

func registerRows(addr uint16, regs []uint16) []registerRow {
	rows := make([]registerRow, len(regs))
	for i, r := range regs {
		rows[i] = registerRow{Address: addr + uint16(i), Value: r}
	}
	return rows
}

func (o *globalOptions) printBits(w io.Writer, addr uint16, bits []bool) error {
	rows := bitRows(addr, bits)
	return o.print(w, rows, func(w io.Writer) {
		for _, r := range rows {
			v := 0
			if r.Value {
				v = 1
			}
			fmt.Fprintf(w, "%5d  %d\n", r.Address, v)
		}
	})
}

func (o *globalOptions) printRegisters(w io.Writer, addr uint16, regs []uint16) error {
	rows := registerRows(addr, regs)
	return o.print(w, rows, func(w io.Writer) {
		for _, r := range rows {
			fmt.Fprintf(w, "%5d  %5d  0x%04X\n", r.Address, r.Value, r.Value)
		}
	})
}

// newReadCmd creates the read command and its per-table subcommands.
func newReadCmd(o *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read coils, discrete inputs or registers",
	}

	bitReads := []struct {
		use, short string
		read       func(c *bridge.Client, addr, cnt uint16) ([]bool, error)
	}{
		{"coils", "Read coils (FC 1)", (*bridge.Client).ReadCoils},
		{"discrete", "Read discrete inputs (FC 2)", (*bridge.Client).ReadDiscreteInputs},
	}
	for _, r := range bitReads {
		r := r // per-iteration copy; go.mod targets go 1.21 loop semantics
		cmd.AddCommand(&cobra.Command{
			Use:   r.use + " <address> <count>",
			Short: r.short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, cnt, err := parseRange(args[0], args[1])
				if err != nil {
					return err
				}
				return o.withClient(func(c *bridge.Client) error {
					bits, err := r.read(c, addr, cnt)
					if err != nil {
						return err
					}
					return o.printBits(cmd.OutOrStdout(), addr, bits)
				})
			},
		})
	}

	regReads := []struct {
		use, short string
		read       func(c *bridge.Client, addr, cnt uint16) ([]uint16, error)
	}{
		{"holding", "Read holding registers (FC 3)", (*bridge.Client).ReadHoldingRegisters},
		{"input", "Read input registers (FC 4)", (*bridge.Client).ReadInputRegisters},
	}
	for _, r := range regReads {
		r := r // per-iteration copy; go.mod targets go 1.21 loop semantics
		cmd.AddCommand(&cobra.Command{
			Use:   r.use + " <address> <count>",
			Short: r.short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, cnt, err := parseRange(args[0], args[1])
				if err != nil {
					return err
				}
				return o.withClient(func(c *bridge.Client) error {
					regs, err := r.read(c, addr, cnt)
					if err != nil {
						return err
					}
					return o.printRegisters(cmd.OutOrStdout(), addr, regs)
				})
			},
		})
	}

	return cmd
}

// newWriteCmd creates the write command and its subcommands.
func newWriteCmd(o *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write coils or holding registers",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "coil <address> <0|1>",
			Short: "Write a single coil (FC 5)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := parseUint16(args[0])
				if err != nil {
					return err
				}
				v, err := parseCoil(args[1])
				if err != nil {
					return err
				}
				return o.withClient(func(c *bridge.Client) error {
					return c.WriteSingleCoil(addr, v)
				})
			},
		},
		&cobra.Command{
			Use:   "coils <address> <0|1>...",
			Short: "Write multiple coils (FC 15)",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := parseUint16(args[0])
				if err != nil {
					return err
				}
				coils, err := parseCoils(args[1:])
				if err != nil {
					return err
				}
				return o.withClient(func(c *bridge.Client) error {
					return c.WriteMultipleCoils(addr, coils)
				})
			},
		},
		&cobra.Command{
			Use:   "register <address> <value>",
			Short: "Write a single holding register (FC 6)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := parseUint16(args[0])
				if err != nil {
					return err
				}
				v, err := parseUint16(args[1])
				if err != nil {
					return err
				}
				return o.withClient(func(c *bridge.Client) error {
					return c.WriteSingleRegister(addr, v)
				})
			},
		},
		&cobra.Command{
			Use:   "registers <address> <value>...",
			Short: "Write multiple holding registers (FC 16)",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := parseUint16(args[0])
				if err != nil {
					return err
				}
				regs, err := parseWords(args[1:])
				if err != nil {
					return err
				}
				return o.withClient(func(c *bridge.Client) error {
					return c.WriteMultipleRegisters(addr, regs)
				})
			},
		},
	)

	return cmd
}

// newRWCmd creates the combined read/write command.
func newRWCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rw <read-address> <read-count> <write-address> <value>...",
		Short: "Write then read holding registers in one exchange (FC 23)",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			readAddr, readCnt, err := parseRange(args[0], args[1])
			if err != nil {
				return err
			}
			writeAddr, err := parseUint16(args[2])
			if err != nil {
				return err
			}
			regs, err := parseWords(args[3:])
			if err != nil {
				return err
			}
			return o.withClient(func(c *bridge.Client) error {
				got, err := c.ReadWriteMultipleRegisters(readAddr, readCnt, writeAddr, regs)
				if err != nil {
					return err
				}
				return o.printRegisters(cmd.OutOrStdout(), readAddr, got)
			})
		},
	}
}

type callResult struct {
	Function string `json:"function"`
	Data     string `json:"data"`
}

// newCallCmd creates the raw request command.
func newCallCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "call <function-code> [hex-data]",
		Short: "Send a raw request PDU and print the response",
		Example: `  mbsync call 3 00000002     # read 2 holding registers at 0
  mbsync call 0x11            # report server id`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := parseFunctionCode(args[0])
			if err != nil {
				return err
			}
			var data []byte
			if len(args) == 2 {
				if data, err = parseHex(args[1]); err != nil {
					return err
				}
			}
			return o.withClient(func(c *bridge.Client) error {
				resp, err := c.Call(frame.Request{Function: fc, Data: data})
				if err != nil {
					return err
				}
				res := callResult{Function: resp.Function.String(), Data: hex.EncodeToString(resp.Data)}
				return o.print(cmd.OutOrStdout(), res, func(w io.Writer) {
					fmt.Fprintf(w, "%s % X\n", res.Function, resp.Data)
				})
			})
		},
	}
}
