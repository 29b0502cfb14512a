package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arpitjain799/dissect.target/pkg/types"
	"github.com/arpitjain799/dissect.target/registry"
)

var valuesHex bool

func init() {
	cmd := newValuesCmd()
	cmd.Flags().BoolVar(&valuesHex, "hex", false, "Output numeric values as hex")
	rootCmd.AddCommand(cmd)
}

func newValuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "values <target> <path>",
		Short: "List the values of a registry key",
		Long: `The values command lists the decoded values of a registry key on the
target. Records that fail to decode are reported inline and do not stop
the listing.

Example:
  cbreg values cb://workstation@production "HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion"
  cbreg values cb://workstation@production "HKLM\SYSTEM\Select" --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValues(cmd, args)
		},
	}
	return cmd
}

func runValues(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tgt, err := openTarget(ctx, args[0])
	if err != nil {
		return err
	}
	defer tgt.Close(ctx)

	if tgt.Registry == nil {
		return fmt.Errorf("target %s has no registry", tgt.Hostname)
	}

	key, err := tgt.Registry.Key(args[1])
	if err != nil {
		return fmt.Errorf("failed to resolve key: %w", err)
	}

	iter, err := key.Values(ctx)
	if err != nil {
		return fmt.Errorf("failed to list values: %w", err)
	}

	type row struct {
		Name  string `json:"name"`
		Kind  string `json:"kind"`
		Data  string `json:"data,omitempty"`
		Error string `json:"error,omitempty"`
	}
	rows := make([]row, 0, iter.Len())
	for iter.Next() {
		v, err := iter.Value()
		if err != nil {
			rows = append(rows, row{Error: err.Error()})
			continue
		}
		rows = append(rows, row{Name: v.Name(), Kind: v.Kind().String(), Data: formatValue(v, valuesHex)})
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"path":   key.Path(),
			"values": rows,
			"count":  len(rows),
		})
	}

	printInfo("\nValues in %s:\n", key.Path())
	for _, r := range rows {
		if r.Error != "" {
			printInfo("  <undecodable> (%s)\n", r.Error)
			continue
		}
		printInfo("  %-30s %-14s %s\n", r.Name, r.Kind, r.Data)
	}
	printInfo("\nTotal: %d values\n", len(rows))
	return nil
}

// formatValue renders a decoded value for text output.
func formatValue(v registry.Value, asHex bool) string {
	switch v.Kind() {
	case types.KindBinary:
		b, _ := v.Bytes()
		return hex.EncodeToString(b)
	case types.KindDword, types.KindQword:
		n, _ := v.Uint64()
		if asHex {
			return fmt.Sprintf("0x%x", n)
		}
		return strconv.FormatUint(n, 10)
	case types.KindMultiString:
		ss, _ := v.Strings()
		return strings.Join(ss, " | ")
	default:
		s, _ := v.String()
		return s
	}
}
