package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	getShowType bool
	getHex      bool
)

func init() {
	cmd := newGetCmd()
	cmd.Flags().BoolVar(&getShowType, "type", false, "Show type information")
	cmd.Flags().BoolVar(&getHex, "hex", false, "Output numeric values as hex")
	rootCmd.AddCommand(cmd)
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <target> <path> <name>",
		Short: "Get a specific registry value",
		Long: `The get command retrieves a single named value from a registry key on
the target. The name is matched case-insensitively.

Example:
  cbreg get cb://workstation@production "HKLM\SYSTEM\Select" "Current"
  cbreg get cb://workstation@production "HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion" ProductName --type
  cbreg get cb://workstation@production "HKLM\SYSTEM\CurrentControlSet\Services\BITS" Start --hex`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args)
		},
	}
	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
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

	v, err := key.Value(ctx, args[2])
	if err != nil {
		return fmt.Errorf("failed to get value: %w", err)
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"path": key.Path(),
			"name": v.Name(),
			"kind": v.Kind().String(),
			"data": formatValue(v, getHex),
		})
	}

	if getShowType {
		printInfo("%s (%s) = %s\n", v.Name(), v.Kind(), formatValue(v, getHex))
	} else {
		printInfo("%s\n", formatValue(v, getHex))
	}
	return nil
}
