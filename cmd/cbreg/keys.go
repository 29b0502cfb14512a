package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newKeysCmd())
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys <target> <path>",
		Short: "List subkeys at a registry path",
		Long: `The keys command lists the direct subkeys of a registry key on the
target. Paths may start with a logical hive name or a full root path.

Example:
  cbreg keys cb://workstation@production "HKLM\SOFTWARE"
  cbreg keys cb://workstation@production "HKEY_LOCAL_MACHINE\SYSTEM\ControlSet001" --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(cmd, args)
		},
	}
	return cmd
}

func runKeys(cmd *cobra.Command, args []string) error {
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

	iter, err := key.Subkeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	names := make([]string, 0, iter.Len())
	for iter.Next() {
		names = append(names, iter.Key().Name())
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"path":  key.Path(),
			"keys":  names,
			"count": len(names),
		})
	}

	printInfo("\nKeys in %s:\n", key.Path())
	for _, name := range names {
		printInfo("  %s\n", name)
	}
	printInfo("\nTotal: %d keys\n", len(names))
	return nil
}
