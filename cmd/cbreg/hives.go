package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newHivesCmd())
}

func newHivesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hives <target>",
		Short: "List the registry hives available on a target",
		Long: `The hives command connects to a target and lists the well-known registry
roots that registered successfully, plus any that were skipped because
the endpoint could not serve them.

Example:
  cbreg hives cb://workstation@production
  cbreg hives cb://10.13.37.5@lab --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHives(cmd, args)
		},
	}
	return cmd
}

func runHives(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tgt, err := openTarget(ctx, args[0])
	if err != nil {
		return err
	}
	defer tgt.Close(ctx)

	if tgt.Registry == nil {
		printInfo("Target %s has no registry (non-Windows endpoint)\n", tgt.Hostname)
		return nil
	}

	hives := tgt.Registry.Hives()
	failed := tgt.Registry.Failed()

	if jsonOut {
		skipped := make([]map[string]string, 0, len(failed))
		for _, f := range failed {
			skipped = append(skipped, map[string]string{
				"hive":  f.Mapping.Name,
				"root":  f.Mapping.Root,
				"error": f.Err.Error(),
			})
		}
		return printJSON(map[string]interface{}{
			"target":  tgt.Hostname,
			"hives":   hives,
			"skipped": skipped,
		})
	}

	printInfo("\nHives on %s:\n", tgt.Hostname)
	for _, name := range hives {
		printInfo("  %s\n", name)
	}
	for _, f := range failed {
		printInfo("  %s (skipped: %v)\n", f.Mapping.Name, f.Err)
	}
	printInfo("\nTotal: %d registered, %d skipped\n", len(hives), len(failed))
	return nil
}
