package main

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLsCmd())
}

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <target> <drive> [path]",
		Short: "List a directory on the target",
		Long: `The ls command lists a directory of one of the target's drives. The
path uses forward slashes regardless of the endpoint OS; omit it to list
the drive root.

Example:
  cbreg ls cb://workstation@production 'C:\'
  cbreg ls cb://workstation@production 'C:\' Windows/System32
  cbreg ls cb://server@production / etc`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(cmd, args)
		},
	}
	return cmd
}

// targetFS resolves a drive argument against the target's mounts,
// case-insensitively.
func targetFS(filesystems map[string]fs.FS, drive string) (fs.FS, error) {
	if fsys, ok := filesystems[strings.ToLower(drive)]; ok {
		return fsys, nil
	}
	mounts := make([]string, 0, len(filesystems))
	for m := range filesystems {
		mounts = append(mounts, m)
	}
	return nil, fmt.Errorf("no drive %q on target (have %s)", drive, strings.Join(mounts, ", "))
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tgt, err := openTarget(ctx, args[0])
	if err != nil {
		return err
	}
	defer tgt.Close(ctx)

	fsys, err := targetFS(tgt.Filesystems, args[1])
	if err != nil {
		return err
	}

	dir := "."
	if len(args) > 2 {
		dir = args[2]
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to list directory: %w", err)
	}

	if jsonOut {
		type row struct {
			Name string `json:"name"`
			Dir  bool   `json:"dir"`
			Size int64  `json:"size"`
		}
		rows := make([]row, 0, len(entries))
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", e.Name(), err)
			}
			rows = append(rows, row{Name: e.Name(), Dir: e.IsDir(), Size: info.Size()})
		}
		return printJSON(map[string]interface{}{
			"drive":   args[1],
			"path":    dir,
			"entries": rows,
			"count":   len(rows),
		})
	}

	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", e.Name(), err)
		}
		marker := " "
		if e.IsDir() {
			marker = "/"
		}
		printInfo("%10d  %s%s\n", info.Size(), e.Name(), marker)
	}
	printInfo("\nTotal: %d entries\n", len(entries))
	return nil
}
