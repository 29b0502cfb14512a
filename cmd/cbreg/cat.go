package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/arpitjain799/dissect.target/internal/wintext"
)

var catText bool

func init() {
	cmd := newCatCmd()
	cmd.Flags().BoolVar(&catText, "text", false, "Decode the file as Windows text (BOM/UTF-16/Windows-1252)")
	rootCmd.AddCommand(cmd)
}

func newCatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <target> <drive> <path>",
		Short: "Print a file from the target",
		Long: `The cat command fetches one file from the target and writes it to
stdout. With --text the content is normalized to UTF-8 first, which
handles the UTF-16 and legacy code-page files common on Windows.

Example:
  cbreg cat cb://workstation@production 'C:\' Windows/System32/drivers/etc/hosts
  cbreg cat cb://workstation@production 'C:\' Users/alice/NTUSER.DAT > ntuser.dat
  cbreg cat cb://workstation@production 'C:\' Windows/setupact.log --text`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(cmd, args)
		},
	}
	return cmd
}

func runCat(cmd *cobra.Command, args []string) error {
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

	data, err := fs.ReadFile(fsys, args[2])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if catText {
		text, err := wintext.Decode(data)
		if err != nil {
			return fmt.Errorf("failed to decode file: %w", err)
		}
		fmt.Fprint(os.Stdout, text)
		return nil
	}

	_, err = os.Stdout.Write(data)
	return err
}
