package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arpitjain799/dissect.target/registry"
)

var treeDepth int

func init() {
	cmd := newTreeCmd()
	cmd.Flags().IntVar(&treeDepth, "depth", 3, "Maximum depth (0 = unlimited)")
	rootCmd.AddCommand(cmd)
}

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <target> <path>",
		Short: "Display a registry subtree",
		Long: `The tree command walks a registry subtree on the target and prints it
as an indented hierarchy. Every key printed costs one remote listing, so
keep the depth small on wide subtrees.

Example:
  cbreg tree cb://workstation@production "HKLM\SOFTWARE\Microsoft" --depth 2
  cbreg tree cb://workstation@production "HKLM\SYSTEM\Select" --depth 1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, args)
		},
	}
	return cmd
}

func runTree(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tgt, err := openTarget(ctx, args[0])
	if err != nil {
		return err
	}
	defer tgt.Close(ctx)

	if tgt.Registry == nil {
		return fmt.Errorf("target %s has no registry", tgt.Hostname)
	}

	root, err := tgt.Registry.Key(args[1])
	if err != nil {
		return fmt.Errorf("failed to resolve key: %w", err)
	}

	if jsonOut {
		type node struct {
			Path  string `json:"path"`
			Depth int    `json:"depth"`
		}
		var nodes []node
		err := registry.Walk(ctx, root, func(k *registry.Key, depth int) error {
			nodes = append(nodes, node{Path: k.Path(), Depth: depth})
			return nil
		}, registry.WithMaxDepth(treeDepth))
		if err != nil {
			return fmt.Errorf("failed to walk tree: %w", err)
		}
		return printJSON(map[string]interface{}{
			"root":  root.Path(),
			"keys":  nodes,
			"count": len(nodes),
		})
	}

	count := 0
	err = registry.Walk(ctx, root, func(k *registry.Key, depth int) error {
		count++
		if depth == 0 {
			printInfo("%s\n", k.Path())
			return nil
		}
		printInfo("%s%s\n", strings.Repeat("  ", depth), k.Name())
		return nil
	}, registry.WithMaxDepth(treeDepth))
	if err != nil {
		return fmt.Errorf("failed to walk tree: %w", err)
	}

	printInfo("\nTotal: %d keys\n", count)
	return nil
}
