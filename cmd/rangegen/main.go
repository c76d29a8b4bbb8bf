// Command rangegen is the host-side pagemap walker (spec.md §4.J): it
// resolves a process (by name, by cmdline keyword, or by container) to its
// descendant set, walks their virtual memory, and prints the merged
// physical-page intervals consumed by the shell's appinject command.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jihwankim/flipsim/pkg/discovery/docker"
	"github.com/jihwankim/flipsim/pkg/pagemap"
)

var (
	cmdlineKeyword string
	containerName  string
	anonOnly       bool
)

var rootCmd = &cobra.Command{
	Use:   "rangegen <comm>",
	Short: "Print merged physical-page ranges backing a running process tree",
	Long: `rangegen resolves one or more target processes, expands to every
descendant, and walks each one's /proc/<pid>/maps and /proc/<pid>/pagemap to
print the physical address ranges they currently occupy, in the
0xHEX-0xHEX range-file format consumed by the shell's appinject command.

Must run as root: reading another process's pagemap requires it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&cmdlineKeyword, "f", "f", "", "match processes by a substring of their full command line (the <comm> argument uses the same matcher, which accepts an exact comm match or a command-line substring)")
	rootCmd.Flags().StringVar(&containerName, "container", "", "resolve the root PID from a Docker container name or ID instead of a local process")
	rootCmd.Flags().BoolVar(&anonOnly, "anon-only", false, "restrict to anonymous readable-writable-private ranges (workload heap/stack)")
}

func run(cmd *cobra.Command, args []string) error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("rangegen: must run as root")
	}

	mode := pagemap.ModeReadable
	if anonOnly {
		mode = pagemap.ModeAnonymousPrivate
	}

	var roots []int32

	switch {
	case containerName != "":
		cli, err := docker.New()
		if err != nil {
			return fmt.Errorf("rangegen: %w", err)
		}
		defer cli.Close()
		pid, err := cli.ContainerPID(context.Background(), containerName)
		if err != nil {
			return fmt.Errorf("rangegen: %w", err)
		}
		roots = []int32{pid}

	case cmdlineKeyword != "":
		selfPID := int32(os.Getpid())
		pids, err := pagemap.ResolvePIDs(cmdlineKeyword, selfPID, os.Args[0])
		if err != nil {
			return fmt.Errorf("rangegen: %w", err)
		}
		roots = pids

	case len(args) == 1:
		selfPID := int32(os.Getpid())
		pids, err := pagemap.ResolvePIDs(args[0], selfPID, os.Args[0])
		if err != nil {
			return fmt.Errorf("rangegen: %w", err)
		}
		roots = pids

	default:
		return fmt.Errorf("rangegen: usage: rangegen <comm> | rangegen -f <keyword_in_cmdline> | rangegen --container NAME")
	}

	if len(roots) == 0 {
		return fmt.Errorf("rangegen: no matching process found")
	}

	allPIDs, err := pagemap.ExpandDescendants(roots)
	if err != nil {
		return fmt.Errorf("rangegen: %w", err)
	}

	var allPhys []uint64
	for _, pid := range allPIDs {
		phys, err := pagemap.WalkPID(pid, mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rangegen: skipping pid %d: %v\n", pid, err)
			continue
		}
		allPhys = append(allPhys, phys...)
	}

	for _, iv := range pagemap.MergeIntervals(allPhys) {
		fmt.Printf("0x%016x-0x%016x\n", iv.Start, iv.End)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
