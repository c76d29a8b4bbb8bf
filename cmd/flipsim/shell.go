package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jihwankim/flipsim/internal/shell"
	"github.com/jihwankim/flipsim/pkg/monitor/gdbremote"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Args:  cobra.NoArgs,
	Short: "Open an interactive debugger shell against a live guest",
	Long: `Dials the guest's GDB-remote endpoint and opens a REPL exposing the ten
fault-injection commands (listram, listreg, stop_delayed, inject, inject_reg,
loginject, autoinject, snapinject, loop, appinject).`,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().String("connect", "", "guest GDB-remote address (overrides config bridge.address)")
	shellCmd.Flags().Int64("seed", 0, "RNG seed for this session (0 = time-seeded)")
	shellCmd.Flags().String("history", "", "path to persist command history across sessions")
}

func runShell(cmd *cobra.Command, _ []string) error {
	connect, _ := cmd.Flags().GetString("connect")
	seed, _ := cmd.Flags().GetInt64("seed")
	historyPath, _ := cmd.Flags().GetString("history")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	addr := cfg.Bridge.Address
	if connect != "" {
		addr = connect
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Bridge.ConnectTimeout)
	defer cancel()

	fmt.Printf("connecting to %s ...\n", addr)
	bridge, err := gdbremote.Dial(dialCtx, addr)
	if err != nil {
		return fmt.Errorf("shell: %w", err)
	}
	defer bridge.Close()
	fmt.Println("connected.")

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	session := shell.NewSession(bridge, seed)
	registry := shell.NewRegistry()
	repl := shell.NewREPL(registry, session, historyPath)

	return repl.Run(ctx)
}
