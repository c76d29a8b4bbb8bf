package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jihwankim/flipsim/pkg/fuzz"
	"github.com/jihwankim/flipsim/pkg/monitor/gdbremote"
	"github.com/jihwankim/flipsim/pkg/reporting"
	"github.com/jihwankim/flipsim/pkg/scenario/parser"
	"github.com/jihwankim/flipsim/pkg/timeparse"
)

var fuzzCmd = &cobra.Command{
	Use:   "fuzz",
	Args:  cobra.NoArgs,
	Short: "Run randomized fault-injection rounds against a live guest",
	Long: `Fuzz samples a fresh FaultSpec (kind, bit, inter-injection interval) per
round from near-threshold distributions, applies it to a scenario template,
and runs it through the orchestrator, logging every round to a JSONL file
for reproduction with --seed.`,
	RunE: runFuzz,
}

func init() {
	fuzzCmd.Flags().String("scenario-template", "", "path to the scenario YAML template whose campaign kind/interval fields (and, in targeted phases, bit) fuzz overwrites each round")
	fuzzCmd.Flags().Int("rounds", 10, "number of fuzz rounds")
	fuzzCmd.Flags().String("min-interval", "1ms", "lower bound of the sampled inter-injection interval")
	fuzzCmd.Flags().String("max-interval", "1s", "upper bound of the sampled inter-injection interval")
	fuzzCmd.Flags().Int64("seed", 0, "random seed for reproducibility (0 = auto)")
	fuzzCmd.Flags().Bool("dry-run", false, "print sampled rounds without executing them")
	fuzzCmd.Flags().String("log", "reports/fuzz_log.jsonl", "JSONL run log path")
}

func runFuzz(cmd *cobra.Command, _ []string) error {
	templatePath, _ := cmd.Flags().GetString("scenario-template")
	if templatePath == "" {
		return fmt.Errorf("--scenario-template flag is required")
	}
	rounds, _ := cmd.Flags().GetInt("rounds")
	minIntervalLit, _ := cmd.Flags().GetString("min-interval")
	maxIntervalLit, _ := cmd.Flags().GetString("max-interval")
	seed, _ := cmd.Flags().GetInt64("seed")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	logPath, _ := cmd.Flags().GetString("log")

	minNS, err := timeparse.Parse(minIntervalLit)
	if err != nil {
		return fmt.Errorf("--min-interval: %w", err)
	}
	maxNS, err := timeparse.Parse(maxIntervalLit)
	if err != nil {
		return fmt.Errorf("--max-interval: %w", err)
	}
	if minNS > maxNS {
		return fmt.Errorf("--min-interval must be <= --max-interval")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logLevel := reporting.LogLevelInfo
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Bridge.LogFormat),
		Output: os.Stdout,
	})

	p := parser.New(nil)
	template, err := p.ParseFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to parse scenario template: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fuzzCfg := &fuzz.Config{
		Rounds:        rounds,
		MinIntervalNS: minNS,
		MaxIntervalNS: maxNS,
		Seed:          seed,
		DryRun:        dryRun,
		LogPath:       logPath,
	}

	if dryRun {
		runner := fuzz.NewRunner(fuzzCfg, template, nil, logger)
		return runner.Run(ctx)
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Bridge.ConnectTimeout)
	defer cancel()
	bridge, err := gdbremote.Dial(dialCtx, cfg.Bridge.Address)
	if err != nil {
		return fmt.Errorf("fuzz: connecting to guest: %w", err)
	}
	defer bridge.Close()

	runner := fuzz.NewRunner(fuzzCfg, template, bridge, logger)
	return runner.Run(ctx)
}
