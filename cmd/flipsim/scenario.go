package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jihwankim/flipsim/pkg/core/orchestrator"
	"github.com/jihwankim/flipsim/pkg/emergency"
	"github.com/jihwankim/flipsim/pkg/monitor/gdbremote"
	"github.com/jihwankim/flipsim/pkg/reporting"
	"github.com/jihwankim/flipsim/pkg/scenario/parser"
	"github.com/jihwankim/flipsim/pkg/scenario/validator"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Parse, validate, and run declarative YAML scenarios",
}

var scenarioRunCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Execute a scenario YAML file phase by phase against a live guest",
	RunE:  runScenario,
}

func init() {
	scenarioRunCmd.Flags().String("file", "", "path to scenario YAML file")
	scenarioRunCmd.Flags().StringArray("set", []string{}, "override a campaign field (e.g. --set phases.0.campaign.count=50)")
	scenarioRunCmd.Flags().Bool("dry-run", false, "validate the scenario without executing it")
	scenarioRunCmd.Flags().String("format", "text", "console progress/summary format (text, json, tui)")
	scenarioRunCmd.Flags().String("report-file", "", "write the rendered report to this path in addition to console output")
	scenarioRunCmd.Flags().String("report-format", "table", "format for --report-file (text, table, json)")
	scenarioCmd.AddCommand(scenarioRunCmd)
}

func runScenario(cmd *cobra.Command, _ []string) error {
	scenarioPath, _ := cmd.Flags().GetString("file")
	if scenarioPath == "" {
		return fmt.Errorf("--file flag is required")
	}
	setFlags, _ := cmd.Flags().GetStringArray("set")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	outputFormat, _ := cmd.Flags().GetString("format")
	reportFile, _ := cmd.Flags().GetString("report-file")
	reportFormat, _ := cmd.Flags().GetString("report-format")

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

	logger.Info("parsing scenario", "file", scenarioPath)
	p := parser.New(nil)
	sc, err := p.ParseFile(scenarioPath)
	if err != nil {
		return fmt.Errorf("failed to parse scenario: %w", err)
	}

	if len(setFlags) > 0 {
		overrides, err := parser.ParseOverrides(setFlags)
		if err != nil {
			return fmt.Errorf("failed to parse overrides: %w", err)
		}
		if err := parser.ApplyOverrides(sc, overrides); err != nil {
			return fmt.Errorf("failed to apply overrides: %w", err)
		}
		logger.Debug("applied overrides", "count", len(overrides))
	}

	logger.Info("validating scenario")
	v := validator.New()
	result := v.Validate(sc)
	for _, w := range result.Warnings {
		logger.Warn("scenario warning: " + w)
	}
	if !result.OK() {
		for _, e := range result.Errors {
			logger.Error("scenario error: " + e)
		}
		return fmt.Errorf("scenario validation failed with %d error(s)", len(result.Errors))
	}
	logger.Info("scenario validated successfully", "name", sc.Metadata.Name)

	if dryRun {
		fmt.Println("scenario is valid (dry-run mode)")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	emergencyCtrl := emergency.New(emergency.Config{
		StopFile:             cfg.Emergency.StopFile,
		PollInterval:         cfg.Emergency.PollInterval,
		EnableSignalHandlers: false, // signal.NotifyContext already owns SIGINT/SIGTERM here
	})
	emergencyCtrl.Start(ctx)

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Bridge.ConnectTimeout)
	defer cancel()
	bridge, err := gdbremote.Dial(dialCtx, cfg.Bridge.Address)
	if err != nil {
		return fmt.Errorf("scenario: connecting to guest: %w", err)
	}
	defer bridge.Close()

	orch := orchestrator.New(bridge, logger).WithEmergencyController(emergencyCtrl)

	logger.Info("starting scenario execution", "scenario", sc.Metadata.Name)
	report, runErr := orch.Execute(ctx, sc)

	storage, err := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
	if err != nil {
		return fmt.Errorf("failed to create report storage: %w", err)
	}
	if _, saveErr := storage.SaveReport(report); saveErr != nil {
		logger.Warn("failed to save report", "error", saveErr)
	}

	reporting.NewProgressReporter(reporting.OutputFormat(outputFormat), logger).ReportTestCompleted(report)

	if reportFile != "" {
		formatter := reporting.NewFormatter(logger)
		if err := formatter.WriteToFile(report, reporting.ReportFormat(reportFormat), reportFile); err != nil {
			logger.Warn("failed to write report file", "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("scenario execution failed: %w", runErr)
	}
	if !report.Success {
		return fmt.Errorf("scenario did not complete successfully")
	}
	logger.Info("scenario completed successfully")
	return nil
}
