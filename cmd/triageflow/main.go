package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/zen-systems/triageflow/pkg/backend"
	"github.com/zen-systems/triageflow/pkg/config"
	"github.com/zen-systems/triageflow/pkg/metrics"
	"github.com/zen-systems/triageflow/pkg/report"
	"github.com/zen-systems/triageflow/pkg/telemetry"
	"github.com/zen-systems/triageflow/pkg/triage"
)

var (
	configFile  string
	backendFlag string
	verboseFlag bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "triageflow",
		Short: "Schema-typed support ticket triage pipeline",
		Long: `Triageflow classifies support tickets through three typed decision
	stages (sentiment, priority, routing) and aggregates batch metrics.
	The decision logic behind each stage is a swappable backend: a static
	default table, a heuristic rule set, or a hosted model.`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "decision backend (static, rules, anthropic, openai, google)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(stagesCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(metricsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var outPath string
	var workers int
	var failFast bool

	cmd := &cobra.Command{
		Use:   "run [batch file]",
		Short: "Process a batch of tickets and report metrics",
		Long: `Runs every ticket in the batch file through the three-stage pipeline,
	prints the consolidated outcomes, writes the results document, and
	prints batch metrics.

	A single ticket's failure does not abort the batch unless --fail-fast
	is set; failed tickets are listed and excluded from metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			decisionBackend, err := createBackend(cfg, logger)
			if err != nil {
				return err
			}

			batch, err := triage.LoadBatch(args[0])
			if err != nil {
				return err
			}

			collector := telemetry.NewCollector(prometheus.DefaultRegisterer)
			runner := triage.NewRunner(
				triage.NewPipeline(decisionBackend, triage.WithLogger(logger)),
				triage.WithWorkers(workers),
				triage.WithFailFast(failFast),
				triage.WithRunnerLogger(logger),
				triage.WithCollector(collector),
			)

			result, err := runner.Run(cmd.Context(), batch.Tickets)
			if err != nil {
				return err
			}

			printer := report.NewPrinter(os.Stdout)
			completed := result.Completed()
			printer.PrintOutcomes(completed)
			printer.PrintFailures(result.Failures)

			batchMetrics, err := metrics.Compute(completed)
			if err != nil {
				return fmt.Errorf("no completed tickets to aggregate: %w", err)
			}
			printer.PrintMetrics(batchMetrics)

			doc := report.NewDocument(decisionBackend.Name(), completed, batchMetrics)
			if err := doc.Write(outPath); err != nil {
				return fmt.Errorf("failed to write results: %w", err)
			}
			fmt.Printf("\nresults written to %s (run %s)\n", outPath, doc.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "results.json", "path for the results document")
	cmd.Flags().IntVar(&workers, "workers", 1, "number of tickets to process in parallel")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "abort the batch on the first ticket failure")
	return cmd
}

func stagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the pipeline stages, their schemas, and policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := stageDescriptions()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tINPUT FIELDS\tOUTPUT FIELDS")
			for _, stage := range pipeline {
				fmt.Fprintf(w, "%s\t%v\t%v\n", stage.name, stage.inputs, stage.outputs)
			}
			w.Flush()

			for _, stage := range pipeline {
				fmt.Printf("\n--- %s policy ---\n%s\n", stage.name, stage.policy)
			}
			return nil
		},
	}
}

type stageDescription struct {
	name    string
	inputs  []string
	outputs []string
	policy  string
}

func stageDescriptions() []stageDescription {
	b := backend.NewStaticBackend(nil)
	sentiment := triage.NewSentimentStage(b, nil)
	priority := triage.NewPriorityStage(b, nil)
	routing := triage.NewRoutingStage(b, nil)

	return []stageDescription{
		{sentiment.Name(), sentiment.InputSchema().FieldNames(), sentiment.OutputSchema().FieldNames(), sentiment.Policy()},
		{priority.Name(), priority.InputSchema().FieldNames(), priority.OutputSchema().FieldNames(), priority.Policy()},
		{routing.Name(), routing.InputSchema().FieldNames(), routing.OutputSchema().FieldNames(), routing.Policy()},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [batch file]",
		Short: "Validate a batch file against the ticket schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := triage.LoadBatch(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d ticket(s) valid\n", args[0], len(batch.Tickets))
			return nil
		},
	}
}

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics [results file]",
		Short: "Recompute batch metrics from a saved results document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := report.Load(args[0])
			if err != nil {
				return err
			}

			batchMetrics, err := metrics.Compute(doc.Results)
			if err != nil {
				return err
			}
			report.NewPrinter(os.Stdout).PrintMetrics(batchMetrics)
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load()
}

// createBackend builds the decision backend named by the --backend flag or
// the config file.
func createBackend(cfg *config.Config, logger *slog.Logger) (backend.Backend, error) {
	name := backendFlag
	if name == "" {
		name = cfg.Backend
	}

	if !cfg.HasBackend(name) {
		return nil, fmt.Errorf("backend %q not available (missing API key?)", name)
	}

	switch name {
	case config.BackendStatic:
		return backend.NewStaticBackend(cfg.StaticDefaults), nil
	case config.BackendRules:
		return backend.NewRuleBackend(), nil
	case config.BackendAnthropic:
		client, err := backend.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return newModelBackend(client, cfg, logger), nil
	case config.BackendOpenAI:
		client, err := backend.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return newModelBackend(client, cfg, logger), nil
	case config.BackendGoogle:
		client, err := backend.NewGoogleClient(cfg.GoogleAPIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return newModelBackend(client, cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

func newModelBackend(client backend.ModelClient, cfg *config.Config, logger *slog.Logger) backend.Backend {
	return backend.NewModelBackend(client,
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithMaxRetries(cfg.MaxRetries),
		backend.WithLogger(logger),
	)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
