package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kurihiro0119/msg-ingest/internal/config"
	"github.com/kurihiro0119/msg-ingest/internal/domain"
	"github.com/kurihiro0119/msg-ingest/internal/logging"
	"github.com/kurihiro0119/msg-ingest/internal/runner"
	"github.com/kurihiro0119/msg-ingest/internal/source"
	"github.com/kurihiro0119/msg-ingest/pkg/client"
)

var (
	cfgFile     string
	outputJSON  bool
	endpoint    string
	extension   string
	token       string
	failOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "msg-ingest",
	Short: "Batch ingestion of message files",
	Long: `A CLI tool for submitting a folder of message files to an ingestion service.

Files are uploaded one at a time. A file that fails to upload is reported
and the remaining files are still submitted.`,
}

var ingestCmd = &cobra.Command{
	Use:          "ingest [folder]",
	Short:        "Submit every matching file in a folder",
	Long:         `Select the matching files of a folder and submit them one by one, reporting the issue ID or error of each.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runIngest,
}

var listCmd = &cobra.Command{
	Use:   "list [folder]",
	Short: "List the files that would be submitted",
	Long:  `Show the files of a folder selected for ingestion without submitting them.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the ingestion service",
	Long:  `Check that the ingestion service is reachable and healthy.`,
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "ingestion service base URL (overrides INGEST_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&extension, "ext", "", "file extension to select (overrides FILE_EXTENSION)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (overrides INGEST_TOKEN)")

	ingestCmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit with an error if any file failed")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var files []string
	if cfgFile != "" {
		files = append(files, cfgFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if endpoint != "" {
		cfg.IngestEndpoint = endpoint
	}
	if extension != "" {
		cfg.FileExtension = extension
	}
	if token != "" {
		cfg.IngestToken = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logging.Setup(os.Stderr, cfg.SlogLevel())
	return cfg, nil
}

func newClient(cfg *config.Config) *client.Client {
	return client.NewClient(cfg.IngestEndpoint,
		client.WithTimeout(cfg.IngestTimeout),
		client.WithToken(cfg.IngestToken),
		client.WithRateLimit(cfg.IngestRate),
	)
}

func runList(cmd *cobra.Command, args []string) error {
	folder := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sel, err := source.Select(folder, source.Options{Extension: cfg.FileExtension})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Folder  string   `json:"folder"`
			Files   []string `json:"files"`
			Skipped int      `json:"skipped"`
		}{sel.Folder, sel.Names(), len(sel.Skipped)})
	}

	printSelection(out, sel, cfg.FileExtension)
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	folder := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sel, err := source.Select(folder, source.Options{Extension: cfg.FileExtension})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sel.Files) == 0 {
		if outputJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				domain.BatchResult
				Skipped int `json:"skipped"`
			}{domain.BatchResult{Records: []domain.OutcomeRecord{}}, len(sel.Skipped)})
		}
		fmt.Fprintf(out, "No %s files found in %s (%d other files skipped)\n", cfg.FileExtension, folder, len(sel.Skipped))
		return nil
	}

	if !outputJSON {
		fmt.Fprintf(out, "Ingesting %d files from %s\n", len(sel.Files), sel.Folder)
		if len(sel.Skipped) > 0 {
			fmt.Fprintf(out, "Skipped %d files without the %s extension\n", len(sel.Skipped), cfg.FileExtension)
		}
	}

	total := len(sel.Files)
	r := runner.New(newClient(cfg), runner.WithObserver(func(index int, record domain.OutcomeRecord) {
		if !outputJSON {
			fmt.Fprintf(out, "[%d/%d] %s: %s\n", index+1, total, record.FileName, outcomeDetail(record))
		}
	}))

	result := r.Run(context.Background(), sel.Files)

	if outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "\nIngestion Results:\n")
		renderResults(out, result)
		fmt.Fprintf(out, "\nIngested %d of %d files (%d failed)\n", result.Succeeded(), result.Len(), result.Failed())
	}

	if failOnError && result.Failed() > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", result.Failed(), result.Len())
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := newClient(cfg).HealthCheck(context.Background()); err != nil {
		return fmt.Errorf("ingestion service at %s is unhealthy: %w", cfg.IngestEndpoint, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingestion service at %s is healthy\n", cfg.IngestEndpoint)
	return nil
}
