package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/lecternhq/lectern/pkg/config"
	"github.com/lecternhq/lectern/pkg/job"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the Lectern configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  lectern config validate

  # Validate specific config file
  lectern config validate --config /etc/lectern/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	// Load and validate configuration
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Determine path for display
	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	// Additional validation checks
	var warnings []string

	// Storage under the system temp dir does not survive a reboot
	if cfg.Storage.Backend == "fs" && strings.HasPrefix(cfg.Storage.FS.Path, os.TempDir()) {
		warnings = append(warnings, fmt.Sprintf("storage path %s is under the temp directory - sessions will not survive a reboot", cfg.Storage.FS.Path))
	}

	// Telemetry with a zero sample rate exports nothing
	if cfg.Telemetry.Enabled && cfg.Telemetry.SampleRate == 0 {
		warnings = append(warnings, "telemetry is enabled with sample_rate 0 - no traces will be exported")
	}

	// Remote mode with a localhost worker defeats the purpose
	if cfg.Jobs.Mode == job.ModeRemote && strings.Contains(cfg.Jobs.WorkerURL, "localhost") {
		warnings = append(warnings, "jobs mode is remote but worker_url points at localhost")
	}

	// Print results
	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Storage backend: %s\n", cfg.Storage.Backend)
	fmt.Printf("  Jobs mode:       %s\n", cfg.Jobs.Mode)
	fmt.Printf("  OCR model:       %s\n", cfg.OCR.Model)
	fmt.Printf("  API port:        %d\n", cfg.API.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
