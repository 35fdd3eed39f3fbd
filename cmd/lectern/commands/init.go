package commands

import (
	"fmt"
	"os"

	"github.com/lecternhq/lectern/internal/cli/prompt"
	"github.com/lecternhq/lectern/pkg/config"
	"github.com/lecternhq/lectern/pkg/job"
	"github.com/spf13/cobra"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a configuration file",
	Long: `Initialize a Lectern configuration file.

By default, a commented sample configuration is created at
$XDG_CONFIG_HOME/lectern/config.yaml. Use --config to specify a custom
path, or --interactive to be prompted for the essential settings.

Examples:
  # Initialize with default location
  lectern init

  # Initialize with custom path
  lectern init --config /etc/lectern/config.yaml

  # Walk through the essential settings
  lectern init --interactive

  # Force overwrite existing config
  lectern init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Prompt for storage backend, job mode and ports")
}

func runInit(cmd *cobra.Command, args []string) error {
	if initInteractive {
		return runInitInteractive()
	}

	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		// Use custom path
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		// Use default path
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	printInitNextSteps(configPath)
	return nil
}

// runInitInteractive walks through the settings that actually vary between
// deployments and writes the resulting configuration. Everything not asked
// keeps its default.
func runInitInteractive() error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		overwrite, err := prompt.Confirm(fmt.Sprintf("Configuration file already exists at %s. Overwrite", configPath), false)
		if err != nil {
			return abortOr(err)
		}
		if !overwrite {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := config.GetDefaultConfig()

	// Storage backend
	backend, err := prompt.Select("Storage backend", []prompt.SelectOption{
		{Label: "Filesystem (local disk)", Value: "fs", Description: "Sessions stored under a local directory"},
		{Label: "S3-compatible object store", Value: "s3", Description: "AWS S3, MinIO or Localstack"},
	})
	if err != nil {
		return abortOr(err)
	}
	cfg.Storage.Backend = backend

	switch backend {
	case "fs":
		path, err := prompt.Input("Storage path", config.DefaultStoragePath)
		if err != nil {
			return abortOr(err)
		}
		cfg.Storage.FS.Path = path

	case "s3":
		bucket, err := prompt.InputWithValidation("S3 bucket", func(s string) error {
			if s == "" {
				return fmt.Errorf("bucket is required for the s3 backend")
			}
			return nil
		})
		if err != nil {
			return abortOr(err)
		}
		cfg.Storage.S3.Bucket = bucket

		region, err := prompt.Input("S3 region", "us-east-1")
		if err != nil {
			return abortOr(err)
		}
		cfg.Storage.S3.Region = region

		endpoint, err := prompt.Input("S3 endpoint (leave empty for AWS)", "")
		if err != nil {
			return abortOr(err)
		}
		cfg.Storage.S3.Endpoint = endpoint
		if endpoint != "" {
			// MinIO and Localstack want path-style addressing.
			pathStyle, err := prompt.Confirm("Use path-style addressing", true)
			if err != nil {
				return abortOr(err)
			}
			cfg.Storage.S3.ForcePathStyle = pathStyle
		}

		accessKey, err := prompt.Input("Access key ID (leave empty for the SDK credential chain)", "")
		if err != nil {
			return abortOr(err)
		}
		cfg.Storage.S3.AccessKeyID = accessKey
		if accessKey != "" {
			secretKey, err := prompt.InputWithValidation("Secret access key", func(s string) error {
				if s == "" {
					return fmt.Errorf("secret access key is required when an access key ID is set")
				}
				return nil
			})
			if err != nil {
				return abortOr(err)
			}
			cfg.Storage.S3.SecretAccessKey = secretKey
		}
	}

	// Job execution mode
	mode, err := prompt.Select("Job mode", []prompt.SelectOption{
		{Label: "local - process jobs in this server", Value: job.ModeLocal, Description: "Single deployment; rendering and OCR run in-process"},
		{Label: "remote - dispatch jobs to a worker deployment", Value: job.ModeRemote, Description: "This server only accepts work; a worker URL processes it"},
	})
	if err != nil {
		return abortOr(err)
	}
	cfg.Jobs.Mode = mode

	switch mode {
	case job.ModeLocal:
		workers, err := prompt.InputInt("Local job workers (0 = number of CPUs)", 0)
		if err != nil {
			return abortOr(err)
		}
		cfg.Jobs.Workers = workers

	case job.ModeRemote:
		workerURL, err := prompt.InputWithValidation("Worker URL", func(s string) error {
			if s == "" {
				return fmt.Errorf("worker URL is required in remote mode")
			}
			return nil
		})
		if err != nil {
			return abortOr(err)
		}
		cfg.Jobs.WorkerURL = workerURL
	}

	// Ports
	apiPort, err := prompt.InputPort("API port", cfg.API.Port)
	if err != nil {
		return abortOr(err)
	}
	cfg.API.Port = apiPort

	metricsEnabled, err := prompt.Confirm("Enable Prometheus metrics", false)
	if err != nil {
		return abortOr(err)
	}
	cfg.Metrics.Enabled = metricsEnabled
	if metricsEnabled {
		metricsPort, err := prompt.InputPort("Metrics port", 9090)
		if err != nil {
			return abortOr(err)
		}
		cfg.Metrics.Port = metricsPort
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("resulting configuration is invalid: %w", err)
	}

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Println()
	printInitNextSteps(configPath)
	return nil
}

// abortOr maps a Ctrl+C during prompting to a clean exit.
func abortOr(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("Aborted.")
		return nil
	}
	return err
}

func printInitNextSteps(configPath string) {
	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: lectern start")
	fmt.Printf("  3. Or specify custom config: lectern start --config %s\n", configPath)
	fmt.Println("\nAny setting can be overridden with LECTERN_* environment variables,")
	fmt.Println("e.g. LECTERN_LOGGING_LEVEL=DEBUG or LECTERN_STORAGE_S3_BUCKET=my-bucket.")
}
