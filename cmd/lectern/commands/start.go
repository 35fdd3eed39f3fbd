package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lecternhq/lectern/internal/logger"
	"github.com/lecternhq/lectern/internal/telemetry"
	"github.com/lecternhq/lectern/pkg/api"
	"github.com/lecternhq/lectern/pkg/config"
	"github.com/lecternhq/lectern/pkg/job"
	"github.com/lecternhq/lectern/pkg/metrics"
	"github.com/lecternhq/lectern/pkg/ocr"
	"github.com/lecternhq/lectern/pkg/render"
	"github.com/lecternhq/lectern/pkg/session"
	"github.com/lecternhq/lectern/pkg/upload"
	"github.com/spf13/cobra"

	// Import prometheus metrics to register init() functions
	_ "github.com/lecternhq/lectern/pkg/metrics/prometheus"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Lectern server",
	Long: `Start the Lectern server with the specified configuration.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/lectern/config.yaml.

Examples:
  # Start in background (default)
  lectern start

  # Start in foreground
  lectern start --foreground

  # Start with custom config file
  lectern start --config /etc/lectern/config.yaml

  # Start with environment variable overrides
  LECTERN_LOGGING_LEVEL=DEBUG lectern start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/lectern/lectern.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/lectern/lectern.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	// Handle daemon mode (background)
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// The API server is the only ingress for uploads, job creation and
	// worker callbacks; a server without it has nothing to do.
	if !cfg.API.IsEnabled() {
		return errors.New("api.enabled is false; the server has nothing to serve (remove the override or set api.enabled: true)")
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "lectern",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "lectern",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	fmt.Println("Lectern - Document OCR pipeline")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Initialize metrics (if enabled). Must happen before component
	// construction so the metrics factories see the registry.
	metricsServer := config.InitializeMetrics(cfg)

	// Storage gateway: every durable byte goes through it
	gateway, err := config.CreateGateway(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = gateway.Close() }()
	logger.Info("Storage initialized", "backend", cfg.Storage.Backend)

	// Pipeline components, wired bottom-up
	sessions := session.NewStore(gateway)
	manager := job.NewManager(sessions, cfg.Jobs.ManagerConfig(), metrics.NewJobMetrics())
	assembler := upload.NewAssembler(gateway, sessions, manager, cfg.Upload.AssemblerConfig(), metrics.NewUploadMetrics())
	renderer := render.New(cfg.Extract.RenderConfig())

	model := ocr.NewClient(cfg.OCR.ClientConfig())
	worker := ocr.NewWorker(ocr.WorkerConfig{
		Model:       model,
		LoadTimeout: cfg.OCR.LoadTimeout,
		EagerLoad:   cfg.OCR.EagerLoadEnabled(cfg.Jobs.Mode),
		Metrics:     metrics.NewOCRMetrics(),
	})

	// The processor binds itself to the manager as its runner.
	job.NewProcessor(manager, gateway, sessions, renderer, worker, cfg.ProcessorConfig())
	logger.Info("Job pipeline ready",
		"mode", cfg.Jobs.Mode,
		"model", cfg.OCR.Model,
		"endpoint", cfg.OCR.Endpoint,
		"eager_load", cfg.OCR.EagerLoadEnabled(cfg.Jobs.Mode))

	apiServer := api.NewServer(cfg.API, api.Dependencies{
		Gateway:  gateway,
		Uploads:  assembler,
		Sessions: sessions,
		Jobs:     manager,
		Worker:   worker,
		Version:  Version,
	})

	// Write PID file if specified
	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	if metricsServer != nil {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error", logger.Err(err))
			}
		}()
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Start API server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	var serveErr error
	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for server to shut down gracefully
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.Err(err))
			serveErr = err
		}

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", logger.Err(err))
			serveErr = err
		}
	}

	// Let in-flight local jobs finish within the shutdown budget before
	// the storage gateway closes.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer drainCancel()
	if err := manager.Drain(drainCtx); err != nil {
		logger.Warn("Job drain incomplete, abandoning in-flight jobs", logger.Err(err))
	}

	if serveErr != nil {
		return serveErr
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// isProcessRunning reads a PID from the given file and checks whether that
// process is still alive. Returns the PID and true if running, or 0 and
// false otherwise.
func isProcessRunning(pidPath string) (int, bool) {
	pidData, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, false
	}

	var pid int
	if _, err := fmt.Sscanf(string(pidData), "%d", &pid); err != nil {
		return 0, false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}

	if err := process.Signal(syscall.Signal(0)); err != nil {
		return 0, false
	}

	return pid, true
}

// startDaemon starts the server as a background daemon process.
func startDaemon() error {
	stateDir := GetDefaultStateDir()
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Set default PID file if not specified
	pidPath := pidFile
	if pidPath == "" {
		pidPath = filepath.Join(stateDir, "lectern.pid")
	}

	if pid, running := isProcessRunning(pidPath); running {
		return fmt.Errorf("Lectern is already running (PID %d)\nUse 'lectern stop' to stop the running instance", pid)
	}
	// Stale PID file, remove it
	_ = os.Remove(pidPath)

	// Set default log file if not specified
	logPath := logFile
	if logPath == "" {
		logPath = filepath.Join(stateDir, "lectern.log")
	}

	// Get the executable path
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	// Build arguments for the daemon process
	daemonArgs := []string{"start", "--foreground", "--pid-file", pidPath}
	if GetConfigFile() != "" {
		daemonArgs = append(daemonArgs, "--config", GetConfigFile())
	}

	// Create the daemon process
	cmd := exec.Command(executable, daemonArgs...)

	// Open log file for stdout/stderr
	logFileHandle, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	cmd.Stdout = logFileHandle
	cmd.Stderr = logFileHandle

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	// Start the daemon
	if err := cmd.Start(); err != nil {
		_ = logFileHandle.Close()
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	_ = logFileHandle.Close()

	fmt.Printf("Lectern started in background (PID %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", logPath)
	fmt.Println("\nUse 'lectern stop' to stop the server")
	fmt.Println("Use 'lectern status' to check server status")

	return nil
}
