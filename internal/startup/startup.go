package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"media-compressor/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Discovery modes
const (
	DiscoveryProbe     = "probe"
	DiscoveryExtension = "extension"
)

const (
	defaultMediaDir    = "/mnt/media"
	defaultLedgerPath  = "/mnt/storage/compressedVideos.json"
	defaultPort        = "3000"
	defaultMetricsPort = "9090"
	defaultStaticDir   = "./web/dist"
	defaultStopTimeout = 10 * time.Second
	historyFileName    = "history.db"
)

// Config holds all application configuration
type Config struct {
	MediaDir        string
	LedgerPath      string
	Port            string
	MetricsPort     string
	FFmpegPath      string
	FFprobePath     string
	DiscoveryMode   string
	StopTimeout     time.Duration
	StaticDir       string
	LogStaticFiles  bool
	LogHealthChecks bool
	MetricsEnabled  bool

	// HistoryPath is empty when run history is disabled.
	HistoryPath string

	// Feature flags based on directory availability
	StaticEnabled bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	mediaDir := getEnv("MEDIA_DIR", defaultMediaDir)
	ledgerPath := getEnv("LEDGER_PATH", defaultLedgerPath)
	port := getEnv("PORT", defaultPort)
	metricsPort := getEnv("METRICS_PORT", defaultMetricsPort)
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	ffprobePath := getEnv("FFPROBE_PATH", "ffprobe")
	discoveryMode := strings.ToLower(getEnv("DISCOVERY_MODE", DiscoveryProbe))
	stopTimeoutStr := getEnv("STOP_TIMEOUT", defaultStopTimeout.String())
	staticDir := getEnv("STATIC_DIR", defaultStaticDir)
	historyPath, historySet := os.LookupEnv("HISTORY_DB")
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  MEDIA_DIR:           %s", mediaDir)
	logging.Info("  LEDGER_PATH:         %s", ledgerPath)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  FFMPEG_PATH:         %s", ffmpegPath)
	logging.Info("  FFPROBE_PATH:        %s", ffprobePath)
	logging.Info("  DISCOVERY_MODE:      %s", discoveryMode)
	logging.Info("  STOP_TIMEOUT:        %s", stopTimeoutStr)
	logging.Info("  STATIC_DIR:          %s", staticDir)
	logging.Info("  LOG_STATIC_FILES:    %v", logStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	stopTimeout, err := time.ParseDuration(stopTimeoutStr)
	if err != nil || stopTimeout <= 0 {
		logging.Warn("  Invalid STOP_TIMEOUT, using default: %v", defaultStopTimeout)
		stopTimeout = defaultStopTimeout
	}

	if discoveryMode != DiscoveryProbe && discoveryMode != DiscoveryExtension {
		logging.Warn("  Invalid DISCOVERY_MODE %q, using default: %s", discoveryMode, DiscoveryProbe)
		discoveryMode = DiscoveryProbe
	}

	// Resolve paths
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	mediaDir, err = filepath.Abs(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	logging.Info("  Media directory (absolute): %s", mediaDir)

	ledgerPath, err = filepath.Abs(ledgerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ledger path: %w", err)
	}
	logging.Info("  Ledger document (absolute): %s", ledgerPath)

	// Media directory is mounted by the operator; a missing one only warns
	if err := checkDirectory(mediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}

	ledgerDir := filepath.Dir(ledgerPath)
	if err := ensureDirectory(ledgerDir, "ledger"); err != nil {
		return nil, fmt.Errorf("ledger directory error: %w", err)
	}

	logging.Debug("  Testing ledger directory write access...")
	if err := testWriteAccess(ledgerDir); err != nil {
		return nil, fmt.Errorf("ledger directory is not writable (required for ledger): %w", err)
	}
	logging.Info("  [OK] Ledger directory is writable")

	if !historySet {
		historyPath = filepath.Join(ledgerDir, historyFileName)
	} else if historyPath != "" {
		if historyPath, err = filepath.Abs(historyPath); err != nil {
			return nil, fmt.Errorf("failed to resolve history database path: %w", err)
		}
	}

	config := &Config{
		MediaDir:        mediaDir,
		LedgerPath:      ledgerPath,
		Port:            port,
		MetricsPort:     metricsPort,
		FFmpegPath:      ffmpegPath,
		FFprobePath:     ffprobePath,
		DiscoveryMode:   discoveryMode,
		StopTimeout:     stopTimeout,
		StaticDir:       staticDir,
		LogStaticFiles:  logStaticFiles,
		LogHealthChecks: logHealthChecks,
		MetricsEnabled:  metricsEnabled,
		HistoryPath:     historyPath,
	}

	config.StaticEnabled = staticAvailable(staticDir)

	// Summary
	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Ledger:      ENABLED (required)")
	logging.Info("    History:     %s", enabledString(config.HistoryPath != ""))
	logging.Info("    Web UI:      %s", enabledString(config.StaticEnabled))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func staticAvailable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logging.Debug("  Static directory %s not available, web UI disabled", dir)
		return false
	}
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogLedgerInit logs ledger loading
func LogLedgerInit(path string, entries int, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LEDGER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Loaded %d compressed paths from %s in %v", entries, path, duration)
}

// LogHistoryInit logs run history database initialization
func LogHistoryInit(path string, duration time.Duration) {
	if path == "" {
		logging.Info("  Run history disabled (HISTORY_DB is empty)")
		return
	}
	logging.Info("  [OK] Run history database %s initialized in %v", path, duration)
}

// TranscoderStatus records which transcoder binaries passed their check.
type TranscoderStatus struct {
	FFmpeg  bool
	FFprobe bool
}

// LogTranscoderInit logs transcoder initialization and checks the FFmpeg
// and FFprobe binaries
func LogTranscoderInit(ffmpegPath, ffprobePath, discoveryMode string) TranscoderStatus {
	return logTranscoderInit(ffmpegPath, ffprobePath, discoveryMode, checkBinary)
}

func logTranscoderInit(ffmpegPath, ffprobePath, discoveryMode string, check func(string) error) TranscoderStatus {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	var status TranscoderStatus
	if err := check(ffmpegPath); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Compression runs will fail until FFmpeg is installed")
	} else {
		status.FFmpeg = true
		logging.Info("  [OK] FFmpeg is available")
	}

	if err := check(ffprobePath); err != nil {
		logging.Warn("  FFprobe check failed: %v", err)
		logging.Warn("  Progress percentages are unavailable and outputs are only checked for size")
		if discoveryMode == DiscoveryProbe {
			logging.Warn("  Discovery falls back to the extension allow-list")
		}
	} else {
		status.FFprobe = true
		logging.Info("  [OK] FFprobe is available")
	}

	logging.Info("  Discovery mode: %s", discoveryMode)
	return status
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			// Prefix-only routes such as the static file server
			pathTemplate, err = route.GetPathRegexp()
			if err != nil {
				return nil
			}
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___         ___          ______
   /  |/  /__  ____/ (_)___ _   / ____/___  ____ ___  ____
  / /|_/ / _ \/ __  / / __ '/  / /   / __ \/ __ '__ \/ __ \
 / /  / /  __/ /_/ / / /_/ /  / /___/ /_/ / / / / / / /_/ /
/_/  /_/\___/\__,_/_/\__,_/   \____/\____/_/ /_/ /_/ .___/
                                                  /_/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

// checkDirectory verifies that path is an existing directory without
// creating it.
func checkDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	if logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount, dirCount := 0, 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}
	return nil
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkBinary(binary string) error {
	path, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", binary)
	}
	logging.Debug("  %s path: %s", filepath.Base(binary), path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", filepath.Base(binary), err)
	}

	if line, _, _ := strings.Cut(string(output), "\n"); line != "" {
		logging.Debug("  %s version: %s", filepath.Base(binary), strings.TrimSpace(line))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
