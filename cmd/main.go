// file: cmd/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dkoosis/spotignition/cmd/server"
	"github.com/dkoosis/spotignition/internal/config"
	"github.com/dkoosis/spotignition/internal/logging"
	"github.com/dkoosis/spotignition/internal/spotify"
	"github.com/joho/godotenv"
)

// Version information, set during build via ldflags.
var (
	Version    = "0.1.0-dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

// Global debugging flag.
var debugMode bool

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// A missing .env is normal; variables may come from the host instead.
	_ = godotenv.Load()

	switch os.Args[1] {
	case "setup":
		setupCmd := flag.NewFlagSet("setup", flag.ExitOnError)
		setupConfigPath := setupCmd.String("config", config.DefaultConfigPath(), "Path to configuration file.")
		setupDebug := setupCmd.Bool("debug", false, "Print extra setup details.")
		if err := setupCmd.Parse(os.Args[2:]); err != nil {
			log.Fatalf("Failed to parse setup command flags: %+v", err)
		}
		debugMode = *setupDebug

		if err := runSetup(*setupConfigPath); err != nil {
			log.Fatalf("Setup failed: %+v", err)
		}

	case "serve":
		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		serveConfigPath := serveCmd.String("config", config.DefaultConfigPath(), "Path to configuration file.")
		requestTimeout := serveCmd.Duration("request-timeout", 0, "Timeout for a single JSON-RPC request (overrides config).")
		shutdownTimeout := serveCmd.Duration("shutdown-timeout", 0, "Timeout for graceful shutdown (overrides config).")
		market := serveCmd.String("market", "", "ISO 3166-1 alpha-2 market code (overrides config).")
		logLevel := serveCmd.String("log-level", "", "Log level: debug, info, warn or error (overrides config).")
		debug := serveCmd.Bool("debug", false, "Enable debug logging.")
		if err := serveCmd.Parse(os.Args[2:]); err != nil {
			log.Fatalf("Failed to parse serve command flags: %+v", err)
		}
		debugMode = *debug

		level := logging.LevelInfo
		if debugMode {
			level = logging.LevelDebug
		}
		logging.SetupDefaultLogger(level)

		overrides := server.Overrides{
			RequestTimeout:  *requestTimeout,
			ShutdownTimeout: *shutdownTimeout,
			Market:          *market,
			LogLevel:        *logLevel,
			Debug:           debugMode,
		}
		if err := server.RunServer(*serveConfigPath, Version, overrides); err != nil {
			logging.GetLogger("main").Error("Server failed.", "error", fmt.Sprintf("%+v", err))
			os.Exit(1)
		}

	case "diagnose-keychain":
		diagnoseCmd := flag.NewFlagSet("diagnose-keychain", flag.ExitOnError)
		diagnoseConfigPath := diagnoseCmd.String("config", config.DefaultConfigPath(), "Path to configuration file (used for the client ID).")
		if err := diagnoseCmd.Parse(os.Args[2:]); err != nil {
			log.Fatalf("Failed to parse diagnose-keychain command flags: %+v", err)
		}
		if !runKeychainDiagnostics(*diagnoseConfigPath) {
			os.Exit(1)
		}

	case "version":
		fmt.Printf("spotignition %s (commit %s, built %s)\n", Version, commitHash, buildDate)

	default:
		printUsage()
		os.Exit(1)
	}
}

// printUsage prints usage information for the command.
func printUsage() {
	log.Println("Usage:")
	log.Println("  spotignition setup [options]             - Write a default config and register with Claude Desktop")
	log.Println("  spotignition serve [options]             - Start the MCP server on stdio")
	log.Println("  spotignition diagnose-keychain [options] - Test keychain access used for token caching")
	log.Println("  spotignition version                     - Print version information")
	log.Println("\nRun 'spotignition <command> -h' for help on a specific command.")
}

// runKeychainDiagnostics tests keychain operations and prints troubleshooting advice.
// It reports whether the keychain is usable.
func runKeychainDiagnostics(configPath string) bool {
	logging.SetupDefaultLogger(logging.LevelDebug)
	logger := logging.GetLogger("keychain_diag")
	logger.Info("Starting keychain diagnostics.")

	clientID := "diagnostic"
	if cfg, err := config.Load(configPath); err != nil {
		logger.Warn("Could not load configuration, using a placeholder client ID.", "error", err)
	} else if cfg.Spotify.ClientID != "" {
		clientID = cfg.Spotify.ClientID
	}

	secureStorage := spotify.NewSecureTokenStorage(clientID, logger)

	fmt.Println("\n=== Keychain Diagnostics ===")
	fmt.Printf("Keyring Service: %s\n", spotify.KeyringService)
	fmt.Printf("Keyring Account: %s\n", secureStorage.Account())

	fmt.Println("\nAvailability check:")
	available := secureStorage.IsAvailable()
	fmt.Printf("Keychain reported as available: %t\n", available)

	fmt.Println("\nRunning keychain operations test:")
	results := secureStorage.DiagnoseKeychain()
	fmt.Printf("%-18s: %v\n", "Set Operation", results["set_success"])
	if err, ok := results["set_error"]; ok {
		fmt.Printf("%-18s: %v\n", "Set Error", err)
	}
	fmt.Printf("%-18s: %v\n", "Get Operation", results["get_success"])
	if err, ok := results["get_error"]; ok {
		fmt.Printf("%-18s: %v\n", "Get Error", err)
	}
	if match, ok := results["value_matches"]; ok {
		fmt.Printf("%-18s: %v\n", "Get Value Match", match)
	}
	fmt.Printf("%-18s: %v\n", "Delete Operation", results["delete_success"])
	if err, ok := results["delete_error"]; ok {
		fmt.Printf("%-18s: %v\n", "Delete Error", err)
	}

	fmt.Println("\nRecommendations:")
	advice := spotify.KeychainAdvice(results)
	if available && len(advice) == 0 {
		fmt.Println("Keychain appears to be working correctly. Access tokens will be cached there.")
		return true
	}
	for i, line := range advice {
		fmt.Printf("%d. %s\n", i+1, line)
	}
	if !available && len(advice) == 0 {
		fmt.Println("1. The keychain could not be read. Tokens will be cached in the file at auth.token_path instead.")
	}
	return false
}
