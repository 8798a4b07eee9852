// file: cmd/claude_desktop_registration.go
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/config"
)

// serverKey is the entry name under mcpServers in Claude Desktop's configuration.
const serverKey = "spotignition"

// MCPServerConfig represents a server configuration in Claude Desktop.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// spotifyCredentials are the values prompted for during setup.
type spotifyCredentials struct {
	ClientID     string
	ClientSecret string
	Market       string
}

// runSetup writes a default configuration if none exists and registers the
// server with Claude Desktop.
func runSetup(configPath string) error {
	exePath, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "failed to get executable path")
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return errors.Wrap(err, "failed to get absolute executable path")
	}
	if debugMode {
		log.Printf("Using executable path: %s", exePath)
	}

	creds, err := promptForSpotifyCredentials(os.Stdin, os.Stdout)
	if err != nil {
		return errors.Wrap(err, "failed to get Spotify credentials")
	}

	if err := createDefaultConfig(configPath, creds.Market); err != nil {
		return errors.Wrap(err, "failed to create default configuration")
	}

	claudeConfigPath := getClaudeConfigPath()
	if err := configureClaudeDesktop(claudeConfigPath, exePath, configPath, creds); err != nil {
		fmt.Printf("Warning: Failed to configure Claude Desktop automatically: %v\n", err)
		fmt.Println("You'll need to configure Claude Desktop manually.")
		printManualSetupInstructions(exePath, configPath)
	}

	fmt.Println("Spotignition setup complete.")
	fmt.Println("Next steps:")
	fmt.Println("1. Restart Claude Desktop so it picks up the new server")
	fmt.Println("2. Ask Claude to look up a Spotify track by its ID")
	return nil
}

// promptForSpotifyCredentials reads the client ID, secret and optional market from in.
func promptForSpotifyCredentials(in io.Reader, out io.Writer) (spotifyCredentials, error) {
	reader := bufio.NewReader(in)
	read := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	var creds spotifyCredentials
	var err error
	if creds.ClientID, err = read("Enter Spotify Client ID: "); err != nil {
		return creds, errors.Wrap(err, "failed to read client ID")
	}
	if creds.ClientSecret, err = read("Enter Spotify Client Secret: "); err != nil {
		return creds, errors.Wrap(err, "failed to read client secret")
	}
	if creds.Market, err = read("Enter market code (optional, e.g. US): "); err != nil {
		return creds, errors.Wrap(err, "failed to read market")
	}
	creds.Market = strings.ToUpper(creds.Market)

	if creds.ClientID == "" || creds.ClientSecret == "" {
		return creds, errors.New("client ID and client secret cannot be empty")
	}
	return creds, nil
}

// createDefaultConfig writes a default configuration file unless one exists.
// Credentials are not written here; Claude Desktop passes them as environment variables.
func createDefaultConfig(configPath, market string) error {
	expanded, err := config.ExpandPath(configPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		fmt.Printf("Configuration file already exists at %s\n", expanded)
		return nil
	}

	fmt.Printf("Creating default configuration at %s\n", expanded)
	cfg := config.DefaultConfig()
	cfg.Spotify.ClientID = ""
	cfg.Spotify.ClientSecret = ""
	cfg.Spotify.Market = market
	return config.Save(cfg, expanded)
}

// configureClaudeDesktop adds or replaces the spotignition entry in the
// Claude Desktop configuration at claudeConfigPath. Other keys and server
// entries are preserved.
func configureClaudeDesktop(claudeConfigPath, exePath, configPath string, creds spotifyCredentials) error {
	if debugMode {
		log.Printf("Claude Desktop config path: %s", claudeConfigPath)
	}

	entry := MCPServerConfig{
		Command: exePath,
		Args:    []string{"serve", "--config", configPath},
		Env: map[string]string{
			"SPOTIFY_CLIENT_ID":     creds.ClientID,
			"SPOTIFY_CLIENT_SECRET": creds.ClientSecret,
		},
	}
	if creds.Market != "" {
		entry.Env["SPOTIFY_MARKET"] = creds.Market
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to marshal server entry")
	}

	doc := map[string]json.RawMessage{}
	// #nosec G304 -- Path is determined based on OS, not user input.
	if data, err := os.ReadFile(claudeConfigPath); err == nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			if debugMode {
				log.Printf("Failed to parse existing Claude Desktop config, creating new one: %v", err)
			}
			doc = map[string]json.RawMessage{}
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to read Claude Desktop configuration")
	}

	servers := map[string]json.RawMessage{}
	if raw, ok := doc["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &servers); err != nil {
			servers = map[string]json.RawMessage{}
		}
	}
	servers[serverKey] = entryJSON

	serversJSON, err := json.Marshal(servers)
	if err != nil {
		return errors.Wrap(err, "failed to marshal mcpServers")
	}
	doc["mcpServers"] = serversJSON

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal Claude Desktop configuration")
	}
	if err := os.MkdirAll(filepath.Dir(claudeConfigPath), 0700); err != nil {
		return errors.Wrap(err, "failed to create Claude Desktop configuration directory")
	}
	if err := os.WriteFile(claudeConfigPath, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write Claude Desktop configuration")
	}

	fmt.Printf("Successfully configured Claude Desktop at %s\n", claudeConfigPath)
	return nil
}

// getClaudeConfigPath returns the path to Claude Desktop's configuration file for this OS.
func getClaudeConfigPath() string {
	var configDir string
	switch runtime.GOOS {
	case "darwin":
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, "Library", "Application Support", "Claude")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "Claude")
	default:
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config", "Claude")
	}
	return filepath.Join(configDir, "claude_desktop_config.json")
}

// printManualSetupInstructions is the fallback when automatic configuration fails.
func printManualSetupInstructions(exePath, configPath string) {
	fmt.Println("\n==== Manual Claude Desktop Configuration ====")
	fmt.Printf("1. Create or edit the file at: %s\n", getClaudeConfigPath())
	fmt.Println("2. Add the following entry under \"mcpServers\":")
	fmt.Printf(`{
  "mcpServers": {
    "spotignition": {
      "command": "%s",
      "args": ["serve", "--config", "%s"],
      "env": {
        "SPOTIFY_CLIENT_ID": "YOUR_CLIENT_ID",
        "SPOTIFY_CLIENT_SECRET": "YOUR_CLIENT_SECRET"
      }
    }
  }
}
`, exePath, configPath)
	fmt.Println("3. Restart Claude Desktop to apply the changes.")
	fmt.Println("==============================================")
}
