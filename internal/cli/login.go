package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"packmirror/internal/config"
)

var (
	loginRegistry string
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against a packmirror API and store the token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginRegistry == "" || loginUsername == "" || loginPassword == "" {
			return fmt.Errorf("--registry, --username and --password are required")
		}

		body, err := json.Marshal(map[string]string{
			"username": loginUsername,
			"password": loginPassword,
		})
		if err != nil {
			return err
		}

		url := strings.TrimSuffix(loginRegistry, "/") + "/api/v1/login"
		resp, err := http.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("login request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("login failed: %s", resp.Status)
		}

		var payload struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return err
		}

		cliCfg := config.CLIConfig{
			RegistryURL: loginRegistry,
			JWTToken:    payload.Token,
		}
		if err := config.SaveCLI(cliCfg); err != nil {
			return err
		}
		fmt.Printf("✅ logged in to %s\n", loginRegistry)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginRegistry, "registry", "", "packmirror API base URL")
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "operator username")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "operator password")
	rootCmd.AddCommand(loginCmd)
}

// remotePost sends an authenticated POST to the configured registry.
func remotePost(path string) error {
	cliCfg, err := config.LoadCLI()
	if err != nil {
		return err
	}
	if cliCfg.RegistryURL == "" || cliCfg.JWTToken == "" {
		return fmt.Errorf("not logged in; run packmirror login first")
	}

	url := strings.TrimSuffix(cliCfg.RegistryURL, "/") + path
	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cliCfg.JWTToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %s", path, resp.Status)
	}
	return nil
}
