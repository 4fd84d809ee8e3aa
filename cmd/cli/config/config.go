package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultAPIURL = "http://localhost:8080"

const tokenFileName = ".scrob_token"

// APIURL returns the base URL for the scrob API.
// It can be overridden with the SCROB_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("SCROB_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

func tokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, tokenFileName), nil
}

// SaveToken stores the bearer token for subsequent CLI commands.
func SaveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0600)
}

// LoadToken returns the stored bearer token, or "" when not logged in.
func LoadToken() string {
	path, err := tokenPath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// DeleteToken removes the stored token. Missing file is not an error.
func DeleteToken() error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
