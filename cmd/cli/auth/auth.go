package auth

import (
	"fmt"
	"net/http"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/scrob-fm/scrob/cmd/cli/api"
	"github.com/scrob-fm/scrob/cmd/cli/config"
	"github.com/scrob-fm/scrob/cmd/cli/root"
)

// ==========================
// CLI Command Init
// ==========================
func init() {
	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new account",
		Long:  "Create a scrob account and store the session token locally.",
		RunE:  runSignup,
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the scrob API",
		Long:  "Authenticate and store a session token for subsequent CLI commands.",
		RunE:  runLogin,
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		Long:  "Remove the locally stored session token.",
		RunE:  runLogout,
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		RunE:  runWhoami,
	}

	root.GetRoot().AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd)
}

type sessionResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// ==========================
// Signup
// ==========================
func runSignup(cmd *cobra.Command, args []string) error {
	username, password, err := promptCredentials()
	if err != nil {
		return err
	}

	var resp sessionResponse
	if err := api.Post("/auth/signup", map[string]string{"username": username, "password": password}, &resp); err != nil {
		return err
	}
	if err := config.SaveToken(resp.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Printf("Account %q created. Token stored locally.\n", resp.Username)
	if resp.IsAdmin {
		fmt.Println("You are the first user and have been made an administrator.")
	}
	return nil
}

// ==========================
// Login
// ==========================
func runLogin(cmd *cobra.Command, args []string) error {
	username, password, err := promptCredentials()
	if err != nil {
		return err
	}

	var resp sessionResponse
	if err := api.Post("/auth/login", map[string]string{"username": username, "password": password}, &resp); err != nil {
		return err
	}
	if err := config.SaveToken(resp.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Println("Login successful. Token stored locally.")
	return nil
}

// ==========================
// Logout
// ==========================
func runLogout(cmd *cobra.Command, args []string) error {
	if err := config.DeleteToken(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

// ==========================
// Whoami
// ==========================
func runWhoami(cmd *cobra.Command, args []string) error {
	var me struct {
		Data struct {
			Me *struct {
				Username string `json:"username"`
				IsAdmin  bool   `json:"isAdmin"`
			} `json:"me"`
		} `json:"data"`
	}
	if err := api.Do(http.MethodPost, "/graphql",
		map[string]string{"query": "{ me { username isAdmin } }"}, &me); err != nil {
		return err
	}
	if me.Data.Me == nil {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("%s (admin: %v)\n", me.Data.Me.Username, me.Data.Me.IsAdmin)
	return nil
}

// promptCredentials reads the username from stdin and the password without
// echo.
func promptCredentials() (string, string, error) {
	var username string
	fmt.Print("Username: ")
	if _, err := fmt.Scanln(&username); err != nil {
		return "", "", err
	}

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return "", "", err
	}

	return username, string(pw), nil
}
