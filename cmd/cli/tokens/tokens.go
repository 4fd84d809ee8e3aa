package tokens

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/scrob-fm/scrob/cmd/cli/api"
	"github.com/scrob-fm/scrob/cmd/cli/output"
	"github.com/scrob-fm/scrob/cmd/cli/root"
)

// ==========================
// CLI Command Init
// ==========================
func init() {
	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage API tokens",
		Long:  "List, create, and revoke API tokens for the logged-in account.",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your API tokens",
		RunE:  runList,
	}

	var label string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API token",
		Long:  "Create a token. The raw value is printed once and never shown again.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(label)
		},
	}
	createCmd.Flags().StringVar(&label, "label", "", "Human-readable label for the token")

	revokeCmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRevoke(args[0])
		},
	}

	tokensCmd.AddCommand(listCmd, createCmd, revokeCmd)
	root.GetRoot().AddCommand(tokensCmd)
}

type tokenRow struct {
	ID         int64   `json:"id"`
	Token      string  `json:"token,omitempty"`
	Label      *string `json:"label"`
	CreatedAt  int64   `json:"created_at"`
	LastUsedAt *int64  `json:"last_used_at"`
	Revoked    bool    `json:"revoked"`
}

// ==========================
// List Tokens
// ==========================
func runList(cmd *cobra.Command, args []string) error {
	var tokens []tokenRow
	if err := api.Get("/tokens", &tokens); err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(tokens))
	for _, t := range tokens {
		label := ""
		if t.Label != nil {
			label = *t.Label
		}
		lastUsed := "never"
		if t.LastUsedAt != nil {
			lastUsed = time.Unix(*t.LastUsedAt, 0).Format("2006-01-02 15:04")
		}
		created := time.Unix(t.CreatedAt, 0).Format("2006-01-02")
		rows = append(rows, []interface{}{t.ID, label, created, lastUsed, t.Revoked})
	}
	output.RenderTable([]string{"ID", "Label", "Created", "Last Used", "Revoked"}, rows)
	return nil
}

// ==========================
// Create Token
// ==========================
func runCreate(label string) error {
	payload := map[string]interface{}{}
	if label != "" {
		payload["label"] = label
	}

	var created tokenRow
	if err := api.Post("/tokens", payload, &created); err != nil {
		return err
	}

	fmt.Printf("Token %d created.\n", created.ID)
	fmt.Println("Save this value now; it will not be shown again:")
	fmt.Println(created.Token)
	return nil
}

// ==========================
// Revoke Token
// ==========================
func runRevoke(id string) error {
	if err := api.Do(http.MethodDelete, "/tokens/"+id, nil, nil); err != nil {
		return err
	}
	fmt.Printf("Token %s revoked.\n", id)
	return nil
}
