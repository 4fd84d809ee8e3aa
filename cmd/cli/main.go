package main

import (
	"github.com/scrob-fm/scrob/cmd/cli/root"

	// Subcommands register themselves on the root command.
	_ "github.com/scrob-fm/scrob/cmd/cli/auth"
	_ "github.com/scrob-fm/scrob/cmd/cli/stats"
	_ "github.com/scrob-fm/scrob/cmd/cli/tokens"
)

func main() {
	root.Execute()
}
