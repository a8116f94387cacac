package main

import (
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lox/blackjackgym/internal/policy"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Simulate SimulateCmd      `cmd:"" help:"Run a policy for many rounds and report the results"`
	Play     PlayCmd          `cmd:"" help:"Play at a local table in the terminal"`
	Serve    ServeCmd         `cmd:"" help:"Serve environments over websocket"`
	Connect  ConnectCmd       `cmd:"" help:"Run a policy against a remote environment"`
	History  HistoryCmd       `cmd:"" help:"Summarise round history from a directory or SQLite database"`
	Strategy StrategyCmd      `cmd:"" help:"Print the basic strategy chart"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Multi-seat blackjack environment for decision policies"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":  version,
			"policies": strings.Join(policy.Names(), ", "),
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
