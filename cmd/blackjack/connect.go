package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lox/blackjackgym/cmd/blackjack/shared"
	"github.com/lox/blackjackgym/internal/client"
	"github.com/lox/blackjackgym/internal/randutil"
)

// ConnectCmd plays a policy against a remote server
type ConnectCmd struct {
	PolicyFlags

	URL    string        `arg:"" optional:"" default:"http://localhost:8080" help:"Server URL"`
	Rounds int           `short:"n" default:"100" help:"Rounds to play"`
	Seed   *int64        `help:"Seed for the policy's random choices"`
	Dial   time.Duration `name:"dial-timeout" default:"10s" help:"Connection timeout"`
	Debug  bool          `help:"Enable debug logging"`
}

func (c *ConnectCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	ctx := shared.SetupSignalHandlerWithLogger(logger, "connect")
	return c.run(ctx, os.Stdout)
}

func (c *ConnectCmd) run(ctx context.Context, out io.Writer) error {
	engineLogger := shared.EngineLogger(os.Stderr, c.Debug)

	seed := randutil.TimeSeed()
	if c.Seed != nil {
		seed = *c.Seed
	}
	p, err := c.build(randutil.New(seed), engineLogger)
	if err != nil {
		return err
	}
	defer closePolicy(p)

	dialCtx, cancel := context.WithTimeout(ctx, c.Dial)
	defer cancel()
	cl, err := client.Dial(dialCtx, c.URL, engineLogger)
	if err != nil {
		return err
	}
	defer cl.Close()

	stats, err := cl.Play(ctx, p, c.Rounds)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Session %s: %s played %d rounds (%d hands)\n",
		cl.Session().SessionID, p.Name(), stats.Rounds, stats.HandsPlayed)
	fmt.Fprintf(out, "Wins %d, losses %d, draws %d, illegal %d\n",
		stats.Wins, stats.Losses, stats.Draws, stats.IllegalMoves)
	fmt.Fprintf(out, "Reward %.2f, money %d chips, win rate %.2f%%, earn rate %.4f\n",
		stats.Reward, stats.Money, stats.WinRate*100, stats.EarnRate)
	return nil
}
