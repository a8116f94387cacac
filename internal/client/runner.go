package client

import (
	"context"
	"fmt"

	"github.com/lox/blackjackgym/internal/game"
	"github.com/lox/blackjackgym/internal/policy"
	"github.com/lox/blackjackgym/internal/server"
)

// Play runs rounds of p against the remote session, continuing the shoe
// between rounds, and returns the session counters afterwards.
func (c *Client) Play(ctx context.Context, p policy.Policy, rounds int) (server.StatsData, error) {
	obs := c.session.Current.Observation
	if c.session.Current.Info.Phase == game.PhaseRoundOver {
		res, err := c.Reset(ctx, false)
		if err != nil {
			return server.StatsData{}, err
		}
		obs = res.Observation
	}

	for round := 0; round < rounds; round++ {
		if round > 0 {
			res, err := c.Reset(ctx, false)
			if err != nil {
				return server.StatsData{}, fmt.Errorf("round %d: %w", round, err)
			}
			obs = res.Observation
		}

		for {
			res, err := c.Step(ctx, p.Act(obs))
			if err != nil {
				return server.StatsData{}, fmt.Errorf("round %d: %w", round, err)
			}
			obs = res.Observation
			if res.Terminated {
				c.logger.Debug("Round finished", "round", res.Info.RoundID, "reward", res.Reward, "illegal", res.Info.Illegal)
				break
			}
		}
	}

	return c.Stats(ctx)
}
