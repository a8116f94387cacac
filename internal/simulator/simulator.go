package simulator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/lox/blackjackgym/internal/policy"
	"github.com/lox/blackjackgym/internal/randutil"
	"github.com/lox/blackjackgym/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// PolicyFactory builds one policy per worker. Policies need not be safe for
// concurrent use.
type PolicyFactory func(worker int, rng *rand.Rand) (policy.Policy, error)

// Config holds configuration for running simulations
type Config struct {
	Rounds     int
	Workers    int
	PolicyName string
	NewPolicy  PolicyFactory // overrides PolicyName when set
	Seed       int64
	Timeout    time.Duration // per round
	EnvOptions []game.Option
	Logger     *log.Logger
}

// Result is the outcome of a simulation run
type Result struct {
	Policy   string
	Stats    *statistics.Statistics
	Counters game.Stats
	Elapsed  time.Duration
}

// Simulator runs blackjack rounds against independent environments
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	if config.NewPolicy == nil {
		name, logger := config.PolicyName, config.Logger
		config.NewPolicy = func(_ int, rng *rand.Rand) (policy.Policy, error) {
			return policy.New(name, rng, logger)
		}
	}
	return &Simulator{config: config}
}

// Run plays config.Rounds rounds split across workers. Each worker owns its
// own Env, seeded from the run seed and the worker index, and resets with
// continuation between rounds so the shoe carries over.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	logger := s.config.Logger.WithPrefix("simulator")

	var (
		mu       sync.Mutex
		stats    = &statistics.Statistics{}
		counters game.Stats
		name     string
	)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < s.config.Workers; w++ {
		rounds := s.config.Rounds / s.config.Workers
		if w < s.config.Rounds%s.config.Workers {
			rounds++
		}
		if rounds == 0 {
			continue
		}

		g.Go(func() error {
			ws, wc, pname, err := s.runWorker(ctx, w, rounds)
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			mu.Lock()
			defer mu.Unlock()
			stats.Merge(ws)
			counters.Merge(wc)
			name = pname
			logger.Debug("worker finished", "worker", w, "rounds", rounds, "mean", ws.Mean())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	return &Result{Policy: name, Stats: stats, Counters: counters, Elapsed: time.Since(start)}, nil
}

func (s *Simulator) runWorker(ctx context.Context, worker, rounds int) (*statistics.Statistics, game.Stats, string, error) {
	seed := randutil.Derive(s.config.Seed, worker)
	rng := randutil.New(seed)

	p, err := s.config.NewPolicy(worker, rng)
	if err != nil {
		return nil, game.Stats{}, "", err
	}
	if c, ok := p.(interface{ Close() }); ok {
		defer c.Close()
	}

	opts := append([]game.Option{game.WithLogger(s.config.Logger)}, s.config.EnvOptions...)
	env, err := game.NewEnv(rng, opts...)
	if err != nil {
		return nil, game.Stats{}, "", err
	}

	stats := &statistics.Statistics{}
	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, game.Stats{}, "", err
		}
		if round > 0 {
			if _, err := env.Reset(false); err != nil {
				return nil, game.Stats{}, "", err
			}
		}

		result, err := s.playRoundWithTimeout(ctx, env, p, seed)
		if err != nil {
			return nil, game.Stats{}, "", fmt.Errorf("round %d: %w", round+1, err)
		}
		stats.Add(result)
	}
	return stats, env.Stats(), p.Name(), nil
}

// playRoundWithTimeout runs a single round with timeout protection
func (s *Simulator) playRoundWithTimeout(ctx context.Context, env *game.Env, p policy.Policy, seed int64) (statistics.RoundResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	type outcome struct {
		result statistics.RoundResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := PlayRound(env, p)
		r.Seed = seed
		done <- outcome{r, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		return statistics.RoundResult{}, fmt.Errorf("round timed out after %v (seed: %d, round: %s): %w",
			s.config.Timeout, seed, env.RoundID(), ctx.Err())
	}
}

// PlayRound drives env with p until the current round ends
func PlayRound(env *game.Env, p policy.Policy) (statistics.RoundResult, error) {
	before := env.Stats()
	obs := env.Observation()
	result := statistics.RoundResult{Upcard: obs.DealerCard}

	for {
		res, err := env.Step(p.Act(obs))
		if err != nil {
			return result, err
		}
		obs = res.Observation
		if !res.Terminated {
			continue
		}

		after := env.Stats()
		result.Reward = res.Reward
		result.Illegal = res.Info.Illegal
		result.Doubled = after.Doubles > before.Doubles
		result.Split = after.Splits > before.Splits
		if !result.Illegal {
			result.DealerBust = res.Info.DealerValue > game.Bust
			for _, o := range res.Info.Outcomes {
				result.Hands++
				switch o {
				case game.Win:
					result.Wins++
				case game.Loss:
					result.Losses++
				case game.Draw:
					result.Draws++
				}
			}
		}
		return result, nil
	}
}

// RunSimulation is a convenience function for running a simulation with basic parameters
func RunSimulation(ctx context.Context, rounds int, policyName string, seed int64, logger *log.Logger) (*Result, error) {
	return New(Config{
		Rounds:     rounds,
		PolicyName: policyName,
		Seed:       seed,
		Logger:     logger,
	}).Run(ctx)
}
