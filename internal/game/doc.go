// Package game implements the blackjack round engine used as a decision
// environment.
//
// The main type is Env, which owns a Shoe and a Table and sequences a round
// through dealing, player turns, dealer play and settlement. A policy drives
// it with Reset and Step:
//
//	env, err := game.NewEnv(randutil.New(42), game.WithWagers(100, 100))
//	obs := env.Observation()
//	for {
//	    res, err := env.Step(policy.Act(obs))
//	    if err != nil {
//	        return err
//	    }
//	    obs = res.Observation
//	    if res.Terminated {
//	        break
//	    }
//	}
//	obs, err = env.Reset(false) // keep the shoe, deal a new round
//
// # Turn order
//
// Exactly one hand is active at a time. The active hand is tracked by an
// explicit Cursor (seat index, hand index) that only moves forward: seats in
// table order, then hands within a seat. A split replaces the cursor hand
// with two hands, each dealt a second card before either acts.
//
// # Card counting
//
// The dealer's hole card is drawn with a secret hit. It stays out of the
// shoe's public count, and therefore out of observations, until the dealer
// turn reveals it. The correction is applied once per round, including
// rounds cut short by an illegal action.
//
// # Rewards
//
// A settled round pays (won wagers - lost wagers) / ChipScale. An illegal
// Double or Split ends the round at once with -IllegalPenalty for every hand
// in play. Both constants are options, not game rules.
//
// Env is not safe for concurrent use. Run independent instances instead.
package game
