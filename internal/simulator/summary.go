package simulator

import (
	"fmt"
	"io"
	"time"
)

// PrintSummary writes a summary of simulation results
func PrintSummary(w io.Writer, r *Result) {
	stats := r.Stats
	c := r.Counters
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== FINAL RESULTS for %s ===\n", r.Policy)
	fmt.Fprintf(w, "Rounds played: %d (%d hands settled) in %v\n", stats.Rounds, stats.Hands, r.Elapsed.Round(time.Millisecond))

	fmt.Fprintf(w, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(w, "Mean: %.4f units/round\n", stats.Mean())
	fmt.Fprintf(w, "Median: %.4f units/round\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.4f units\n", stats.StdDev())
	fmt.Fprintf(w, "Std Error: %.4f units\n", stats.StdError())
	fmt.Fprintf(w, "95%% CI: [%.4f, %.4f] units/round\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.3f, P25=%.3f, P75=%.3f, P95=%.3f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	fmt.Fprintf(w, "\n=== OUTCOMES ===\n")
	fmt.Fprintf(w, "Win rate: %.2f%% (%d)\n", c.WinRate()*100, c.Wins)
	fmt.Fprintf(w, "Loss rate: %.2f%% (%d)\n", c.LossRate()*100, c.Losses)
	fmt.Fprintf(w, "Draw rate: %.2f%% (%d)\n", c.DrawRate()*100, c.Draws)
	fmt.Fprintf(w, "Illegal moves: %d (%.2f%% of rounds, %.2f units)\n",
		c.IllegalMoves, stats.IllegalRate()*100, stats.IllegalReward)
	fmt.Fprintf(w, "Money: %d chips of %d wagered, earn rate %.4f, loss rate %.4f\n",
		c.Money, c.Wagered, c.EarnRate(), c.LossMoneyRate())
	fmt.Fprintf(w, "Sanity check: %.2f + %.2f = %.2f (should equal %.2f)\n",
		stats.SettledReward, stats.IllegalReward, stats.SettledReward+stats.IllegalReward, c.Reward)

	fmt.Fprintf(w, "\n=== PLAY ANALYSIS ===\n")
	if stats.Rounds > 0 {
		fmt.Fprintf(w, "Dealer busts: %d rounds (%.1f%%)\n",
			stats.DealerBusts, float64(stats.DealerBusts)/float64(stats.Rounds)*100)
	}
	fmt.Fprintf(w, "Doubles: %d, %d rounds, %.2f units\n", c.Doubles, stats.DoubledRounds, stats.DoubledReward)
	fmt.Fprintf(w, "Splits: %d, %d rounds, %.2f units\n", c.Splits, stats.SplitRounds, stats.SplitReward)

	fmt.Fprintf(w, "\n=== DEALER UP-CARD ANALYSIS ===\n")
	for u := 2; u <= 11; u++ {
		us := stats.UpcardResults[u]
		if us.Rounds > 0 {
			label := fmt.Sprintf("%d", u)
			if u == 11 {
				label = "A"
			}
			fmt.Fprintf(w, "Up-card %2s: %d rounds, %.3f units/round\n", label, us.Rounds, stats.UpcardMean(u))
		}
	}
}
