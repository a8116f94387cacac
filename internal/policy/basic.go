package policy

import (
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/game"
)

// BasicStrategy plays the published basic strategy chart for a dealer that
// stands on all 17s. Surrender entries hit, since surrender is not offered.
type BasicStrategy struct {
	logger *log.Logger
	double bool
}

// BasicOption configures a BasicStrategy
type BasicOption func(*BasicStrategy)

// WithoutDouble replaces every double with the chart's fallback
func WithoutDouble() BasicOption {
	return func(b *BasicStrategy) {
		b.double = false
	}
}

// NewBasicStrategy creates a new BasicStrategy policy
func NewBasicStrategy(logger *log.Logger, opts ...BasicOption) *BasicStrategy {
	b := &BasicStrategy{logger: logger.WithPrefix("basic"), double: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BasicStrategy) Name() string {
	if !b.double {
		return "basic-nodouble"
	}
	return "basic"
}

func (b *BasicStrategy) Act(obs game.Observation) game.Action {
	var a game.Action
	switch {
	case obs.CanSplit:
		a = b.pair(obs)
	case obs.UsableAces > 0:
		a = b.soft(obs)
	default:
		a = b.hard(obs)
	}
	b.logger.Debug("chart action", "sum", obs.PlayerSum, "soft", obs.UsableAces > 0,
		"pair", obs.CanSplit, "dealer", obs.DealerCard, "action", a)
	return a
}

// doubleOr doubles when allowed, otherwise returns fallback
func (b *BasicStrategy) doubleOr(obs game.Observation, fallback game.Action) game.Action {
	if b.double && obs.CanDouble {
		return game.Double
	}
	return fallback
}

func (b *BasicStrategy) pair(obs game.Observation) game.Action {
	d := obs.DealerCard
	card := obs.PlayerSum / 2
	if obs.UsableAces > 0 {
		card = 11
	}

	switch card {
	case 11, 8:
		return game.Split
	case 10:
		return game.Stand
	case 9:
		if d == 7 || d >= 10 {
			return game.Stand
		}
		return game.Split
	case 7:
		if d >= 8 {
			return game.Hit
		}
		return game.Split
	case 6:
		if d >= 7 {
			return game.Hit
		}
		return game.Split
	case 5:
		if d >= 10 {
			return game.Hit
		}
		return b.doubleOr(obs, game.Hit)
	case 4:
		if d == 5 || d == 6 {
			return game.Split
		}
		return game.Hit
	default:
		if d >= 8 {
			return game.Hit
		}
		return game.Split
	}
}

func (b *BasicStrategy) soft(obs game.Observation) game.Action {
	d := obs.DealerCard
	switch v := obs.PlayerSum; {
	case v >= 20:
		return game.Stand
	case v == 19:
		if d == 6 {
			return b.doubleOr(obs, game.Stand)
		}
		return game.Stand
	case v == 18:
		if d <= 6 {
			return b.doubleOr(obs, game.Stand)
		}
		if d <= 8 {
			return game.Stand
		}
		return game.Hit
	case v == 17:
		if d >= 3 && d <= 6 {
			return b.doubleOr(obs, game.Hit)
		}
		return game.Hit
	case v == 16 || v == 15:
		if d >= 4 && d <= 6 {
			return b.doubleOr(obs, game.Hit)
		}
		return game.Hit
	case v == 14 || v == 13:
		if d == 5 || d == 6 {
			return b.doubleOr(obs, game.Hit)
		}
		return game.Hit
	default:
		if d == 6 {
			return b.doubleOr(obs, game.Hit)
		}
		return game.Hit
	}
}

func (b *BasicStrategy) hard(obs game.Observation) game.Action {
	d := obs.DealerCard
	switch v := obs.PlayerSum; {
	case v >= 17:
		return game.Stand
	case v == 16:
		if d >= 7 {
			return game.Hit
		}
		return game.Stand
	case v == 15:
		if d >= 7 {
			return game.Hit
		}
		return game.Stand
	case v == 14 || v == 13:
		if d >= 7 {
			return game.Hit
		}
		return game.Stand
	case v == 12:
		if d >= 4 && d <= 6 {
			return game.Stand
		}
		return game.Hit
	case v == 11:
		return b.doubleOr(obs, game.Hit)
	case v == 10:
		if d >= 10 {
			return game.Hit
		}
		return b.doubleOr(obs, game.Hit)
	case v == 9:
		if d >= 3 && d <= 6 {
			return b.doubleOr(obs, game.Hit)
		}
		return game.Hit
	default:
		return game.Hit
	}
}

// ChartRow is one line of the strategy chart, indexed by dealer up-card 2-11
type ChartRow struct {
	Label   string
	Actions [10]game.Action
}

// DealerCards are the chart columns
var DealerCards = [10]int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

// Chart tabulates the strategy for two-card starting hands
func (b *BasicStrategy) Chart() (hard, soft, pairs []ChartRow) {
	row := func(label string, obs game.Observation) ChartRow {
		r := ChartRow{Label: label}
		for i, d := range DealerCards {
			obs.DealerCard = d
			r.Actions[i] = b.Act(obs)
		}
		return r
	}

	for v := 5; v <= 20; v++ {
		hard = append(hard, row(strconv.Itoa(v), game.Observation{PlayerSum: v, CanDouble: true}))
	}
	for other := 2; other <= 9; other++ {
		soft = append(soft, row("A,"+strconv.Itoa(other),
			game.Observation{PlayerSum: 11 + other, UsableAces: 1, CanDouble: true}))
	}
	for card := 2; card <= 11; card++ {
		label := strconv.Itoa(card) + "," + strconv.Itoa(card)
		obs := game.Observation{PlayerSum: 2 * card, CanDouble: true, CanSplit: true}
		if card == 11 {
			label = "A,A"
			obs.PlayerSum, obs.UsableAces = 12, 1
		}
		pairs = append(pairs, row(label, obs))
	}
	return hard, soft, pairs
}
