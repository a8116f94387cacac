package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/deck"
	"github.com/lox/blackjackgym/internal/roundid"
)

// StepResult is returned by Env.Step. Terminated and Truncated are both
// true exactly when the round has ended.
type StepResult struct {
	Observation Observation `json:"observation"`
	Reward      float64     `json:"reward"`
	Terminated  bool        `json:"terminated"`
	Truncated   bool        `json:"truncated"`
	Info        Info        `json:"info"`
}

// Info carries round details alongside a step result
type Info struct {
	RoundID       string    `json:"round_id"`
	Phase         Phase     `json:"phase"`
	Illegal       bool      `json:"illegal"`
	Outcomes      []Outcome `json:"outcomes,omitempty"`
	DealerValue   int       `json:"dealer_value"`
	ShoeRemaining int       `json:"shoe_remaining"`
	Reshuffled    bool      `json:"reshuffled"`
}

// Env is the round controller. It owns one shoe and one table and walks a
// round through Dealing, PlayerTurn, DealerTurn, Settlement and RoundOver.
type Env struct {
	cfg    envConfig
	rng    *rand.Rand
	ids    *roundid.Generator
	logger *log.Logger

	shoe  *deck.Shoe
	table *Table

	phase      Phase
	cursor     Cursor
	last       Cursor // hand observed once the round is over
	roundID    string
	actions    []ActionRecord
	reshuffled bool
	illegal    bool
	failed     error
	budget     int // cards a round may need, see RoundCardBudget

	stats Stats
}

// NewEnv builds a shoe and table from opts and deals the first round
func NewEnv(rng *rand.Rand, opts ...Option) (*Env, error) {
	if rng == nil {
		panic("game: NewEnv requires a non-nil rng")
	}

	cfg := defaultEnvConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	e := &Env{
		cfg:    cfg,
		rng:    rng,
		ids:    roundid.NewGenerator(rng),
		logger: cfg.logger.WithPrefix("env"),
		budget: RoundCardBudget(cfg.decks, len(cfg.wagers)),
	}
	if _, err := e.Reset(true); err != nil {
		return nil, err
	}
	return e, nil
}

func (c envConfig) validate() error {
	if c.decks <= 0 {
		return fmt.Errorf("%w: %d", deck.ErrInvalidDeckCount, c.decks)
	}
	if c.threshold < 0 || c.threshold >= 1 {
		return fmt.Errorf("reshuffle threshold must be in [0, 1), got %v", c.threshold)
	}
	if c.chipScale <= 0 {
		return fmt.Errorf("chip scale must be positive, got %v", c.chipScale)
	}
	if c.illegalPenalty < 0 {
		return fmt.Errorf("illegal penalty must not be negative, got %v", c.illegalPenalty)
	}
	switch c.level {
	case ObservationBasic, ObservationCounting, ObservationHistory:
	default:
		return fmt.Errorf("unknown observation level %d", c.level)
	}
	// Fail at configuration time rather than on the first deal.
	if _, err := NewTable(c.wagers); err != nil {
		return err
	}
	if total, need := c.decks*deck.CardsPerDeck, RoundCardBudget(c.decks, len(c.wagers)); total < need {
		return fmt.Errorf("%w: %d decks hold %d cards, %d seats may need %d in one round",
			ErrCapacityExceeded, c.decks, total, len(c.wagers), need)
	}
	return nil
}

// Reset deals a new round. A full reset builds and shuffles a fresh shoe.
// Otherwise the shoe carries over unless it has dropped below the
// reshuffle threshold or holds fewer cards than a round may draw. A round
// in progress is abandoned without scoring.
func (e *Env) Reset(full bool) (Observation, error) {
	e.reshuffled = false
	if e.shoe != nil {
		// An abandoned round may still hold the hole card.
		e.shoe.Reveal()
	}

	if full || e.shoe == nil || e.shoe.NeedsReshuffle(e.cfg.threshold) || e.shoe.Remaining() < e.budget {
		shoe, err := deck.NewShoe(e.rng, e.cfg.decks)
		if err != nil {
			return Observation{}, err
		}
		shoe.Shuffle()
		e.shoe = shoe
		e.reshuffled = true
		e.logger.Debug("new shoe", "decks", e.cfg.decks, "cards", shoe.Remaining())
	}

	if err := e.deal(); err != nil {
		e.failed = err
		return Observation{}, err
	}
	return e.Observation(), nil
}

// deal starts a round on the current shoe. Cards go out one per seat, then
// one to the dealer, twice; the dealer's second card is the hole card.
func (e *Env) deal() error {
	table, err := NewTable(e.cfg.wagers)
	if err != nil {
		return err
	}
	e.table = table
	e.phase = PhaseDealing
	e.cursor = Cursor{}
	e.last = Cursor{}
	e.actions = e.actions[:0]
	e.illegal = false
	e.failed = nil
	e.roundID = e.ids.Generate()

	for k := 0; k < 2; k++ {
		for _, seat := range e.table.Seats {
			card, err := e.shoe.Hit(false)
			if err != nil {
				return fmt.Errorf("deal: %w", err)
			}
			seat.Hands[0].AddCard(card)
		}

		hole := k == 1
		card, err := e.shoe.Hit(hole)
		if err != nil {
			return fmt.Errorf("deal dealer: %w", err)
		}
		card.Hidden = hole
		e.table.Dealer.AddCard(card)
	}

	e.phase = PhasePlayerTurn
	e.logger.Debug("dealt", "round", e.roundID, "seats", len(e.table.Seats),
		"upcard", e.table.Dealer.Cards[0], "remaining", e.shoe.Remaining())
	return nil
}

// Step applies action to the active hand. An illegal Double or Split is not
// returned as an error: it ends the round with a penalty. Errors are
// reserved for stepping a finished round, unknown actions and an empty shoe.
// After a failed step every further Step fails until the next Reset.
func (e *Env) Step(action Action) (StepResult, error) {
	switch {
	case e.failed != nil:
		return StepResult{}, fmt.Errorf("%w: %v", ErrRoundFailed, e.failed)
	case e.phase == PhaseRoundOver:
		return StepResult{}, ErrRoundOver
	case e.phase != PhasePlayerTurn:
		return StepResult{}, fmt.Errorf("%w: phase %s", ErrRoundFailed, e.phase)
	}
	if !action.Valid() {
		return StepResult{}, fmt.Errorf("%w: %d", ErrUnknownAction, int(action))
	}

	res, err := e.apply(action)
	if err != nil {
		e.failed = err
		e.logger.Error("round failed", "round", e.roundID, "action", action, "error", err)
		return StepResult{}, err
	}
	return res, nil
}

// apply plays action on the active hand and advances the cursor
func (e *Env) apply(action Action) (StepResult, error) {
	hand := e.table.Hand(e.cursor)
	e.actions = append(e.actions, ActionRecord{Seat: e.cursor.Seat, Hand: e.cursor.Hand, Action: action})
	e.last = e.cursor

	switch action {
	case Stand:
		hand.Stand()

	case Hit:
		card, err := e.shoe.Hit(false)
		if err != nil {
			return StepResult{}, fmt.Errorf("hit: %w", err)
		}
		hand.AddCard(card)
		hand.IsBusted()

	case Double:
		if err := hand.DoubleDown(e.shoe); err != nil {
			if errors.Is(err, ErrIllegalAction) {
				return e.penalize(action, err), nil
			}
			return StepResult{}, err
		}
		e.stats.Doubles++

	case Split:
		seat := e.table.Seats[e.cursor.Seat]
		if err := seat.Split(); err != nil {
			return e.penalize(action, err), nil
		}
		for _, h := range seat.Hands {
			card, err := e.shoe.Hit(false)
			if err != nil {
				return StepResult{}, fmt.Errorf("split: %w", err)
			}
			h.AddCard(card)
		}
		e.stats.Splits++
	}

	if next, ok := e.table.Advance(e.cursor); ok {
		e.cursor = next
		return StepResult{Observation: e.Observation(), Info: e.Info()}, nil
	}
	return e.finish()
}

// penalize ends the round after an illegal action. Hands stay unsettled
// and the dealer does not play.
func (e *Env) penalize(action Action, cause error) StepResult {
	hands := e.table.HandCount()
	reward := -e.cfg.illegalPenalty * float64(hands)

	e.shoe.Reveal()
	e.stats.Rounds++
	e.stats.IllegalMoves++
	e.stats.Reward += reward
	e.phase = PhaseRoundOver
	e.illegal = true

	e.logger.Debug("illegal action", "round", e.roundID, "action", action,
		"hands", hands, "reward", reward, "err", cause)
	e.record(reward, true)

	return StepResult{
		Observation: e.Observation(),
		Reward:      reward,
		Terminated:  true,
		Truncated:   true,
		Info:        e.Info(),
	}
}

// finish plays the dealer hand and settles every seat hand
func (e *Env) finish() (StepResult, error) {
	e.phase = PhaseDealerTurn
	if err := e.playDealer(); err != nil {
		return StepResult{}, err
	}

	e.phase = PhaseSettlement
	won, lost := 0, 0
	for _, h := range e.table.Hands() {
		e.stats.HandsPlayed++
		e.stats.Wagered += h.Wager
		switch h.Settle(e.table.Dealer) {
		case Win:
			e.stats.Wins++
			won += h.Wager
		case Loss:
			e.stats.Losses++
			lost += h.Wager
		case Draw:
			e.stats.Draws++
		}
	}

	reward := float64(won-lost) / e.cfg.chipScale
	e.stats.Rounds++
	e.stats.Money += won - lost
	e.stats.Reward += reward
	e.phase = PhaseRoundOver

	e.logger.Debug("round settled", "round", e.roundID, "dealer", e.table.Dealer,
		"won", won, "lost", lost, "reward", reward)
	e.record(reward, false)

	return StepResult{
		Observation: e.Observation(),
		Reward:      reward,
		Terminated:  true,
		Truncated:   true,
		Info:        e.Info(),
	}, nil
}

// playDealer reveals the hole card and draws to 17 unless every seat hand
// has busted, in which case the dealer does not draw. The hole card is
// counted either way.
func (e *Env) playDealer() error {
	dealer := e.table.Dealer
	defer e.shoe.Reveal()

	live := false
	for _, h := range e.table.Hands() {
		if h.Value() <= Bust {
			live = true
			break
		}
	}
	if !live {
		return nil
	}

	for i := range dealer.Cards {
		dealer.Cards[i].Hidden = false
	}
	e.shoe.Reveal()

	for dealer.Value() < DealerStandsOn {
		card, err := e.shoe.Hit(false)
		if err != nil {
			return fmt.Errorf("dealer hit: %w", err)
		}
		dealer.AddCard(card)
	}
	dealer.Done = true
	return nil
}

func (e *Env) record(reward float64, illegal bool) {
	if e.cfg.recorder == nil {
		return
	}
	if err := e.cfg.recorder.RecordRound(e.summarize(reward, illegal)); err != nil {
		e.logger.Warn("failed to record round", "round", e.roundID, "error", err)
	}
}

// Info describes the current round. Outcomes are filled once a round has
// been settled.
func (e *Env) Info() Info {
	info := Info{
		RoundID:       e.roundID,
		Phase:         e.phase,
		Illegal:       e.illegal,
		DealerValue:   e.table.Dealer.Value(),
		ShoeRemaining: e.shoe.Remaining(),
		Reshuffled:    e.reshuffled,
	}
	if e.phase == PhaseRoundOver && !e.illegal {
		for _, h := range e.table.Hands() {
			info.Outcomes = append(info.Outcomes, h.Outcome)
		}
	}
	return info
}

// Observation returns what a policy sees now: the active hand during the
// player turn, the last hand that acted once the round is over.
func (e *Env) Observation() Observation {
	c := e.cursor
	if e.phase == PhaseRoundOver {
		c = e.last
	}
	return observe(e.cfg.level, e.table.Hand(c), e.table.Dealer, e.shoe)
}

// Stats returns a snapshot of the running counters
func (e *Env) Stats() Stats {
	return e.stats
}

// Phase returns the current round phase
func (e *Env) Phase() Phase {
	return e.phase
}

// Cursor returns the position of the active hand
func (e *Env) Cursor() Cursor {
	return e.cursor
}

// RoundID returns the id of the current round
func (e *Env) RoundID() string {
	return e.roundID
}

// Table exposes the current table. Callers must not mutate it.
func (e *Env) Table() *Table {
	return e.table
}

// Shoe exposes the current shoe. Callers must not draw from it.
func (e *Env) Shoe() *deck.Shoe {
	return e.shoe
}

// Level returns the configured observation level
func (e *Env) Level() ObservationLevel {
	return e.cfg.level
}
