// Package tui is a Bubble Tea front end for playing the environment by hand.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/deck"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/lox/blackjackgym/internal/policy"
)

const sidebarWidth = 28

// Model is the Bubble Tea model for a local table
type Model struct {
	env     *game.Env
	advisor policy.Policy
	logger  *log.Logger

	logViewport viewport.Model
	gameLog     []string
	status      string
	quitting    bool

	width       int
	height      int
	initialized bool

	testMode    bool
	capturedLog []string
}

// Option configures a Model
type Option func(*Model)

// WithAdvisor shows the advisor's choice for the active hand
func WithAdvisor(p policy.Policy) Option {
	return func(m *Model) {
		m.advisor = p
	}
}

// WithTestMode captures log entries instead of updating the viewport
func WithTestMode() Option {
	return func(m *Model) {
		m.testMode = true
	}
}

// NewModel creates a model playing env, which must have a round dealt
func NewModel(env *game.Env, logger *log.Logger, opts ...Option) *Model {
	// Sized properly when the first WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	m := &Model{
		env:         env,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logRoundStart()
	return m
}

// Run starts the program on the alternate screen and blocks until quit
func Run(env *game.Env, logger *log.Logger, opts ...Option) error {
	_, err := tea.NewProgram(NewModel(env, logger, opts...), tea.WithAltScreen()).Run()
	return err
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses and window resizes
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		case "s":
			m.act(game.Stand)
		case "h":
			m.act(game.Hit)
		case "d":
			m.act(game.Double)
		case "p":
			m.act(game.Split)
		case "n":
			m.reset(false)
		case "f":
			m.reset(true)
		case "up", "k":
			m.logViewport.ScrollUp(1)
		case "down", "j":
			m.logViewport.ScrollDown(1)
		case "pgup", "b":
			m.logViewport.HalfPageUp()
		case "pgdown":
			m.logViewport.HalfPageDown()
		}
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m *Model) act(action game.Action) {
	if m.env.Phase() == game.PhaseRoundOver {
		m.status = "Round over. Press n for the next round or f for a fresh shoe."
		return
	}

	cursor := m.env.Cursor()
	res, err := m.env.Step(action)
	if err != nil {
		m.logger.Error("Step failed", "action", action, "error", err)
		m.status = "Error: " + err.Error()
		return
	}
	m.status = ""

	hand := m.env.Table().Hand(cursor)
	if res.Info.Illegal {
		m.AddLogEntry(fmt.Sprintf("Seat %d hand %d: %s is illegal", cursor.Seat+1, cursor.Hand+1, action))
	} else if hand != nil {
		m.AddLogEntry(fmt.Sprintf("Seat %d hand %d: %s → %s", cursor.Seat+1, cursor.Hand+1, action, hand))
	}

	if res.Terminated {
		m.logRoundEnd(res)
	}
}

func (m *Model) reset(full bool) {
	if _, err := m.env.Reset(full); err != nil {
		m.logger.Error("Reset failed", "full", full, "error", err)
		m.status = "Error: " + err.Error()
		return
	}
	m.status = ""
	m.logRoundStart()
}

func (m *Model) logRoundStart() {
	info := m.env.Info()
	if info.Reshuffled {
		m.AddLogEntry("Shuffling a new shoe")
	}
	m.AddLogEntry(fmt.Sprintf("*** ROUND %s ***", info.RoundID))
	m.AddLogEntry("Dealer shows " + m.env.Table().Dealer.Cards[0].String())
}

func (m *Model) logRoundEnd(res game.StepResult) {
	if res.Info.Illegal {
		m.AddLogEntry(fmt.Sprintf("Round void, penalty %.2f", res.Reward))
		return
	}

	if res.Info.DealerValue > game.Bust {
		m.AddLogEntry("Dealer busts with " + m.env.Table().Dealer.String())
	} else {
		m.AddLogEntry("Dealer has " + m.env.Table().Dealer.String())
	}
	for i, h := range m.env.Table().Hands() {
		m.AddLogEntry(fmt.Sprintf("Hand %d: %s (%d chips)", i+1, h.Outcome, h.Wager))
	}
	m.AddLogEntry(fmt.Sprintf("Reward %+.2f", res.Reward))
}

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := HeaderStyle.Width(m.width).Render(fmt.Sprintf(" Blackjack  round %s ", m.env.RoundID()))

	tableContent := m.renderTable()
	actionContent := m.renderActions()

	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth)
	sidebar := sidebarStyle.Render(m.renderSidebar())

	mainWidth := max(m.width-sidebarWidth-4, 1)
	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(mainWidth)
	tablePane := tableStyle.Render(tableContent)

	used := lipgloss.Height(header) + lipgloss.Height(tablePane) + lipgloss.Height(actionContent) + 2
	logHeight := max(m.height-used, 1)
	m.logViewport.Width = mainWidth
	m.logViewport.Height = logHeight
	if !m.initialized && logHeight > 1 {
		m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(mainWidth).
		Height(logHeight).
		Render(m.logViewport.View())

	left := lipgloss.JoinVertical(lipgloss.Left, tablePane, logPane)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, sidebar)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, actionContent)
}

// renderTable draws the dealer row and one row per seat hand
func (m *Model) renderTable() string {
	table := m.env.Table()
	var b strings.Builder

	dealer := table.Dealer
	b.WriteString(HandInfoStyle.Render("Dealer  "))
	b.WriteString(formatCards(dealer.Cards))
	if m.env.Phase() == game.PhaseRoundOver && !dealer.Cards[1].Hidden {
		b.WriteString(fmt.Sprintf("  %d", dealer.Value()))
	}
	b.WriteString("\n\n")

	active := m.env.Phase() == game.PhasePlayerTurn
	cursor := m.env.Cursor()
	for s, seat := range table.Seats {
		for h, hand := range seat.Hands {
			label := fmt.Sprintf("Seat %d", s+1)
			if len(seat.Hands) > 1 {
				label = fmt.Sprintf("Seat %d.%d", s+1, h+1)
			}

			line := fmt.Sprintf("%-9s %s  %s", label, formatCards(hand.Cards), describeHand(hand))
			if active && cursor == (game.Cursor{Seat: s, Hand: h}) {
				line = ActiveHandStyle.Render("▶ " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeHand(h *game.Hand) string {
	var parts []string
	if h.IsSoft() {
		parts = append(parts, fmt.Sprintf("soft %d", h.Value()))
	} else {
		parts = append(parts, fmt.Sprintf("%d", h.Value()))
	}
	parts = append(parts, fmt.Sprintf("bet %d", h.Wager))
	if h.Doubled {
		parts = append(parts, "doubled")
	}
	if h.Outcome != game.Pending {
		switch h.Outcome {
		case game.Win:
			parts = append(parts, SuccessStyle.Render(h.Outcome.String()))
		case game.Loss:
			parts = append(parts, ErrorStyle.Render(h.Outcome.String()))
		default:
			parts = append(parts, WarningStyle.Render(h.Outcome.String()))
		}
	}
	return strings.Join(parts, "  ")
}

// renderSidebar shows the running counters and, when counting, the odds of
// each value coming next
func (m *Model) renderSidebar() string {
	stats := m.env.Stats()
	shoe := m.env.Shoe()

	lines := []string{
		HandInfoStyle.Render("Session"),
		fmt.Sprintf("Rounds   %d", stats.Rounds),
		fmt.Sprintf("Hands    %d", stats.HandsPlayed),
		fmt.Sprintf("W/L/D    %d/%d/%d", stats.Wins, stats.Losses, stats.Draws),
		fmt.Sprintf("Win rate %.1f%%", stats.WinRate()*100),
		fmt.Sprintf("Money    %+d", stats.Money),
		fmt.Sprintf("Reward   %+.2f", stats.Reward),
		fmt.Sprintf("Illegal  %d", stats.IllegalMoves),
		"",
		HandInfoStyle.Render("Shoe"),
		fmt.Sprintf("Cards    %d/%d", shoe.Remaining(), shoe.Total()),
	}

	if m.env.Level() >= game.ObservationCounting {
		probs := shoe.Probabilities()
		lines = append(lines, "", HandInfoStyle.Render("Next card"))
		for bucket, p := range probs {
			lines = append(lines, fmt.Sprintf("%-4s %5.1f%%", bucketLabel(bucket), p*100))
		}
	}
	return strings.Join(lines, "\n")
}

func bucketLabel(bucket int) string {
	switch bucket {
	case deck.AceBucket:
		return "A"
	case deck.TenBucket:
		return "10"
	default:
		return fmt.Sprintf("%d", bucket+2)
	}
}

// renderActions shows the key bindings, the advisor's pick and any status
func (m *Model) renderActions() string {
	var lines []string
	if m.env.Phase() == game.PhasePlayerTurn {
		keys := []string{"[s]tand", "[h]it"}
		obs := m.env.Observation()
		if obs.CanDouble {
			keys = append(keys, "[d]ouble")
		}
		if obs.CanSplit {
			keys = append(keys, "s[p]lit")
		}
		lines = append(lines, ActionsStyle.Render("Actions: "+strings.Join(keys, " ")))
		if m.advisor != nil {
			lines = append(lines, InfoStyle.Render(fmt.Sprintf("%s suggests %s", m.advisor.Name(), m.advisor.Act(obs))))
		}
	} else {
		lines = append(lines, ActionsStyle.Render("[n]ext round  [f]resh shoe"))
	}
	if m.status != "" {
		lines = append(lines, WarningStyle.Render(m.status))
	}
	lines = append(lines, InfoStyle.Render("q quit  ↑/↓ scroll log"))
	return strings.Join(lines, "\n")
}

// formatCards formats cards with colors
func formatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(cards))
	for _, card := range cards {
		switch {
		case card.Hidden:
			formatted = append(formatted, HiddenCardStyle.Render(card.String()))
		case card.IsRed():
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		default:
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

// AddLogEntry adds an entry to the round log
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)

	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
		return
	}

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// GetCapturedLog returns captured log entries in test mode
func (m *Model) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	return m.capturedLog
}

// Status returns the last status line
func (m *Model) Status() string {
	return m.status
}
