package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/lox/blackjackgym/internal/policy"
	"github.com/lox/blackjackgym/internal/tui"
)

// StrategyCmd prints the basic strategy chart
type StrategyCmd struct {
	NoDouble bool `name:"no-double" help:"Show the chart used when doubling is not allowed"`
	NoColor  bool `name:"no-color" help:"Disable colors"`
}

var (
	chartHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	chartCellStyles  = map[game.Action]lipgloss.Style{
		game.Stand:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		game.Hit:    lipgloss.NewStyle().Foreground(lipgloss.Color("#96CEB4")).Bold(true),
		game.Double: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		game.Split:  lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
	}
)

func (c *StrategyCmd) Run() error {
	if c.NoColor {
		tui.DisableColor()
	}
	return c.run(os.Stdout)
}

func (c *StrategyCmd) run(out io.Writer) error {
	var opts []policy.BasicOption
	if c.NoDouble {
		opts = append(opts, policy.WithoutDouble())
	}
	hard, soft, pairs := policy.NewBasicStrategy(log.Default(), opts...).Chart()

	for _, section := range []struct {
		title string
		rows  []policy.ChartRow
	}{
		{"Hard totals", hard},
		{"Soft totals", soft},
		{"Pairs", pairs},
	} {
		fmt.Fprintln(out, renderChart(section.title, section.rows))
	}
	fmt.Fprintln(out, "S stand  H hit  D double  P split")
	return nil
}

// renderChart lays out one chart section with the dealer up-cards across
// the top
func renderChart(title string, rows []policy.ChartRow) string {
	var b strings.Builder
	b.WriteString(chartHeaderStyle.Render(title) + "\n")

	header := fmt.Sprintf("%-6s", "")
	for _, d := range policy.DealerCards {
		label := strconv.Itoa(d)
		if d == 11 {
			label = "A"
		}
		header += fmt.Sprintf(" %2s", label)
	}
	b.WriteString(chartHeaderStyle.Render(header) + "\n")

	for _, row := range rows {
		b.WriteString(fmt.Sprintf("%-6s", row.Label))
		for _, a := range row.Actions {
			b.WriteString(" " + chartCellStyles[a].Render(fmt.Sprintf("%2s", actionLetter(a))))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func actionLetter(a game.Action) string {
	switch a {
	case game.Stand:
		return "S"
	case game.Hit:
		return "H"
	case game.Double:
		return "D"
	case game.Split:
		return "P"
	default:
		return "?"
	}
}
