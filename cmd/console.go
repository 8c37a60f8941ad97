package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zkfl/zkptoolkit/app"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/store"
	"github.com/zkfl/zkptoolkit/toolkit"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF69B4"))
	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00BFFF"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4040"))
)

type consoleLoadedMsg struct {
	identities []*store.IdentityRecord
	latest     *store.AggregateRecord
	err        error
}

type consoleModel struct {
	load       tea.Cmd
	identities []*store.IdentityRecord
	latest     *store.AggregateRecord
	cursor     int
	loaded     bool
	err        error
}

func newConsoleModel(load tea.Cmd) consoleModel {
	return consoleModel{load: load}
}

func loadConsole(s *app.Service) tea.Cmd {
	return func() tea.Msg {
		identities, err := s.ListIdentities()
		if err != nil {
			return consoleLoadedMsg{err: err}
		}

		latest, err := s.GetAggregateStore().GetLatestAggregate()
		if errors.Is(err, store.ErrNotFound) {
			latest, err = nil, nil
		}

		return consoleLoadedMsg{
			identities: identities,
			latest:     latest,
			err:        err,
		}
	}
}

func (m consoleModel) Init() tea.Cmd {
	return m.load
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case consoleLoadedMsg:
		m.loaded = true
		m.err = msg.err
		m.identities = msg.identities
		m.latest = msg.latest
		if m.cursor >= len(m.identities) {
			m.cursor = max(len(m.identities)-1, 0)
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.identities)-1 {
				m.cursor++
			}
		case "r":
			return m, m.load
		}
	}

	return m, nil
}

func (m consoleModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("zkp console"))
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString(mutedStyle.Render("Loading..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	default:
		if m.latest == nil {
			b.WriteString("Latest aggregate: none\n")
		} else {
			fmt.Fprintf(
				&b,
				"Latest aggregate: round %d, %d proofs, %s\n",
				m.latest.Round,
				m.latest.Count,
				time.Unix(m.latest.StoredAt, 0).UTC().Format(time.RFC3339),
			)
		}

		fmt.Fprintf(&b, "\nIdentities (%d)\n", len(m.identities))
		for i, rec := range m.identities {
			line := "  " + rec.Name
			if i == m.cursor {
				line = selectedStyle.Render("> " + rec.Name)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}

		if len(m.identities) > 0 {
			rec := m.identities[m.cursor]
			curveName := "unknown"
			if curve, err := curves.ByID(rec.Curve); err == nil {
				curveName = curve.Name()
			}
			fmt.Fprintf(
				&b,
				"\nCurve: %s\nPublic key: %s\n",
				curveName,
				toolkit.EncodeHex(rec.PublicKey),
			)
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("up/down: select  r: refresh  q: quit"))
	b.WriteString("\n")
	return b.String()
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Browses registered identities and the latest aggregate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(
			newConsoleModel(loadConsole(Service)),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
		)
		_, err := p.Run()
		return errors.Wrap(err, "console")
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
