package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	mediate "github.com/glimte/mediate-go"
	"github.com/glimte/mediate-go/contracts"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newExploreCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Browse the behaviour chains of the demo contracts interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := setup(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			p := tea.NewProgram(newExploreModel(d.mediator),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err = p.Run()
			return err
		},
	}
}

type planner interface {
	Plan(c *contracts.Contract) ([]mediate.PlanStage, error)
}

type exploreModel struct {
	planner   planner
	contracts []*contracts.Contract
	selected  int
	width     int
	stages    []mediate.PlanStage
	err       error
}

func newExploreModel(p planner) exploreModel {
	names := contractNames()
	list := make([]*contracts.Contract, len(names))
	for i, name := range names {
		list[i] = demoContracts[name]
	}

	m := exploreModel{planner: p, contracts: list}
	return m.refresh()
}

func (m exploreModel) refresh() exploreModel {
	m.stages, m.err = m.planner.Plan(m.contracts[m.selected])
	return m
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m = m.refresh()
			}
			return m, nil

		case "down", "j":
			if m.selected < len(m.contracts)-1 {
				m.selected++
				m = m.refresh()
			}
			return m, nil
		}
	}

	return m, nil
}

func (m exploreModel) View() string {
	items := make([]string, len(m.contracts))
	for i, c := range m.contracts {
		if i == m.selected {
			items[i] = selectedStyle.Render(c.Name())
		} else {
			items[i] = itemStyle.Render(c.Name())
		}
	}
	list := cardStyle.Render(titleStyle.Render("Contracts") + "\n\n" + strings.Join(items, "\n"))

	var detail string
	if m.err != nil {
		detail = cardStyle.Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		detail = cardStyle.Render(renderPlan(m.contracts[m.selected], m.stages))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)
	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		helpStyle.Render("↑/↓ select contract • q quit"),
	)
}
