package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/archviz/pkg/dispatch"
	"github.com/matzehuels/archviz/pkg/plan"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listDetailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// commandColors tints the command column by command family.
var commandColors = map[string]lipgloss.Color{
	plan.CmdInitialize:        colorCyan,
	plan.CmdDeclareCluster:    colorBlue,
	plan.CmdDeclareNode:       colorGreen,
	plan.CmdDeclareConnection: colorYellow,
	plan.CmdMaterialize:       colorWhite,
}

// =============================================================================
// PlanBrowserModel - Interactive plan inspection
// =============================================================================

// PlanBrowserModel is the bubbletea model for browsing a plan's steps.
type PlanBrowserModel struct {
	Plan   *plan.Plan
	Cursor int
	Height int
	Offset int

	// Expanded shows the parameters of the step under the cursor.
	Expanded bool
}

// NewPlanBrowserModel creates a browser positioned on the first step.
func NewPlanBrowserModel(p *plan.Plan) PlanBrowserModel {
	return PlanBrowserModel{Plan: p, Height: 15}
}

func (m PlanBrowserModel) Init() tea.Cmd {
	return nil
}

func (m PlanBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n := len(m.Plan.Steps)
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < n-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = max(n-1, 0)
		case "enter", " ":
			m.Expanded = !m.Expanded
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
	}

	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m, nil
}

func (m PlanBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Plan.Title))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d steps · layout %s", len(m.Plan.Steps), m.Plan.LayoutPreference)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ parameters  q quit"))
	b.WriteString("\n\n")

	if len(m.Plan.Steps) == 0 {
		b.WriteString(listDimStyle.Render("  (empty plan)"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Plan.Steps))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		s := m.Plan.Steps[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, fmt.Sprint(s.Order), s.Command, dispatch.Describe(s.Command, s.Parameters)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Command", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Plan.Steps) {
				return lipgloss.NewStyle()
			}
			style := lipgloss.NewStyle().Foreground(colorGray)
			if col == 2 {
				if c, ok := commandColors[m.Plan.Steps[idx].Command]; ok {
					style = style.Foreground(c)
				}
			}
			if idx == m.Cursor {
				style = style.Bold(true)
			}
			return style
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Plan.Steps))))

	if m.Expanded {
		b.WriteString("\n")
		b.WriteString(listDetailStyle.Render(formatParams(m.Plan.Steps[m.Cursor])))
	}
	if len(m.Plan.Unresolved) > 0 {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render("unresolved clusters: " + strings.Join(m.Plan.Unresolved, ", ")))
	}
	return b.String()
}

// formatParams renders a step's parameters as indented JSON.
func formatParams(s plan.ToolCall) string {
	data, err := json.MarshalIndent(s.Parameters, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}
