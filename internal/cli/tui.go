package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/graphsplit/pkg/split"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PartitionModel - Interactive partition browser
// =============================================================================

// PartitionModel is the bubbletea model for browsing split partitions. The
// left column lists partitions in topological order; the detail pane shows
// the selected partition's members and boundary crossings.
type PartitionModel struct {
	Parts  []split.Partition
	Cursor int
}

// newPartitionModel creates a browser over the given partitions.
func newPartitionModel(parts []split.Partition) PartitionModel {
	return PartitionModel{Parts: parts}
}

// Init implements tea.Model.
func (m PartitionModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PartitionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c", "enter":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Parts)-1 {
				m.Cursor++
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m PartitionModel) View() string {
	if len(m.Parts) == 0 {
		return listDimStyle.Render("no partitions") + "\n"
	}

	var list strings.Builder
	list.WriteString(StyleTitle.Render("Partitions") + "\n")
	for i, p := range m.Parts {
		label := fmt.Sprintf("submod_%s (%d nodes)", p.Name, len(p.Members))
		if i == m.Cursor {
			list.WriteString(listSelectedStyle.Render("> "+label) + "\n")
		} else {
			list.WriteString(listNormalStyle.Render("  "+label) + "\n")
		}
	}

	detail := m.detailView(m.Parts[m.Cursor])
	body := lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "   ", detail)

	help := listDimStyle.Render("↑/↓ select · q quit")
	return body + "\n" + help + "\n"
}

func (m PartitionModel) detailView(p split.Partition) string {
	var b strings.Builder
	b.WriteString(StyleHighlight.Render("submod_"+p.Name) + "\n")
	writeField(&b, "members", p.Members)
	writeField(&b, "inputs", p.Inputs)
	writeField(&b, "outputs", p.Outputs)
	writeField(&b, "depends on", p.DependsOn)
	return b.String()
}

func writeField(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	b.WriteString(listDimStyle.Render(label+": ") + listNormalStyle.Render(strings.Join(values, ", ")) + "\n")
}

// browsePartitions runs the interactive partition browser.
func browsePartitions(parts []split.Partition) error {
	_, err := tea.NewProgram(newPartitionModel(parts)).Run()
	return err
}
