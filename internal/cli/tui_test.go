package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/graphsplit/pkg/split"
)

func testParts() []split.Partition {
	return []split.Partition{
		{Name: "front", Members: []string{"add", "neg"}, Outputs: []string{"add"}},
		{Name: "back", Members: []string{"mul"}, Inputs: []string{"add"}, DependsOn: []string{"front"}},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestPartitionModelNavigation(t *testing.T) {
	m := newPartitionModel(testParts())

	next, _ := m.Update(keyMsg("down"))
	m = next.(PartitionModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d after down, want 1", m.Cursor)
	}

	// Down at the bottom stays put.
	next, _ = m.Update(keyMsg("down"))
	m = next.(PartitionModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.Cursor)
	}

	next, _ = m.Update(keyMsg("up"))
	m = next.(PartitionModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d after up, want 0", m.Cursor)
	}

	// Up at the top stays put.
	next, _ = m.Update(keyMsg("k"))
	m = next.(PartitionModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.Cursor)
	}
}

func TestPartitionModelQuit(t *testing.T) {
	m := newPartitionModel(testParts())
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if msg := cmd(); msg == nil {
		t.Error("quit command produced no message")
	}
}

func TestPartitionModelView(t *testing.T) {
	m := newPartitionModel(testParts())
	view := m.View()

	for _, want := range []string{"submod_front", "submod_back", "add, neg"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	// Selecting the second partition shows its crossings.
	m.Cursor = 1
	view = m.View()
	if !strings.Contains(view, "depends on") {
		t.Errorf("detail pane missing dependencies:\n%s", view)
	}
}

func TestPartitionModelEmpty(t *testing.T) {
	m := newPartitionModel(nil)
	if !strings.Contains(m.View(), "no partitions") {
		t.Error("empty model should say so")
	}
}
