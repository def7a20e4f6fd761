package encounter

import (
	"strings"

	"github.com/clinicore/scribe/internal/medical"
	"github.com/clinicore/scribe/internal/tui/style"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// savedPhase shows the persisted encounter summary.
type savedPhase struct {
	entry   *entry
	doneKey key.Binding
}

func newSavedPhase(e *entry) tea.Model {
	return &savedPhase{
		entry: e,
		doneKey: key.NewBinding(
			key.WithKeys("enter", "q"),
			key.WithHelp("enter", "done"),
		),
	}
}

func (sv *savedPhase) Init() tea.Cmd {
	return nil
}

func (sv *savedPhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := teaMsg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, sv.doneKey) {
			return sv, func() tea.Msg { return finishedMsg{} }
		}
	}

	return sv, nil
}

func (sv *savedPhase) View() string {
	enc := sv.entry.session.SavedEncounter()
	if enc == nil {
		return style.Warning.Render("No saved encounter")
	}

	var sb strings.Builder

	sb.WriteString(style.Success.Render("✓ Encounter saved"))
	sb.WriteString("\n\n")

	sb.WriteString(style.Label.Render("ID: "))
	sb.WriteString(style.Muted.Render(enc.ID))
	sb.WriteString("\n")

	if note := enc.SOAPNote; note != nil {
		if codes, err := medical.ParseCodes(note.ICD10Codes); err == nil && len(codes) > 0 {
			sb.WriteString(style.Label.Render("ICD-10: "))
			sb.WriteString(style.Subtitle.Render(strings.Join(codes, ", ")))
			sb.WriteString("\n")
		}
		if codes, err := medical.ParseCodes(note.CPTCodes); err == nil && len(codes) > 0 {
			sb.WriteString(style.Label.Render("CPT: "))
			sb.WriteString(style.Subtitle.Render(strings.Join(codes, ", ")))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(renderKeyHelp(sv.doneKey, "\n"))

	return sb.String()
}
