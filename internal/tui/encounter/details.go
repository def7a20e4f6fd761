package encounter

import (
	"strings"

	"github.com/clinicore/scribe/internal/medical"
	"github.com/clinicore/scribe/internal/tui/components/phases"
	"github.com/clinicore/scribe/internal/tui/style"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type detailsKeyMap struct {
	CycleType key.Binding
	Continue  key.Binding
}

func defaultDetailsKeyMap() detailsKeyMap {
	return detailsKeyMap{
		CycleType: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "change encounter type"),
		),
		Continue: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "continue"),
		),
	}
}

// detailsPhase collects the chief complaint and encounter type before any
// audio is captured.
type detailsPhase struct {
	entry     *entry
	keys      detailsKeyMap
	complaint textinput.Model
	typeIdx   int
	errText   string
}

func newDetailsPhase(e *entry) tea.Model {
	input := textinput.New()
	input.Placeholder = "e.g. persistent cough, 2 weeks"
	input.CharLimit = 500
	input.Width = 50
	input.SetValue(e.details.ChiefComplaint)
	input.Focus()

	types := medical.EncounterTypes()
	typeIdx := 0
	for i, t := range types {
		if t == e.details.EncounterType {
			typeIdx = i
		}
	}

	return &detailsPhase{
		entry:     e,
		keys:      defaultDetailsKeyMap(),
		complaint: input,
		typeIdx:   typeIdx,
	}
}

func (d *detailsPhase) Init() tea.Cmd {
	return textinput.Blink
}

func (d *detailsPhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := teaMsg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, d.keys.CycleType):
			d.typeIdx = (d.typeIdx + 1) % len(medical.EncounterTypes())
			return d, nil

		case key.Matches(keyMsg, d.keys.Continue):
			complaint := strings.TrimSpace(d.complaint.Value())
			if complaint == "" {
				d.errText = "chief complaint is required"
				return d, nil
			}

			d.entry.details.ChiefComplaint = complaint
			d.entry.details.EncounterType = medical.EncounterTypes()[d.typeIdx]

			return d, phases.NextPhaseCmd
		}
	}

	var cmd tea.Cmd
	d.complaint, cmd = d.complaint.Update(teaMsg)

	return d, cmd
}

func (d *detailsPhase) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("New encounter"))
	sb.WriteString("\n\n")

	sb.WriteString(style.Label.Render("Chief complaint: "))
	sb.WriteString("\n")
	sb.WriteString(d.complaint.View())
	sb.WriteString("\n\n")

	sb.WriteString(style.Label.Render("Encounter type: "))
	sb.WriteString(style.Subtitle.Render(string(medical.EncounterTypes()[d.typeIdx])))
	sb.WriteString("\n\n")

	if d.errText != "" {
		sb.WriteString(style.Warning.Render(d.errText))
		sb.WriteString("\n\n")
	}

	sb.WriteString(renderKeyHelp(d.keys.CycleType, " "))
	sb.WriteString(renderKeyHelp(d.keys.Continue, " "))
	sb.WriteString(renderKeyHelp(quitKey(), "\n"))

	return sb.String()
}
