package encounter

import (
	"strings"

	"github.com/clinicore/scribe/internal/tui/components/phases"
	"github.com/clinicore/scribe/internal/tui/style"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type reviewKeyMap struct {
	Submit key.Binding
}

// reviewPhase shows the transcript before submission.
type reviewPhase struct {
	entry *entry
	keys  reviewKeyMap
}

func newReviewPhase(e *entry) tea.Model {
	return &reviewPhase{
		entry: e,
		keys: reviewKeyMap{
			Submit: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "submit encounter"),
			),
		},
	}
}

func (rp *reviewPhase) Init() tea.Cmd {
	return nil
}

func (rp *reviewPhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := teaMsg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, rp.keys.Submit) {
			return rp, phases.NextPhaseCmd
		}
	}

	return rp, nil
}

func (rp *reviewPhase) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Transcript"))
	sb.WriteString("\n\n")
	sb.WriteString(style.Viewport.Render(rp.entry.session.Transcript()))
	sb.WriteString("\n\n")

	sb.WriteString(style.Label.Render("Chief complaint: "))
	sb.WriteString(style.Subtitle.Render(rp.entry.details.ChiefComplaint))
	sb.WriteString("\n")
	sb.WriteString(style.Label.Render("Encounter type: "))
	sb.WriteString(style.Subtitle.Render(string(rp.entry.details.EncounterType)))
	sb.WriteString("\n\n")

	sb.WriteString(renderKeyHelp(rp.keys.Submit, " "))
	sb.WriteString(renderKeyHelp(quitKey(), "\n"))

	return sb.String()
}
