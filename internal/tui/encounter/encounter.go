// Package encounter provides the terminal front end for the encounter
// capture workflow: details entry, recording or upload, transcription,
// transcript review, submission, and the saved summary.
package encounter

import (
	"context"

	"github.com/clinicore/scribe/internal/capture"
	"github.com/clinicore/scribe/internal/tui/components/phases"
	"github.com/clinicore/scribe/internal/workflow"
	tea "github.com/charmbracelet/bubbletea"
)

// Config wires the workflow session and capture device into the TUI.
type Config struct {
	Session  *workflow.Session
	Recorder *capture.Recorder

	// Details defaults, editable in the first phase.
	Details workflow.Details

	// UploadPath switches the capture phase from microphone recording to
	// loading this file.
	UploadPath string
}

// entry is the shared mutable state all phases read and write.
type entry struct {
	session    *workflow.Session
	recorder   *capture.Recorder
	details    workflow.Details
	uploadPath string
}

type model struct {
	cancel context.CancelFunc
	entry  *entry
	phases tea.Model
}

// New creates the root encounter-entry model.
func New(cfg Config, cancel context.CancelFunc) tea.Model {
	e := &entry{
		session:    cfg.Session,
		recorder:   cfg.Recorder,
		details:    cfg.Details,
		uploadPath: cfg.UploadPath,
	}

	return model{
		cancel: cancel,
		entry:  e,
		phases: phases.New([]phases.Phase{
			phases.NewPhase("details", newDetailsPhase(e)),
			phases.NewPhase("capture", newCapturePhase(e)),
			phases.NewPhase("transcribing", newTranscribePhase(e)),
			phases.NewPhase("review", newReviewPhase(e)),
			phases.NewPhase("submitting", newSubmitPhase(e)),
			phases.NewPhase("saved", newSavedPhase(e)),
		}),
	}
}

func (m model) Init() tea.Cmd {
	return m.phases.Init()
}

func (m model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case tea.KeyMsg:
		switch typedMsg.String() {
		case "ctrl+c":
			// Abandon the entry: discards audio, transcript, and draft,
			// and aborts any in-flight call.
			m.entry.session.Reset(context.Background())
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case finishedMsg:
		return m, tea.Quit
	}

	updated, cmd := m.phases.Update(teaMsg)
	m.phases = updated

	return m, cmd
}

func (m model) View() string {
	return m.phases.View()
}
