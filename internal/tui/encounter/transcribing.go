package encounter

import (
	"context"

	"github.com/clinicore/scribe/internal/tui/components/labeledspinner"
	"github.com/clinicore/scribe/internal/tui/components/phases"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// transcribePhase sends the captured audio for transcription. On failure
// the session is back in captured with the original audio intact, so
// retry reuses identical bytes.
type transcribePhase struct {
	entry    *entry
	spinner  labeledspinner.Model
	retryKey key.Binding
	lastErr  error
}

func newTranscribePhase(e *entry) tea.Model {
	return &transcribePhase{
		entry: e,
		spinner: labeledspinner.New(
			spinner.Dot,
			"Transcribing audio...",
			"Sending encounter audio for transcription",
			"This may take a moment depending on audio length",
		),
		retryKey: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry with the same audio"),
		),
	}
}

func (tp *transcribePhase) Init() tea.Cmd {
	return tea.Sequence(
		tp.spinner.Init(),
		tp.transcribeCmd(),
	)
}

func (tp *transcribePhase) transcribeCmd() tea.Cmd {
	return func() tea.Msg {
		return transcribeDoneMsg{err: tp.entry.session.Transcribe(context.Background())}
	}
}

func (tp *transcribePhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case transcribeDoneMsg:
		if typedMsg.err != nil {
			tp.lastErr = typedMsg.err
			return tp, nil
		}
		tp.lastErr = nil
		return tp, phases.NextPhaseCmd

	case tea.KeyMsg:
		if tp.lastErr != nil && key.Matches(typedMsg, tp.retryKey) {
			tp.lastErr = nil
			return tp, tea.Sequence(tp.spinner.Init(), tp.transcribeCmd())
		}
		return tp, nil
	}

	var cmd tea.Cmd
	tp.spinner, cmd = tp.spinner.Update(teaMsg)

	return tp, cmd
}

func (tp *transcribePhase) View() string {
	if tp.lastErr != nil {
		return renderErrorView("Transcription failed", tp.lastErr, tp.retryKey)
	}

	return tp.spinner.View()
}
