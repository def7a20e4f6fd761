package encounter

import (
	"context"
	"errors"

	"github.com/clinicore/scribe/internal/tui/components/labeledspinner"
	"github.com/clinicore/scribe/internal/tui/components/phases"
	"github.com/clinicore/scribe/internal/workflow"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// submitPhase persists the encounter with note generation requested. On
// failure the session returns to transcribed and the draft is unchanged;
// retry resubmits identical content. Validation rejections are not
// retryable as-is and say so.
type submitPhase struct {
	entry    *entry
	spinner  labeledspinner.Model
	retryKey key.Binding
	lastErr  error
}

func newSubmitPhase(e *entry) tea.Model {
	return &submitPhase{
		entry: e,
		spinner: labeledspinner.New(
			spinner.Pulse,
			"Saving encounter...",
			"Generating SOAP note and persisting the record",
			"This may take a moment",
		),
		retryKey: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry with the same draft"),
		),
	}
}

func (sp *submitPhase) Init() tea.Cmd {
	return tea.Sequence(
		sp.spinner.Init(),
		sp.submitCmd(),
	)
}

func (sp *submitPhase) submitCmd() tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{err: sp.entry.session.Submit(context.Background(), sp.entry.details)}
	}
}

func (sp *submitPhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case submitDoneMsg:
		if typedMsg.err != nil {
			sp.lastErr = typedMsg.err
			return sp, nil
		}
		sp.lastErr = nil
		return sp, phases.NextPhaseCmd

	case tea.KeyMsg:
		if sp.lastErr != nil && key.Matches(typedMsg, sp.retryKey) {
			// The backend rejected the draft content; resubmitting the
			// same draft cannot succeed.
			if errors.Is(sp.lastErr, workflow.ErrValidationRejected) {
				return sp, nil
			}
			sp.lastErr = nil
			return sp, tea.Sequence(sp.spinner.Init(), sp.submitCmd())
		}
		return sp, nil
	}

	var cmd tea.Cmd
	sp.spinner, cmd = sp.spinner.Update(teaMsg)

	return sp, cmd
}

func (sp *submitPhase) View() string {
	if sp.lastErr != nil {
		if errors.Is(sp.lastErr, workflow.ErrValidationRejected) {
			return renderErrorView("Encounter rejected", sp.lastErr, quitKey())
		}
		return renderErrorView("Submission failed", sp.lastErr, sp.retryKey)
	}

	return sp.spinner.View()
}
