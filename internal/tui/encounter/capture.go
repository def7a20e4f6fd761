package encounter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinicore/scribe/internal/tui/components/phases"
	"github.com/clinicore/scribe/internal/tui/components/waveform"
	"github.com/clinicore/scribe/internal/tui/style"
	"github.com/clinicore/scribe/pkg/uictl"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type captureKeyMap struct {
	Start  key.Binding
	Finish key.Binding
}

func defaultCaptureKeyMap() captureKeyMap {
	return captureKeyMap{
		Start: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "start recording"),
		),
		Finish: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "finish recording"),
		),
	}
}

// dialFunc adapts a read function to a uictl.Dial.
type dialFunc[N uictl.Number] func() N

func (f dialFunc[N]) Read() N { return f() }

// levelsFunc adapts a read function to a uictl.Levels.
type levelsFunc[N uictl.Number] func() []N

func (f levelsFunc[N]) Read() []N { return f() }

// capturePhase acquires the session's audio: either an exclusive
// microphone recording or a validated file upload.
type capturePhase struct {
	entry   *entry
	keys    captureKeyMap
	spinner spinner.Model

	// elapsed and pcmBytes read recording progress off the device;
	// derived from captured samples, not wall time.
	elapsed  uictl.Dial[int64]
	pcmBytes uictl.Dial[int64]
	wave     waveform.Model

	recording bool
	lastErr   error
}

func newCapturePhase(e *entry) tea.Model {
	s := spinner.New()
	s.Spinner = spinner.Points

	p := &capturePhase{
		entry:   e,
		keys:    defaultCaptureKeyMap(),
		spinner: s,
	}

	if e.recorder != nil {
		p.elapsed = dialFunc[int64](func() int64 { return int64(e.recorder.Elapsed().Seconds()) })
		p.pcmBytes = dialFunc[int64](e.recorder.PCMBytesCaptured)
		p.wave = waveform.New(levelsFunc[int16](e.recorder.RecentSamples), 50, 2)
	}

	return p
}

func (p *capturePhase) Init() tea.Cmd {
	if p.entry.uploadPath != "" {
		return p.acceptFileCmd()
	}

	return p.spinner.Tick
}

func (p *capturePhase) acceptFileCmd() tea.Cmd {
	return func() tea.Msg {
		return captureDoneMsg{err: p.entry.session.AcceptFile(p.entry.uploadPath)}
	}
}

func (p *capturePhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(typedMsg, p.keys.Start):
			if p.recording || p.entry.uploadPath != "" {
				return p, nil
			}
			if err := p.entry.session.StartRecording(context.Background()); err != nil {
				p.lastErr = err
				return p, nil
			}
			p.lastErr = nil
			p.recording = true
			return p, tea.Batch(p.spinner.Tick, p.wave.Init())

		case key.Matches(typedMsg, p.keys.Finish):
			if !p.recording {
				return p, nil
			}
			p.recording = false
			if err := p.entry.session.StopRecording(context.Background()); err != nil {
				p.lastErr = err
				return p, nil
			}
			return p, phases.NextPhaseCmd
		}

	case captureDoneMsg:
		if typedMsg.err != nil {
			p.lastErr = typedMsg.err
			return p, nil
		}
		return p, phases.NextPhaseCmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(typedMsg)
		return p, cmd

	case waveform.TickMsg:
		if !p.recording {
			return p, nil
		}
		var cmd tea.Cmd
		p.wave, cmd = p.wave.Update(typedMsg)
		return p, cmd
	}

	return p, nil
}

func (p *capturePhase) View() string {
	if p.entry.uploadPath != "" {
		return p.viewUpload()
	}

	return p.viewRecording()
}

func (p *capturePhase) viewUpload() string {
	if p.lastErr != nil {
		return renderErrorView("Could not load audio file", p.lastErr, quitKey())
	}

	var sb strings.Builder
	sb.WriteString(style.Title.Render("Loading audio"))
	sb.WriteString("\n\n")
	sb.WriteString(style.Muted.Render(p.entry.uploadPath))
	sb.WriteString("\n")

	return sb.String()
}

func (p *capturePhase) viewRecording() string {
	var sb strings.Builder

	if p.recording {
		sb.WriteString(p.spinner.View())
		sb.WriteString(" ")
		sb.WriteString(style.Title.Render("Recording"))
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(formatElapsed(p.elapsed.Read())))
		sb.WriteString("\n\n")
		sb.WriteString(p.wave.View())
		sb.WriteString("\n\n")
		sb.WriteString(style.Subtitle.Render(formatCapturedBytes(p.pcmBytes.Read())))
		sb.WriteString("\n\n")
		sb.WriteString(renderKeyHelp(p.keys.Finish, " "))
	} else {
		sb.WriteString(style.Title.Render("Ready to record"))
		sb.WriteString("\n\n")
		if p.lastErr != nil {
			sb.WriteString(style.Error.Render(p.lastErr.Error()))
			sb.WriteString("\n\n")
		}
		sb.WriteString(renderKeyHelp(p.keys.Start, " "))
	}

	sb.WriteString(renderKeyHelp(quitKey(), "\n"))

	return sb.String()
}

func formatElapsed(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatCapturedBytes(n int64) string {
	return fmt.Sprintf("%.1f MB captured", float64(n)/(1024*1024))
}
