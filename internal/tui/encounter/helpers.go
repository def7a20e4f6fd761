package encounter

import (
	"strings"

	"github.com/clinicore/scribe/internal/tui/style"
	"github.com/charmbracelet/bubbles/key"
)

func renderKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	s += strings.Join(suffix, "")

	return s
}

func quitKey() key.Binding {
	return key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "abandon entry"),
	)
}

// renderErrorView renders a failed step with its retry hint. Every
// failure is shown; none are retried automatically.
func renderErrorView(title string, err error, retry key.Binding) string {
	var sb strings.Builder

	sb.WriteString(style.Error.Render("✗ " + title))
	sb.WriteString("\n\n")
	sb.WriteString(style.Subtitle.Render(err.Error()))
	sb.WriteString("\n\n")
	sb.WriteString(renderKeyHelp(retry, " "))
	sb.WriteString(renderKeyHelp(quitKey(), "\n"))

	return sb.String()
}
