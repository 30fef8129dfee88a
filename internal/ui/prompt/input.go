package prompt

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const maxInputLength = 128

// inputModel asks for one line of text, such as an import alias.
type inputModel struct {
	input     textinput.Model
	value     string
	submitted bool
	cancelled bool
}

func newInputModel(placeholder string) inputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = maxInputLength
	ti.Width = 40
	ti.Focus()
	return inputModel{input: ti}
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.value = m.input.Value()
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	return docStyle.Render(m.input.View() + "\n\n" + statusStyle.Render("enter to confirm, esc to cancel"))
}

func (m inputModel) result() (string, bool) {
	if !m.submitted {
		return "", false
	}
	return m.value, true
}
