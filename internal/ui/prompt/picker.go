package prompt

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	pickerWidth     = 72
	maxPickerHeight = 20
)

type item struct {
	title string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return "" }
func (i item) FilterValue() string { return i.title }

// pickerModel lets the user choose one candidate class.
type pickerModel struct {
	list      list.Model
	choice    string
	cancelled bool
	done      bool
}

func newPickerModel(options []string) pickerModel {
	items := make([]list.Item, 0, len(options))
	for _, opt := range options {
		items = append(items, item{title: opt})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	height := min(len(options)+6, maxPickerHeight)
	l := list.New(items, delegate, pickerWidth, height)
	l.Title = "Select a class"
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return pickerModel{list: l}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(min(msg.Width-h, pickerWidth), min(msg.Height-v, maxPickerHeight))
		return m, nil
	case tea.KeyMsg:
		// While filtering, esc and enter belong to the filter input.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		case "enter":
			if selected, ok := m.list.SelectedItem().(item); ok {
				m.choice = selected.title
			}
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	if m.done {
		return ""
	}
	return docStyle.Render(m.list.View())
}

// result reports the picked option; ok is false when nothing was chosen.
func (m pickerModel) result() (string, bool) {
	if m.cancelled || m.choice == "" {
		return "", false
	}
	return m.choice, true
}
