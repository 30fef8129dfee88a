package prompt

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Terminal prompts interactively with bubbletea programs. Output goes to out
// so stdout stays free for command results.
type Terminal struct {
	in  io.Reader
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

func (t *Terminal) PickOne(ctx context.Context, options []string) (string, bool, error) {
	final, err := t.run(ctx, newPickerModel(options))
	if err != nil {
		return "", false, err
	}
	m, ok := final.(pickerModel)
	if !ok {
		return "", false, fmt.Errorf("unexpected picker model %T", final)
	}
	choice, picked := m.result()
	return choice, picked, nil
}

func (t *Terminal) PromptText(ctx context.Context, placeholder string) (string, bool, error) {
	final, err := t.run(ctx, newInputModel(placeholder))
	if err != nil {
		return "", false, err
	}
	m, ok := final.(inputModel)
	if !ok {
		return "", false, fmt.Errorf("unexpected input model %T", final)
	}
	value, submitted := m.result()
	return value, submitted, nil
}

func (t *Terminal) run(ctx context.Context, model tea.Model) (tea.Model, error) {
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)
	return p.Run()
}
