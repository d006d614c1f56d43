package cli

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// confirmModel is a single-keystroke y/n prompt. Enter, n, Esc and Ctrl-C
// all answer no.
type confirmModel struct {
	question string
	answer   bool
	answered bool
}

func newConfirmModel(question string) confirmModel {
	return confirmModel{question: question}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer, m.answered = true, true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "ctrl+c":
		m.answer, m.answered = false, true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		choice := "no"
		if m.answer {
			choice = "yes"
		}
		return fmt.Sprintf("%s %s %s\n", mark(kindQuestion), m.question, styleDim.Render(choice))
	}
	return fmt.Sprintf("%s %s %s ", mark(kindQuestion), m.question, styleDim.Render("[y/N]"))
}

// confirm asks question on the terminal. When stdin is not a terminal the
// answer is read as a single byte, so `echo y | qlogtree trace.qlog` works;
// an empty stdin answers no.
func confirm(question string) (bool, error) {
	if !stdinIsTerminal() {
		return readAnswer(os.Stdin, question)
	}
	final, err := tea.NewProgram(newConfirmModel(question)).Run()
	if err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}
	return final.(confirmModel).answer, nil
}

// readAnswer prints question and reads one byte from r. Only y or Y is yes.
func readAnswer(r io.Reader, question string) (bool, error) {
	fmt.Fprintf(out, "%s %s %s ", mark(kindQuestion), question, styleDim.Render("[y/N]"))
	var b [1]byte
	n, err := r.Read(b[:])
	fmt.Fprintln(out)
	if n == 0 {
		if err == nil || err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("prompt: %w", err)
	}
	return b[0] == 'y' || b[0] == 'Y', nil
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
