package teatest

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type echoMsg string

// recorder appends runes it sees, chains an echo Cmd on Enter and quits on Esc.
type recorder struct {
	typed  string
	echoed []string
	width  int
}

func (r recorder) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return echoMsg("init") },
		nil,
	)
}

func (r recorder) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
	case echoMsg:
		r.echoed = append(r.echoed, string(msg))
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyRunes:
			r.typed += string(msg.Runes)
		case tea.KeyEnter:
			typed := r.typed
			return r, func() tea.Msg { return echoMsg(typed) }
		case tea.KeyEsc:
			return r, tea.Quit
		}
	}
	return r, nil
}

func (r recorder) View() string { return r.typed }

func TestDriver_DrainsInitBatchAndChainedCmds(t *testing.T) {
	d := New(t, recorder{}, WithSize(40, 5))
	d.DrainInit()

	d.Type("周一")
	d.PressEnter()

	r := d.Model.(recorder)
	assert.Equal(t, 40, r.width)
	assert.Equal(t, []string{"init", "周一"}, r.echoed)
	assert.Equal(t, "周一", d.View())
}

func TestDriver_QuitStopsFurtherInput(t *testing.T) {
	d := New(t, recorder{})

	d.PressEsc()
	assert.True(t, d.Quitting)

	d.Type("x")
	assert.Empty(t, d.View())
}
