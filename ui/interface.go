package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"gitlab.com/aoterocom/AOBacktester/helpers"
	"gitlab.com/aoterocom/AOBacktester/interfaces"
	"gitlab.com/aoterocom/AOBacktester/models"
)

const (
	refreshInterval = 100 * time.Millisecond
	formWidth       = 52
)

type UserInterface struct {
	form       *Form
	runner     interfaces.Runner
	logBuffer  *models.LogBuffer
	mutex      sync.Mutex
	status     string
	submitting bool
}

func NewUserInterface(form *Form, runner interfaces.Runner, logBuffer *models.LogBuffer) *UserInterface {
	return &UserInterface{
		form:      form,
		runner:    runner,
		logBuffer: logBuffer,
		status:    "idle",
	}
}

// DisplayLines renders tabs as four spaces, like the log list shows them.
func DisplayLines(lines []string) []string {
	rows := make([]string, len(lines))
	for i, line := range lines {
		rows[i] = strings.ReplaceAll(line, "\t", "    ")
	}
	return rows
}

func (ui *UserInterface) Run(ctx context.Context) error {
	if err := termui.Init(); err != nil {
		return fmt.Errorf("failed to initialize termui: %v", err)
	}
	defer termui.Close()

	uiEvents := termui.PollEvents()
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	ui.UpdateUI()
	for {
		select {
		case <-ctx.Done():
			ui.runner.Stop()
			return nil
		case e := <-uiEvents:
			if quit := ui.handleEvent(ctx, e); quit {
				ui.runner.Stop()
				helpers.Logger.Debugln("Exited by keyboard")
				return nil
			}
			ui.UpdateUI()
		case <-ticker.C:
			ui.UpdateUI()
		}
	}
}

func (ui *UserInterface) handleEvent(ctx context.Context, e termui.Event) bool {
	if e.Type == termui.ResizeEvent {
		termui.Clear()
		return false
	}
	if e.Type != termui.KeyboardEvent {
		return false
	}

	if ui.form.Editing() {
		switch e.ID {
		case "<Enter>":
			if err := ui.form.Commit(); err != nil {
				ui.setStatus(err.Error())
				helpers.Logger.Errorln("ui: " + err.Error())
			}
		case "<Escape>":
			ui.form.Cancel()
		case "<Backspace>", "<C-<Backspace>>":
			ui.form.Backspace()
		case "<Space>":
			ui.form.Type(' ')
		case "<C-c>":
			return true
		default:
			if r := []rune(e.ID); len(r) == 1 {
				ui.form.Type(r[0])
			}
		}
		return false
	}

	switch e.ID {
	case "q", "<C-c>":
		return true
	case "<Up>", "k":
		ui.form.MoveUp()
	case "<Down>", "j":
		ui.form.MoveDown()
	case "<Enter>", "<Space>":
		if err := ui.form.Activate(); err != nil {
			ui.setStatus(err.Error())
		}
	case "r":
		ui.submit(ctx)
	case "s":
		ui.runner.Stop()
		ui.setStatus("stopped")
	}
	return false
}

// submit starts a run off the event loop; the refresh ticker picks up the
// resulting status. A second request while one is pending is ignored.
func (ui *UserInterface) submit(ctx context.Context) {
	ui.mutex.Lock()
	if ui.submitting {
		ui.mutex.Unlock()
		return
	}
	ui.submitting = true
	ui.status = "submitting..."
	ui.mutex.Unlock()

	go func() {
		handle, err := ui.runner.Run(ctx)

		ui.mutex.Lock()
		defer ui.mutex.Unlock()
		ui.submitting = false
		if err != nil {
			ui.status = err.Error()
			return
		}
		ui.status = handle.String()
	}()
}

func (ui *UserInterface) setStatus(status string) {
	ui.mutex.Lock()
	defer ui.mutex.Unlock()
	ui.status = status
}

func (ui *UserInterface) Status() string {
	ui.mutex.Lock()
	defer ui.mutex.Unlock()
	return ui.status
}

func (ui *UserInterface) UpdateUI() {
	width, height := termui.TerminalDimensions()

	formList := widgets.NewList()
	formList.Title = "Backtest Trading Configuration"
	formList.TitleStyle.Fg = termui.ColorYellow
	formList.BorderStyle.Fg = termui.ColorYellow
	formList.Rows = ui.form.Rows()
	formList.SelectedRow = ui.form.Selected()
	formList.SelectedRowStyle = termui.NewStyle(termui.ColorBlack, termui.ColorCyan)
	formList.SetRect(0, 0, formWidth, len(formList.Rows)+2)

	help := widgets.NewParagraph()
	help.Title = "Keys"
	help.Text = "up/down move  enter edit  r run  s stop  q quit\n"
	help.Text += "state: "
	if ui.runner.Active() {
		help.Text += "[running](fg:green)"
	} else {
		help.Text += "idle"
	}
	help.Text += "\n" + ui.Status()
	help.SetRect(0, len(formList.Rows)+2, formWidth, len(formList.Rows)+7)

	logList := widgets.NewList()
	logList.Title = fmt.Sprintf("Logs (%d)", ui.logBuffer.Len())
	logList.Rows = DisplayLines(ui.logBuffer.Lines())
	logList.WrapText = false
	logList.SetRect(formWidth, 0, width, height)
	if len(logList.Rows) > 0 {
		logList.ScrollBottom()
	}

	termui.Render(formList, help, logList)
}
