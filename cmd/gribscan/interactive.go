package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/meteokit/grib2"
	"github.com/meteokit/grib2/scanner"
	"github.com/meteokit/grib2/section"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2D7D9A")).
			Padding(0, 1)

	msgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2D7D9A"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browserState int

const (
	stateList browserState = iota
	stateDetail
	stateFilter
)

type browserModel struct {
	err      error
	file     *grib2.File
	filename string

	msgs     []*scanner.Message
	selected int
	top      int
	height   int
	width    int

	detail viewport.Model
	filter textinput.Model
	state  browserState
}

type loadedMsg struct {
	err  error
	file *grib2.File
	warn error
}

func newBrowserModel(filename string) *browserModel {
	filter := textinput.New()
	filter.Prompt = "filter: "
	filter.Placeholder = "name=value,name=value"
	filter.Width = 50
	return &browserModel{
		filename: filename,
		height:   24,
		width:    80,
		detail:   viewport.New(78, 20),
		filter:   filter,
		state:    stateList,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return m.loadFile
}

func (m *browserModel) loadFile() tea.Msg {
	f, err := grib2.Open(m.filename)
	if f == nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{file: f, warn: err}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width - 2
		m.detail.Height = msg.Height - 4

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.file = msg.file
		m.err = msg.warn
		m.msgs = m.file.Index().Messages()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateFilter {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			if m.file != nil {
				m.file.Close()
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateList && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateList && m.selected < len(m.msgs)-1 {
				m.selected++
			}

		case "enter":
			if m.state == stateList && len(m.msgs) > 0 {
				m.detail.SetContent(m.renderDetail(m.msgs[m.selected]))
				m.detail.GotoTop()
				m.state = stateDetail
			}

		case "/":
			if m.state == stateList {
				m.state = stateFilter
				m.filter.Focus()
				return m, textinput.Blink
			}

		case "esc":
			if m.state == stateDetail {
				m.state = stateList
			}
		}
	}

	if m.state == stateDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *browserModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.applyFilter(m.filter.Value())
		m.filter.Blur()
		m.state = stateList
		return m, nil
	case "esc":
		m.filter.Blur()
		m.filter.SetValue("")
		m.msgs = m.file.Index().Messages()
		m.selected = 0
		m.state = stateList
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m *browserModel) applyFilter(expr string) {
	if strings.TrimSpace(expr) == "" {
		m.msgs = m.file.Index().Messages()
		m.selected = 0
		return
	}
	preds, err := parsePredicates(expr)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.msgs = m.file.Select(preds)
	m.selected = 0
}

func (m *browserModel) renderDetail(msg *scanner.Message) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Message %d  offset %d  length %d\n", msg.Number, msg.Offset, msg.Length)
	fmt.Fprintf(&b, "Discipline %d, edition %d\n", msg.Discipline, msg.Edition)
	if msg.IsSubmessage {
		fmt.Fprintf(&b, "Submessage restarting at section %d (offset %d)\n",
			msg.SubmessageBeginSection, msg.SubmessageOffset)
	}
	if t := msg.RefTime(); !t.IsZero() {
		fmt.Fprintf(&b, "Reference time %s\n", t.Format("2006-01-02 15:04:05"))
	}
	if msg.Err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Decode: %v", msg.Err)))
		b.WriteString("\n")
	}
	b.WriteString("\nSections:\n")
	for _, s := range msg.Sections {
		if s.Valid() {
			fmt.Fprintf(&b, "  %d: offset %-10d length %d\n", s.Number, s.Offset, s.Length)
		}
	}
	if msg.BitmapFlag == 254 && msg.Bitmap.Valid() {
		fmt.Fprintf(&b, "  bitmap reused from offset %d\n", msg.Bitmap.Offset)
	}

	renderView(&b, "Identification", msg.Identification)
	renderView(&b, "Grid definition", msg.Grid)
	renderView(&b, "Product definition", msg.Product)
	renderView(&b, "Data representation", msg.Packing)
	return b.String()
}

// renderView prints one decoded section's fields, sorted by name.
func renderView(b *strings.Builder, label string, view section.FieldView) {
	// A typed nil pointer still satisfies the interface; test the concrete
	// pointers at the call boundary instead.
	switch v := view.(type) {
	case *section.Identification:
		if v == nil {
			return
		}
	case *section.GridDefinition:
		if v == nil {
			return
		}
	case *section.ProductDefinition:
		if v == nil {
			return
		}
	case *section.DataRepresentation:
		if v == nil {
			return
		}
	}

	fmt.Fprintf(b, "\n%s (template %d):\n", label, view.TemplateNumber())
	for _, name := range view.Names() {
		val, err := view.Get(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(b, "  %s = %v\n", fieldStyle.Render(name), val)
	}
}

func (m *browserModel) View() string {
	if m.err != nil && m.file == nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.file == nil {
		return "Scanning file..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("GRIB2 Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Warning: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.state {
	case stateList, stateFilter:
		m.renderList(&b)
		if m.state == stateFilter {
			b.WriteString("\n")
			b.WriteString(m.filter.View())
			b.WriteString("\n")
			b.WriteString(helpStyle.Render("enter apply • esc clear"))
		} else {
			b.WriteString("\n")
			b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • / filter • q quit"))
		}

	case stateDetail:
		b.WriteString(m.detail.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}

func (m *browserModel) renderList(b *strings.Builder) {
	if len(m.msgs) == 0 {
		b.WriteString("No messages match.\n")
		return
	}

	visible := m.height - 6
	if visible < 1 {
		visible = 1
	}
	if m.selected < m.top {
		m.top = m.selected
	}
	if m.selected >= m.top+visible {
		m.top = m.selected - visible + 1
	}

	end := m.top + visible
	if end > len(m.msgs) {
		end = len(m.msgs)
	}
	for i := m.top; i < end; i++ {
		line := truncate(formatMessage(m.msgs[i]), m.width-2)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(msgStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newBrowserModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
