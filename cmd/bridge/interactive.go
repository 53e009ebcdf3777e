package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.bytecodealliance.org/wit"
	"golang.org/x/term"

	"github.com/wippyai/valuebridge"
	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/host"
	"github.com/wippyai/valuebridge/host/wasmhost"
	"github.com/wippyai/valuebridge/importer"
	"github.com/wippyai/valuebridge/trampoline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	bridge   *valuebridge.Bridge
	closer   func()
	opts     options
	source   string
	result   string
	funcs    []funcInfo
	inputs   []textinput.Model
	selected int
	focusIdx int
	offset   int
	width    int
	height   int
	state    modelState
}

type funcInfo struct {
	proc       *trampoline.Adapter
	resultType string
	params     []paramInfo
}

type paramInfo struct {
	name     string
	typeStr  string
	def      string
	variadic bool
	optional bool
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(opts options) *interactiveModel {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		w, h = 80, 24
	}
	return &interactiveModel{
		opts:   opts,
		state:  stateSelectFunc,
		width:  w,
		height: h,
	}
}

type loadedMsg struct {
	err    error
	bridge *valuebridge.Bridge
	closer func()
	source string
	funcs  []funcInfo
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadHost
}

func (m *interactiveModel) loadHost() tea.Msg {
	h, source, closer, err := openHost(context.Background(), m.opts)
	if err != nil {
		return loadedMsg{err: err}
	}
	b, err := valuebridge.New(h)
	if err != nil {
		closer()
		return loadedMsg{err: err}
	}
	root, _, err := b.Import(host.Separator)
	if err != nil {
		closer()
		return loadedMsg{err: err}
	}

	wh, _ := h.(*wasmhost.Host)
	var funcs []funcInfo
	_ = root.Walk(func(ns *importer.Namespace) error {
		for _, name := range ns.Funcs() {
			funcs = append(funcs, describe(ns.Func(name), wh))
		}
		return nil
	})
	return loadedMsg{bridge: b, closer: closer, source: source, funcs: funcs}
}

// describe collects parameter labels for a callable. WIT types are used
// when the host is a wasm module that declares them.
func describe(a *trampoline.Adapter, wh *wasmhost.Host) funcInfo {
	fi := funcInfo{proc: a}
	sig := a.Signature()
	if sig.Opaque {
		fi.params = []paramInfo{{name: "args", typeStr: "list", variadic: true}}
		return fi
	}
	var types []wit.Type
	if wh != nil {
		var result wit.Type
		types, result, _ = wh.Types(a.Name())
		if result != nil {
			fi.resultType = witTypeStr(result)
		}
	}
	for i, p := range sig.Params {
		pi := paramInfo{
			name:     p.Name,
			typeStr:  p.Type,
			def:      p.Default,
			variadic: p.Variadic,
			optional: p.HasDefault,
		}
		if i < len(types) {
			pi.typeStr = witTypeStr(types[i])
		}
		if pi.typeStr == "" {
			pi.typeStr = "string"
			if p.Variadic {
				pi.typeStr = "list"
			}
		}
		fi.params = append(fi.params, pi)
	}
	return fi
}

func (m *interactiveModel) close() {
	if m.closer != nil {
		m.closer()
		m.closer = nil
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.close()
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				m.close()
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.funcs) == 0 {
					return m, nil
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.bridge = msg.bridge
		m.closer = msg.closer
		m.source = msg.source
		m.funcs = msg.funcs

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected]
	width := m.width / 2
	if width < 20 {
		width = 20
	}
	m.inputs = make([]textinput.Model, len(f.params))
	for i, p := range f.params {
		ti := textinput.New()
		ti.Placeholder = p.typeStr
		if p.optional {
			ti.Placeholder = p.def
		}
		ti.Prompt = p.name + ": "
		ti.Width = width
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

// callFunction passes every filled input by name, so empty optional
// inputs fall back to their defaults. Opaque callables take one list of
// positional arguments.
func (m *interactiveModel) callFunction() tea.Msg {
	f := m.funcs[m.selected]
	if f.proc.Opaque() {
		var args []any
		if len(m.inputs) > 0 && m.inputs[0].Value() != "" {
			items, err := codec.DecodeList(m.inputs[0].Value())
			if err != nil {
				return callResultMsg{err: err}
			}
			for _, it := range items {
				args = append(args, it)
			}
		}
		return m.call(f, args...)
	}

	kw := trampoline.Kwargs{}
	for i, input := range m.inputs {
		v := input.Value()
		if v == "" {
			continue
		}
		if f.params[i].variadic {
			items, err := codec.DecodeList(v)
			if err != nil {
				return callResultMsg{err: err}
			}
			kw[f.params[i].name] = items
			continue
		}
		kw[f.params[i].name] = v
	}
	return m.call(f, kw)
}

func (m *interactiveModel) call(f funcInfo, args ...any) tea.Msg {
	res, err := f.proc.Call(args...)
	if err != nil {
		return callResultMsg{err: err}
	}
	s, err := codec.Encode(res)
	if err != nil {
		s = fmt.Sprintf("%v", res)
	}
	return callResultMsg{result: s}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.bridge == nil {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Value Bridge"))
	b.WriteString(" ")
	b.WriteString(m.source)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		if len(m.funcs) == 0 {
			b.WriteString("No callables found.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			break
		}
		b.WriteString("Select a function to call:\n\n")
		start, end := m.visible()
		for i := start; i < end; i++ {
			f := m.funcs[i]
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + m.formatFunc(f)))
			} else {
				b.WriteString("  " + m.formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.proc.Name())))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(f.params[i].typeStr))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.proc.Name())))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

// visible returns the window of the function list that fits the
// terminal, keeping the selection in view.
func (m *interactiveModel) visible() (int, int) {
	rows := m.height - 6
	if rows < 1 || rows >= len(m.funcs) {
		return 0, len(m.funcs)
	}
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
	return m.offset, m.offset + rows
}

func (m *interactiveModel) formatFunc(f funcInfo) string {
	var params []string
	for _, p := range f.params {
		s := p.name + ": " + typeStyle.Render(p.typeStr)
		if p.optional {
			s = "?" + s + "?"
		}
		if p.variadic {
			s += "..."
		}
		params = append(params, s)
	}
	result := ""
	if f.resultType != "" {
		result = " -> " + typeStyle.Render(f.resultType)
	}
	return funcStyle.Render(f.proc.Name()) + "(" + strings.Join(params, ", ") + ")" + result
}

func witTypeStr(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func runInteractive(opts options) error {
	p := tea.NewProgram(newInteractiveModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
