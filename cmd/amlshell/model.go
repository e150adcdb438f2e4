package main

import (
	"fmt"
	"strconv"
	"strings"

	"amlvm/ns"
	"amlvm/value"
	"amlvm/vm"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
)

type mode int

const (
	modeBrowse mode = iota
	modeArgs
)

// stackSample is one single-stepped snapshot of the four execution stacks,
// captured by invoke's live trace so the dump pane can show how a call
// unwound instead of just its final answer.
type stackSample struct {
	Step     int
	Contexts int
	Blocks   int
	Items    int
	Operands int
}

type model struct {
	engine *vm.Engine
	cur    *ns.Node
	cursor int

	mode     mode
	pending  *ns.Node
	argInput string

	showDump  bool
	status    string
	err       error
	lastTrace []stackSample
}

func newModel(e *vm.Engine) model {
	return model{engine: e, cur: e.Root}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.mode == modeArgs {
		return m.updateArgs(keyMsg)
	}
	return m.updateBrowse(keyMsg)
}

func (m model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	children := m.cur.Children()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(children)-1 {
			m.cursor++
		}
	case "enter", "l", "right":
		if m.cursor < len(children) {
			m.cur = children[m.cursor]
			m.cursor = 0
			m.status = ""
			m.err = nil
		}
	case "backspace", "h", "left":
		if p := m.cur.Parent(); p != nil {
			m.cur = p
			m.cursor = 0
			m.status = ""
			m.err = nil
		}
	case "i":
		if m.cursor < len(children) {
			target := children[m.cursor]
			if body := target.Method(); body != nil && body.Override == nil && body.ArgCount > 0 {
				m.mode = modeArgs
				m.pending = target
				m.argInput = ""
				return m, nil
			}
			m.evaluate(target, nil)
		}
	case "d":
		m.showDump = !m.showDump
	}
	return m, nil
}

func (m model) updateArgs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.pending = nil
		m.argInput = ""
	case tea.KeyEnter:
		target := m.pending
		args, err := parseArgs(m.argInput)
		m.mode = modeBrowse
		m.pending = nil
		m.argInput = ""
		if err != nil {
			m.err = err
			return m, nil
		}
		m.evaluate(target, args)
	case tea.KeyBackspace:
		if len(m.argInput) > 0 {
			m.argInput = m.argInput[:len(m.argInput)-1]
		}
	case tea.KeyRunes:
		m.argInput += string(msg.Runes)
	}
	return m, nil
}

// evaluate reads target's current value, invoking it (with a live,
// single-stepped trace of the four stacks when it is a non-override
// Method) when target names one.
func (m *model) evaluate(target *ns.Node, args []*value.Variable) {
	m.err = nil
	m.lastTrace = nil

	body := target.Method()
	if body == nil {
		v, err := m.engine.ReadNodeValue(target)
		m.report(v, err)
		return
	}
	if body.Override != nil {
		v, err := m.engine.Invoke(target, args)
		m.report(v, err)
		return
	}

	itemDepth, operandDepth, err := m.engine.BeginCall(target, args)
	if err != nil {
		m.err = err
		return
	}
	step := 0
	for m.engine.ItemDepth() > itemDepth {
		if err := m.engine.Step(); err != nil {
			m.err = err
			return
		}
		step++
		m.lastTrace = append(m.lastTrace, stackSample{
			Step:     step,
			Contexts: m.engine.ContextDepth(),
			Blocks:   m.engine.BlockDepth(),
			Items:    m.engine.ItemDepth(),
			Operands: m.engine.OperandDepth(),
		})
	}
	m.report(m.engine.EndCall(operandDepth), nil)
}

func (m *model) report(v *value.Variable, err error) {
	if err != nil {
		m.err = err
		return
	}
	m.status = "-> " + formatValue(v)
}

func parseArgs(s string) ([]*value.Variable, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	args := make([]*value.Variable, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", p, err)
		}
		args = append(args, value.NewInteger(n))
	}
	return args, nil
}

func formatValue(v *value.Variable) string {
	if v == nil {
		return "<none>"
	}
	switch value.GetType(v) {
	case value.TypeInteger:
		return fmt.Sprintf("Integer 0x%x", v.Integer())
	case value.TypeString:
		return fmt.Sprintf("String %q", v.StringVal())
	case value.TypeBuffer:
		return fmt.Sprintf("Buffer[%d]", v.Len())
	case value.TypePackage:
		return fmt.Sprintf("Package[%d]", v.Len())
	case value.TypeDevice:
		return "Device"
	default:
		return "None"
	}
}

func typeLabel(t ns.Type) string {
	switch t {
	case ns.TypeRoot:
		return "Root"
	case ns.TypeDevice:
		return "Device"
	case ns.TypeThermalZone:
		return "ThermalZone"
	case ns.TypePowerResource:
		return "PowerResource"
	case ns.TypeEvent:
		return "Event"
	case ns.TypeMutex:
		return "Mutex"
	case ns.TypeName:
		return "Name"
	case ns.TypeMethod:
		return "Method"
	case ns.TypeAlias:
		return "Alias"
	case ns.TypeOperationRegion:
		return "OpRegion"
	case ns.TypeField:
		return "Field"
	case ns.TypeIndexField:
		return "IndexField"
	case ns.TypeBufferField:
		return "BufferField"
	case ns.TypeProcessor:
		return "Processor"
	default:
		return "?"
	}
}

func path(n *ns.Node) string {
	var segs []string
	for cur := n; cur != nil && cur.Parent() != nil; cur = cur.Parent() {
		segs = append([]string{cur.Name()}, segs...)
	}
	return `\` + strings.Join(segs, ".")
}

// nodeDump is the payload go-spew renders for the dump pane: it exposes
// each node kind's interesting unexported fields by reaching for the
// typed payload accessor rather than the Node struct itself.
type nodeDump struct {
	Name  string
	Type  string
	Value interface{}
}

func dumpNode(n *ns.Node) nodeDump {
	d := nodeDump{Name: n.Name(), Type: typeLabel(n.Type())}
	switch n.Type() {
	case ns.TypeName:
		d.Value = n.Object()
	case ns.TypeMethod:
		d.Value = n.Method()
	case ns.TypeOperationRegion:
		space, base, length, override := n.Region()
		d.Value = fmt.Sprintf("space=%d base=0x%x length=0x%x override=%v", space, base, length, override != nil)
	case ns.TypeField, ns.TypeIndexField, ns.TypeBufferField:
		d.Value = n.FieldInfo()
	}
	return d
}

func (m model) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true)
	selected := lipgloss.NewStyle().Reverse(true)

	fmt.Fprintf(&b, "%s\n\n", title.Render(path(m.cur)))

	children := m.cur.Children()
	for i, c := range children {
		line := fmt.Sprintf("%-4s %-12s", c.Name(), typeLabel(c.Type()))
		if i == m.cursor {
			line = selected.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(children) == 0 {
		b.WriteString("(no children)\n")
	}
	b.WriteByte('\n')

	switch {
	case m.mode == modeArgs:
		fmt.Fprintf(&b, "invoke %s args (comma-separated integers; Enter to run, Esc to cancel): %s_\n",
			m.pending.Name(), m.argInput)
	case m.err != nil:
		fmt.Fprintf(&b, "error: %s\n", m.err)
	case m.status != "":
		fmt.Fprintf(&b, "%s\n", m.status)
	}

	b.WriteString("\nj/k move  enter/l descend  backspace/h up  i invoke/read  d dump  q quit\n")

	if m.showDump {
		b.WriteString("\n--- dump ---\n")
		if m.cursor < len(children) {
			b.WriteString(spew.Sdump(dumpNode(children[m.cursor])))
		}
		if len(m.lastTrace) > 0 {
			b.WriteString(spew.Sdump(m.lastTrace))
		}
	}

	return b.String()
}
