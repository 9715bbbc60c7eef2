package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ByLCY/labelmaker/generator"
)

const (
	msgFormNoCodes = "Por favor ingrese al menos un código."
	msgFormNoPath  = "Ingrese la ruta del archivo PDF."
	formHelp       = "↑/↓ mover · enter siguiente · ctrl+n agregar código · ctrl+d eliminar código · ctrl+g generar PDF · esc salir"
)

type formStage int

const (
	stageCodes formStage = iota
	stageOutput
	stageBusy
)

// generateFunc 生成 PDF 并写入 path。
type generateFunc func(codes []string, path string) error

type generatedMsg struct {
	path string
	err  error
}

// formModel 是终端表单：一组条码输入框，可增删，至少保留一个。
type formModel struct {
	title     string
	inputs    []textinput.Model
	focus     int
	output    textinput.Model
	stage     formStage
	generate  generateFunc
	status    string
	err       string
	generated []string
}

func newFormModel(title, output string, generate generateFunc) formModel {
	out := textinput.New()
	out.Prompt = "Archivo: "
	out.CharLimit = 4096
	out.Width = 48
	out.SetValue(output)

	m := formModel{
		title:    title,
		inputs:   []textinput.Model{newCodeInput()},
		output:   out,
		generate: generate,
	}
	m.inputs[0].Focus()
	return m
}

func newCodeInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "AF-00123"
	ti.Prompt = "│ "
	ti.CharLimit = 256
	ti.Width = 40
	return ti
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case generatedMsg:
		m.stage = stageCodes
		if msg.err != nil {
			m.status = ""
			m.err = msg.err.Error()
		} else {
			m.err = ""
			m.status = "PDF creado: " + msg.path
			m.generated = append(m.generated, msg.path)
		}
		return m, m.inputs[m.focus].Focus()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.stage {
		case stageBusy:
			return m, nil
		case stageOutput:
			return m.updateOutput(msg)
		default:
			return m.updateCodes(msg)
		}
	}
	return m.updateFocused(msg)
}

func (m formModel) updateCodes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "up", "shift+tab":
		if m.focus > 0 {
			return m, m.setFocus(m.focus - 1)
		}
		return m, nil
	case "down", "tab":
		if m.focus < len(m.inputs)-1 {
			return m, m.setFocus(m.focus + 1)
		}
		return m, nil
	case "enter":
		if m.focus == len(m.inputs)-1 {
			return m, m.addCode()
		}
		return m, m.setFocus(m.focus + 1)
	case "ctrl+n":
		return m, m.addCode()
	case "ctrl+d":
		return m, m.removeCode()
	case "ctrl+g":
		return m.startGenerate()
	}
	return m.updateFocused(msg)
}

func (m formModel) updateOutput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stage = stageCodes
		m.output.Blur()
		return m, m.inputs[m.focus].Focus()
	case "enter":
		path := strings.TrimSpace(m.output.Value())
		if path == "" {
			m.err = msgFormNoPath
			return m, nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			path += ".pdf"
		}
		m.output.Blur()
		m.stage = stageBusy
		m.err = ""
		m.status = "Generando..."
		codes, generate := m.codes(), m.generate
		return m, func() tea.Msg {
			return generatedMsg{path: path, err: generate(codes, path)}
		}
	}
	return m.updateFocused(msg)
}

func (m formModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.stage == stageOutput {
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *formModel) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

// addCode 在当前输入框之后插入一个空输入框并聚焦。
func (m *formModel) addCode() tea.Cmd {
	at := m.focus + 1
	m.inputs = slices.Insert(m.inputs, at, newCodeInput())
	m.err = ""
	return m.setFocus(at)
}

// removeCode 删除当前输入框；只剩一个时清空它。
func (m *formModel) removeCode() tea.Cmd {
	if len(m.inputs) == 1 {
		m.inputs[0].Reset()
		return nil
	}
	m.inputs = slices.Delete(m.inputs, m.focus, m.focus+1)
	m.focus = min(m.focus, len(m.inputs)-1)
	return m.inputs[m.focus].Focus()
}

func (m formModel) startGenerate() (tea.Model, tea.Cmd) {
	if len(m.codes()) == 0 {
		m.status = ""
		m.err = msgFormNoCodes
		return m, nil
	}
	m.err = ""
	m.stage = stageOutput
	m.inputs[m.focus].Blur()
	return m, m.output.Focus()
}

func (m formModel) codes() []string {
	values := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		values[i] = in.Value()
	}
	return generator.Normalize(values)
}

func (m formModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(styleDim.Render(formHelp))
	b.WriteString("\n\n")

	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString(styleDim.Render(fmt.Sprintf("  [%d/%d]", m.focus+1, len(m.inputs))))
	b.WriteString("\n")

	if m.stage == stageOutput {
		b.WriteString("\n")
		b.WriteString(m.output.View())
		b.WriteString("\n")
		b.WriteString(styleDim.Render("enter confirmar · esc volver"))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(styleError.Render(iconError + " " + m.err))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(styleSuccess.Render(iconSuccess) + " " + m.status)
		b.WriteString("\n")
	}
	return b.String()
}

func newFormCmd() *cobra.Command {
	var (
		opts   labelOpts
		output string
	)

	cmd := &cobra.Command{
		Use:   "form",
		Short: "Enter codes in an interactive terminal form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 表单运行时只输出错误日志，避免打乱界面
			quiet := loggerFromContext(cmd.Context()).With()
			quiet.SetLevel(log.ErrorLevel)
			ctx := withLogger(cmd.Context(), quiet)

			gen, cfg, err := opts.newGenerator(ctx)
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.Label.Output
			}

			generate := func(codes []string, path string) error {
				pdf, err := gen.Generate(ctx, codes)
				if err != nil {
					return err
				}
				return writeFile(path, func(p string) error { return os.WriteFile(p, pdf, 0o644) })
			}

			p := tea.NewProgram(newFormModel(cfg.Label.Title, output, generate),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()))
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("终端表单异常退出: %w", err)
			}
			if fm, ok := final.(formModel); ok {
				for _, path := range fm.generated {
					printFile(cmd.OutOrStdout(), "PDF", path)
				}
			}
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&output, "out", "o", "", "default output PDF path")

	return cmd
}
