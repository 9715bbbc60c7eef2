package cli

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generateCall struct {
	codes []string
	path  string
}

func newTestForm(err error) (formModel, *[]generateCall) {
	var calls []generateCall
	m := newFormModel("Activos Fijos Etiquetas", "etiquetas.pdf", func(codes []string, path string) error {
		calls = append(calls, generateCall{codes: codes, path: path})
		return err
	})
	return m, &calls
}

func send(m formModel, msg tea.Msg) (formModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(formModel), cmd
}

func typeText(m formModel, text string) formModel {
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func TestFormAddAndRemoveEntries(t *testing.T) {
	m, _ := newTestForm(nil)
	require.Len(t, m.inputs, 1)

	m = typeText(m, "AF-1")
	m, _ = send(m, key(tea.KeyEnter))
	assert.Len(t, m.inputs, 2, "在最后一个输入框按回车应新增输入框")
	assert.Equal(t, 1, m.focus)

	m = typeText(m, "AF-2")
	m, _ = send(m, key(tea.KeyCtrlN))
	m = typeText(m, "AF-3")
	assert.Equal(t, []string{"AF-1", "AF-2", "AF-3"}, m.codes())

	// 删除中间一项
	m, _ = send(m, key(tea.KeyUp))
	assert.Equal(t, 1, m.focus)
	m, _ = send(m, key(tea.KeyCtrlD))
	assert.Equal(t, []string{"AF-1", "AF-3"}, m.codes())
	assert.Equal(t, 1, m.focus)

	m, _ = send(m, key(tea.KeyCtrlD))
	m, _ = send(m, key(tea.KeyCtrlD))
	require.Len(t, m.inputs, 1, "至少保留一个输入框")
	assert.Empty(t, m.codes())
}

func TestFormRequiresAtLeastOneCode(t *testing.T) {
	m, calls := newTestForm(nil)
	m = typeText(m, "   ")
	m, _ = send(m, key(tea.KeyCtrlG))

	assert.Equal(t, stageCodes, m.stage)
	assert.Equal(t, msgFormNoCodes, m.err)
	assert.Contains(t, m.View(), msgFormNoCodes)
	assert.Empty(t, *calls)
}

func TestFormGenerate(t *testing.T) {
	m, calls := newTestForm(nil)
	m = typeText(m, "AF-1")
	m, _ = send(m, key(tea.KeyEnter))
	m = typeText(m, "AF-2")

	m, _ = send(m, key(tea.KeyCtrlG))
	require.Equal(t, stageOutput, m.stage)
	assert.Contains(t, m.View(), "Archivo:")

	m.output.SetValue("salida/inventario")
	m, cmd := send(m, key(tea.KeyEnter))
	require.Equal(t, stageBusy, m.stage)
	require.NotNil(t, cmd)

	// 生成期间忽略按键
	busy, _ := send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, stageBusy, busy.stage)

	m, _ = send(m, cmd())
	assert.Equal(t, stageCodes, m.stage)
	assert.Equal(t, "PDF creado: salida/inventario.pdf", m.status)
	assert.Equal(t, []string{"salida/inventario.pdf"}, m.generated)
	require.Len(t, *calls, 1)
	assert.Equal(t, generateCall{codes: []string{"AF-1", "AF-2"}, path: "salida/inventario.pdf"}, (*calls)[0])
}

func TestFormGenerateError(t *testing.T) {
	m, _ := newTestForm(errors.New("条码 \"af\" 无法使用 code39 编码"))
	m = typeText(m, "af")
	m, _ = send(m, key(tea.KeyCtrlG))
	m, cmd := send(m, key(tea.KeyEnter))
	require.NotNil(t, cmd)

	m, _ = send(m, cmd())
	assert.Equal(t, stageCodes, m.stage)
	assert.Contains(t, m.err, "code39")
	assert.Empty(t, m.generated)
}

func TestFormOutputPrompt(t *testing.T) {
	m, calls := newTestForm(nil)
	m = typeText(m, "AF-1")
	m, _ = send(m, key(tea.KeyCtrlG))

	m.output.SetValue("  ")
	m, cmd := send(m, key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Equal(t, msgFormNoPath, m.err)

	m, _ = send(m, key(tea.KeyEsc))
	assert.Equal(t, stageCodes, m.stage)
	assert.Empty(t, *calls)

	_, cmd = send(m, key(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
