package cmd

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkfl/zkptoolkit/app"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/store"
	"github.com/zkfl/zkptoolkit/toolkit"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m tea.Model, msg tea.Msg) (consoleModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	cm, ok := next.(consoleModel)
	require.True(t, ok)
	return cm, cmd
}

func TestConsoleModel(t *testing.T) {
	loads := 0
	load := func() tea.Msg {
		loads++
		return consoleLoadedMsg{
			identities: []*store.IdentityRecord{
				{Name: "alice", PublicKey: []byte{0xaa}},
				{Name: "bob", PublicKey: []byte{0xbb}},
			},
			latest: &store.AggregateRecord{Round: 4, Count: 3},
		}
	}

	m := newConsoleModel(load)
	assert.Contains(t, m.View(), "Loading...")

	m, _ = update(t, m, m.Init()())
	assert.Equal(t, 1, loads)
	view := m.View()
	assert.Contains(t, view, "round 4, 3 proofs")
	assert.Contains(t, view, "Identities (2)")
	assert.Contains(t, view, toolkit.EncodeHex([]byte{0xaa}))

	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("down"))
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.View(), toolkit.EncodeHex([]byte{0xbb}))

	m, _ = update(t, m, key("up"))
	m, _ = update(t, m, key("up"))
	assert.Equal(t, 0, m.cursor)

	m, cmd := update(t, m, key("r"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, 2, loads)

	m.cursor = 1
	m, _ = update(t, m, consoleLoadedMsg{})
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "Latest aggregate: none")

	_, cmd = update(t, m, key("q"))
	require.NotNil(t, cmd)
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit)
}

func TestConsoleLoadsFromService(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), ".config"))
	require.NoError(t, err)
	svc, err := app.NewService(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	kp, _, err := svc.CreateIdentity("alice", false)
	require.NoError(t, err)
	_, err = svc.RegisterIdentity("alice", kp.PublicKey)
	require.NoError(t, err)

	msg, ok := loadConsole(svc)().(consoleLoadedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	assert.Nil(t, msg.latest)
	require.Len(t, msg.identities, 1)
	assert.Equal(t, "alice", msg.identities[0].Name)

	m, _ := update(t, newConsoleModel(nil), msg)
	assert.Contains(t, m.View(), toolkit.EncodeHex(kp.PublicKey))
}
