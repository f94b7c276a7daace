package ui

import (
	"context"
	"errors"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/sheetsync/internal/ingest"
	"github.com/nconklindev/sheetsync/internal/session"
	"github.com/nconklindev/sheetsync/internal/types"
)

type memReader map[string]string

func (m memReader) Read(_ context.Context, location string) ([]byte, error) {
	body, ok := m[location]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(body), nil
}

type staticFields []types.TargetField

func (s staticFields) ListFields(context.Context) ([]types.TargetField, error) {
	return s, nil
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.Start(context.Background(), session.Options{
		Locations: []string{"staff.csv"},
		Load:      ingest.Options{Reader: memReader{"staff.csv": "姓名,年龄,备注\n张三,30,x\n"}},
		Fields:    staticFields{{ID: "name", Name: "姓名"}, {ID: "age", Name: "年龄"}},
	})
	require.NoError(t, err)
	return s
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

func loaded(t *testing.T, opts Options) Model {
	t.Helper()
	m := InitialModel(opts)
	return send(t, m, sessionLoadedMsg{session: newSession(t)})
}

func TestInitialModel_State(t *testing.T) {
	tests := []struct {
		name      string
		locations []string
		want      state
	}{
		{name: "no files shows picker", want: stateFilePicker},
		{name: "preselected files start loading", locations: []string{"a.csv"}, want: stateLoading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := InitialModel(Options{Locations: tt.locations})
			assert.Equal(t, tt.want, m.state)
		})
	}
}

func TestModel_FilePickerTabNeedsFiles(t *testing.T) {
	m := InitialModel(Options{})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, stateFilePicker, m.state)
}

func TestModel_SessionLoadedAppliesOverrides(t *testing.T) {
	m := loaded(t, Options{Overrides: map[string]string{"备注": "note"}})

	require.Equal(t, stateMapping, m.state)
	id, ok := m.session.Mapping.Get("备注")
	assert.True(t, ok)
	assert.Equal(t, "note", id)
	assert.Contains(t, m.View(), "备注")
}

func TestModel_SessionLoadedError(t *testing.T) {
	m := InitialModel(Options{})
	m = send(t, m, sessionLoadedMsg{err: ingest.ErrEmptyInput})

	assert.Equal(t, stateError, m.state)
	assert.Contains(t, m.View(), ingest.ErrEmptyInput.Error())
}

func TestModel_MappingKeys(t *testing.T) {
	m := loaded(t, Options{})
	store := m.session.Mapping

	id, _ := store.Get("姓名")
	require.Equal(t, "name", id)

	// name -> age
	m = send(t, m, key("right"))
	id, _ = store.Get("姓名")
	assert.Equal(t, "age", id)

	// age -> unset, wrapping past the last field
	m = send(t, m, key("right"))
	_, ok := store.Get("姓名")
	assert.False(t, ok)

	// unset -> age, going backwards
	m = send(t, m, key("left"))
	id, _ = store.Get("姓名")
	assert.Equal(t, "age", id)

	m = send(t, m, key("r"))
	id, _ = store.Get("姓名")
	assert.Equal(t, "name", id)

	m = send(t, m, key("down"))
	assert.Equal(t, 1, m.cursor)
	m = send(t, m, key("x"))
	_, ok = store.Get("年龄")
	assert.False(t, ok)
	assert.Equal(t, stateMapping, m.state)
	assert.NoError(t, m.err)
}

func TestModel_CycleFieldWithoutFields(t *testing.T) {
	s, err := session.Start(context.Background(), session.Options{
		Locations: []string{"staff.csv"},
		Load:      ingest.Options{Reader: memReader{"staff.csv": "姓名\n张三\n"}},
	})
	require.NoError(t, err)

	m := send(t, InitialModel(Options{}), sessionLoadedMsg{session: s})
	m = send(t, m, key("right"))

	assert.Equal(t, stateMapping, m.state)
	assert.NoError(t, m.err)
	_, ok := s.Mapping.Get("姓名")
	assert.False(t, ok)
}

type failingCreator struct{ err error }

func (f failingCreator) CreateRecords(context.Context, []types.ProjectedRecord) (int, error) {
	return 0, f.err
}

func TestModel_Submit(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantState state
	}{
		{name: "dry run", opts: Options{DryRun: true}, wantState: stateComplete},
		{name: "creator error", opts: Options{Creator: failingCreator{err: errors.New("denied")}}, wantState: stateError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loaded(t, tt.opts)

			next, cmd := m.Update(key("enter"))
			m = next.(Model)
			require.Equal(t, stateSubmitting, m.state)
			require.NotNil(t, cmd)

			m = send(t, m, m.submit()())
			assert.Equal(t, tt.wantState, m.state)
			assert.Contains(t, m.View(), "q/enter/esc: exit")

			_, cmd = m.Update(key("esc"))
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
		})
	}
}
