package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDefaultKeyMap(t *testing.T) {
	k := DefaultKeyMap()

	tests := []struct {
		key     string
		binding key.Binding
		want    bool
	}{
		{"s", k.Sync, true},
		{"x", k.Test, true},
		{"t", k.Test, false},
		{"d", k.Delete, true},
		{"x", k.Delete, false},
		{"m", k.Merge, true},
		{"J", k.ContentDown, true},
		{":", k.Command, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, key.Matches(press(tt.key), tt.binding), "key %q", tt.key)
	}
}
