package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want CommandMsg
		ok   bool
	}{
		{"sync", CommandMsg{Name: "sync"}, true},
		{"  Folder   Notes/Work ", CommandMsg{Name: "folder", Arg: "Notes/Work"}, true},
		{"folder", CommandMsg{Name: "folder"}, true},
		{"   ", CommandMsg{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := Parse(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
