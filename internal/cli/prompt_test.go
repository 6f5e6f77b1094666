package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{name: "yes", input: "yes\n", want: true},
		{name: "y uppercase", input: "Y\n", want: true},
		{name: "no", input: "n\n", def: true, want: false},
		{name: "anything else", input: "sure\n", def: true, want: false},
		{name: "empty takes default true", input: "\n", def: true, want: true},
		{name: "empty takes default false", input: "\n", def: false, want: false},
		{name: "closed input", input: "", def: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			confirm := terminalConfirm(strings.NewReader(tt.input), &out)

			assert.Equal(t, tt.want, confirm("Proceed?", tt.def))
			assert.Contains(t, out.String(), "Proceed?")
		})
	}
}

func TestTerminalConfirmHint(t *testing.T) {
	var out bytes.Buffer
	terminalConfirm(strings.NewReader("\n"), &out)("Attach?", true)
	assert.Contains(t, out.String(), "[Y/n]")
}
