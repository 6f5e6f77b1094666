package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `# development container
image golang:1.24

mount ~/.cache/go-build:/root/.cache/go-build
launch_command sh -c 'go run ./cmd/server --port 8080'
label description "a quoted value"
expose 8080:8080 \
       9090:9090
container_name $(container_name)-dev
image
`

	statements, err := Parse(strings.NewReader(input), envOf(nil))
	require.NoError(t, err)

	want := []Statement{
		{Name: "image", Args: []string{"golang:1.24"}, Line: 2},
		{Name: "mount", Args: []string{"~/.cache/go-build:/root/.cache/go-build"}, Line: 4},
		{Name: "launch_command", Args: []string{"sh", "-c", "go run ./cmd/server --port 8080"}, Line: 5},
		{Name: "label", Args: []string{"description", "a quoted value"}, Line: 6},
		{Name: "expose", Args: []string{"8080:8080", "9090:9090"}, Line: 7},
		{Name: "container_name", Args: []string{"$(container_name)-dev"}, Line: 9},
		{Name: "image", Args: []string{}, Line: 10},
	}
	require.Len(t, statements, len(want))
	for i := range want {
		assert.Equal(t, want[i].Name, statements[i].Name)
		assert.Equal(t, want[i].Line, statements[i].Line)
		assert.ElementsMatch(t, want[i].Args, statements[i].Args)
	}
}

func TestParseRejectsShellOperators(t *testing.T) {
	_, err := Parse(strings.NewReader("image alpine; rm -rf /\n"), envOf(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestParseUnterminatedQuote(t *testing.T) {
	_, err := Parse(strings.NewReader("\nlabel 'open\n"), envOf(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseExpandsEnv(t *testing.T) {
	env := envOf(map[string]string{
		"HOME": "/home/ada",
		"USER": "ada",
		"BIO":  `likes "quotes" and spaces`,
	})

	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "bare", line: "mount $HOME/.ssh:/root/.ssh:ro", want: []string{"/home/ada/.ssh:/root/.ssh:ro"}},
		{name: "braces", line: "env OWNER=${USER}", want: []string{"OWNER=ada"}},
		{name: "double quotes", line: `label owner "$USER"`, want: []string{"owner", "ada"}},
		{name: "single quotes stay literal", line: `env 'PROMPT=$HOME'`, want: []string{"PROMPT=$HOME"}},
		{name: "escaped dollar", line: `env PROMPT=\$HOME`, want: []string{"PROMPT=$HOME"}},
		{name: "unset", line: "env EMPTY=$NOPE", want: []string{"EMPTY="}},
		{name: "value is one word", line: "label bio $BIO", want: []string{"bio", `likes "quotes" and spaces`}},
		{name: "primitive substitution untouched", line: "container_hostname $(container_name).local", want: []string{"$(container_name).local"}},
		{name: "lone dollar", line: "env PRICE=5$", want: []string{"PRICE=5$"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statements, err := Parse(strings.NewReader(tt.line), env)
			require.NoError(t, err)
			require.Len(t, statements, 1)
			assert.Equal(t, tt.want, statements[0].Args)
		})
	}
}

func TestStatementString(t *testing.T) {
	assert.Equal(t, "image alpine", Statement{Name: "image", Args: []string{"alpine"}}.String())
	assert.Equal(t, "detach", Statement{Name: "detach"}.String())
}
