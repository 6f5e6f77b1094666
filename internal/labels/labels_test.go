package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnion(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		members  []string
		want     string
	}{
		{name: "empty", existing: "", members: nil, want: ""},
		{name: "first member", existing: "", members: []string{"p1"}, want: "p1"},
		{name: "sorted", existing: "p2", members: []string{"p1"}, want: "p1 p2"},
		{name: "deduplicated", existing: "p1 p2", members: []string{"p2"}, want: "p1 p2"},
		{name: "unsorted input", existing: "zeta  alpha", members: []string{"mid", "alpha"}, want: "alpha mid zeta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Union(tt.existing, tt.members...))
		})
	}
}

func TestUnionIsIdempotent(t *testing.T) {
	once := Union("", "p1")
	twice := Union(once, "p1")
	assert.Equal(t, once, twice)
}

func TestParseSet(t *testing.T) {
	assert.Empty(t, ParseSet("   "))
	assert.Equal(t, []string{"a", "b"}, ParseSet(" b a b "))
}

func TestComposeFiles(t *testing.T) {
	got := ComposeFiles(map[string]string{
		ComposeKey("p1"):  "/src/p1/compose.yaml",
		ComposeKey("p2"):  "/src/p2/docker-compose.yml",
		ProjectKey("p1"):  "/src/p1/.dock",
		Projects:          "p1 p2",
		"compose.":        "/ignored",
		ComposeKey("p3"):  "",
		"io.dock.managed": "true",
	})

	assert.Equal(t, map[string]string{
		"p1": "/src/p1/compose.yaml",
		"p2": "/src/p2/docker-compose.yml",
	}, got)
}
