package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~", home},
		{"~/logs", filepath.Join(home, "logs")},
		{"/abs/~/logs", "/abs/~/logs"},
		{"~other/logs", "~other/logs"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandTilde(tt.in))
		})
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("USER", "tester")
	home, _ := os.UserHomeDir()

	assert.Equal(t, "log", Expand("log", "pkg"))
	assert.Equal(t, "/tmp/pkg/logs", Expand("/tmp/${PACKAGE}/logs", "pkg"))
	assert.Equal(t, "/data/tester", Expand("/data/${USER}", "pkg"))
	assert.Equal(t, home+"/xperf", Expand("${HOME}/xperf", "pkg"))
	assert.Equal(t, "${UNKNOWN}", Expand("${UNKNOWN}", "pkg"))
}
