package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktimer/worktimer/internal/models"
)

func TestKeywordMatch(t *testing.T) {
	apps := []models.WorkApp{{Identity: "code", Label: "code"}}

	tests := []struct {
		name   string
		sample string
		apps   []models.WorkApp
		want   string
		found  bool
	}{
		{"substring in title", "Visual Studio Code", apps, "code", true},
		{"no substring", "Notepad", apps, "", false},
		{"case insensitive", "main.go - CODE", apps, "code", true},
		{"empty sample", "", apps, "", false},
		{"empty list", "Visual Studio Code", nil, "", false},
		{
			name:   "first in list order wins",
			sample: "Visual Studio Code - Terminal",
			apps:   []models.WorkApp{{Identity: "terminal"}, {Identity: "code"}},
			want:   "terminal",
			found:  true,
		},
		{
			name:   "empty keyword never matches",
			sample: "anything",
			apps:   []models.WorkApp{{Identity: ""}},
			found:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Keyword{}.Match(tt.sample, tt.apps)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got.Identity)
		})
	}
}

func TestExecutableMatch(t *testing.T) {
	apps := []models.WorkApp{{Identity: "Code.exe", Label: "Code"}}

	tests := []struct {
		sample string
		found  bool
	}{
		{"Code.exe", true},
		{"code.EXE", true},
		{"  code.exe ", true},
		{"Codex.exe", false},
		{"Code", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.sample, func(t *testing.T) {
			_, ok := Executable{}.Match(tt.sample, apps)
			assert.Equal(t, tt.found, ok)
		})
	}
}

func TestExecutableNormalize(t *testing.T) {
	e := Executable{}
	assert.Equal(t, "code.exe", e.Normalize("Code.exe"))
	assert.Equal(t, "code.exe", e.Normalize(`  /usr/share/code/Code.exe `))
	assert.Equal(t, "", e.Normalize("   "))
	assert.Equal(t, "code", e.DefaultLabel("Code.exe"))
	assert.Equal(t, "firefox", e.DefaultLabel("firefox"))
}

func TestKeywordNormalize(t *testing.T) {
	k := Keyword{}
	assert.Equal(t, "Visual Studio", k.Normalize("  Visual Studio "))
	assert.Equal(t, "Visual Studio", k.DefaultLabel("Visual Studio"))
}

func TestNew(t *testing.T) {
	s, err := New("keyword")
	require.NoError(t, err)
	assert.Equal(t, KeywordName, s.Name())
	assert.Equal(t, SourceWindowTitle, s.Source())
	assert.Equal(t, 200, s.SessionCap())

	s, err = New("Executable")
	require.NoError(t, err)
	assert.Equal(t, ExecutableName, s.Name())
	assert.Equal(t, SourceExecutable, s.Source())
	assert.Equal(t, 500, s.SessionCap())

	s, err = New("")
	require.NoError(t, err)
	assert.Equal(t, ExecutableName, s.Name())

	_, err = New("regex")
	assert.Error(t, err)
}
