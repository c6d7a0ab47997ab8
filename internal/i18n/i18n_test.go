package i18n

import (
	"strings"
	"testing"
)

func TestLocalizer_T(t *testing.T) {
	l := NewLocalizer("en")

	if got := l.T("menu.track"); got != "🎵 Track" {
		t.Errorf("T(menu.track) = %q", got)
	}

	got := l.T("auth.granted", "alice")
	if !strings.Contains(got, "alice") {
		t.Errorf("T should format arguments, got %q", got)
	}

	if got := l.T("no.such.key"); got != "no.such.key" {
		t.Errorf("Unknown key should fall back to the key itself, got %q", got)
	}
}

func TestLocalizer_UnknownLanguageFallsBack(t *testing.T) {
	l := NewLocalizer("xx")

	if got := l.T("menu.album"); got != "💽 Album" {
		t.Errorf("Unknown language should fall back to English, got %q", got)
	}
}

func TestMessages_FormatVerbsResolve(t *testing.T) {
	l := NewLocalizer(DefaultLanguage)

	tests := []struct {
		key  string
		args []interface{}
	}{
		{"prompt.track", []interface{}{"Song", "Artist", "Album"}},
		{"prompt.album_preview", []interface{}{"Artist", "Album", "Tracks"}},
		{"scrobble.failed", []interface{}{"reason"}},
		{"scrobble.cooldown", []interface{}{30}},
		{"admin.alert", []interface{}{"boom"}},
	}

	for _, tt := range tests {
		got := l.T(tt.key, tt.args...)
		if strings.Contains(got, "%!") {
			t.Errorf("T(%s) has a formatting error: %q", tt.key, got)
		}
	}
}
