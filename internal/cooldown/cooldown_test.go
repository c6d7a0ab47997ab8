package cooldown

import (
	"testing"
	"time"
)

func TestGuard_CanSubmit(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	guard := New(30 * time.Second)

	tests := []struct {
		name        string
		lastSuccess time.Time
		want        bool
	}{
		{
			name:        "never submitted",
			lastSuccess: time.Time{},
			want:        true,
		},
		{
			name:        "inside window",
			lastSuccess: now.Add(-10 * time.Second),
			want:        false,
		},
		{
			name:        "just inside window",
			lastSuccess: now.Add(-29 * time.Second),
			want:        false,
		},
		{
			name:        "exactly at window boundary",
			lastSuccess: now.Add(-30 * time.Second),
			want:        true,
		},
		{
			name:        "outside window",
			lastSuccess: now.Add(-31 * time.Second),
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := guard.CanSubmit(tt.lastSuccess, now); got != tt.want {
				t.Errorf("CanSubmit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_DefaultWindow(t *testing.T) {
	if got := New(0).Window(); got != DefaultWindow {
		t.Errorf("Zero window should fall back to default, got %v", got)
	}
	if got := New(-time.Second).Window(); got != DefaultWindow {
		t.Errorf("Negative window should fall back to default, got %v", got)
	}
	if got := New(time.Minute).Window(); got != time.Minute {
		t.Errorf("Explicit window should be kept, got %v", got)
	}
}
