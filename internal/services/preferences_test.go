package services

import (
	"context"
	"errors"
	"testing"

	"moneybook/internal/core"
)

func TestThemeRoundtrip(t *testing.T) {
	repo := newTestRepo(t)
	prefs := NewPreferences(repo)
	ctx := context.Background()

	theme, err := prefs.GetTheme(ctx)
	if err != nil || theme != core.ThemeLight {
		t.Fatalf("expected default light theme, got %q err=%v", theme, err)
	}

	if err := prefs.SetTheme(ctx, core.ThemeDark); err != nil {
		t.Fatalf("set: %v", err)
	}
	theme, err = prefs.GetTheme(ctx)
	if err != nil || theme != core.ThemeDark {
		t.Fatalf("expected dark theme, got %q err=%v", theme, err)
	}

	if err := prefs.SetTheme(ctx, core.Theme("sepia")); !errors.Is(err, core.ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}
}

func TestGetThemeCorruptValueFallsBack(t *testing.T) {
	repo := newTestRepo(t)
	prefs := NewPreferences(repo)
	ctx := context.Background()

	// A value that never came from SetTheme.
	if err := repo.SetValue(ctx, ThemeKey, "sepia"); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	theme, err := prefs.GetTheme(ctx)
	if err != nil {
		t.Fatalf("expected fallback, got error %v", err)
	}
	if theme != core.ThemeLight {
		t.Fatalf("expected light fallback, got %q", theme)
	}

	// The stored value is left alone; only the read falls back.
	value, ok, err := repo.GetValue(ctx, ThemeKey)
	if err != nil || !ok || value != "sepia" {
		t.Fatalf("expected stored value untouched, got %q ok=%v err=%v", value, ok, err)
	}
}
