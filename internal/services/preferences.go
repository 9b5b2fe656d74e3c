package services

import (
	"context"
	"log/slog"

	"moneybook/internal/core"
	"moneybook/internal/storage"
)

// ThemeKey is the fixed key holding the theme preference. It shares the
// key-value substrate with the financial data but is otherwise unrelated.
const ThemeKey = "theme_preference"

// Preferences stores the small flat settings that never joined the
// relational model.
type Preferences struct {
	repo *storage.Repository
}

func NewPreferences(repo *storage.Repository) *Preferences {
	return &Preferences{repo: repo}
}

// GetTheme returns the stored theme, defaulting to light when unset.
func (p *Preferences) GetTheme(ctx context.Context) (core.Theme, error) {
	value, ok, err := p.repo.GetValue(ctx, ThemeKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return core.ThemeLight, nil
	}

	theme := core.Theme(value)
	if err := theme.Validate(); err != nil {
		// A corrupt value falls back to the default rather than
		// wedging the UI, but never silently.
		slog.WarnContext(ctx, "Stored theme is invalid, falling back to default",
			"stored", value, "default", core.ThemeLight)
		return core.ThemeLight, nil
	}
	return theme, nil
}

func (p *Preferences) SetTheme(ctx context.Context, theme core.Theme) error {
	if err := theme.Validate(); err != nil {
		return err
	}
	return p.repo.SetValue(ctx, ThemeKey, string(theme))
}
