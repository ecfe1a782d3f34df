// Package theme implements the light/dark preference shared by every page.
package theme

import (
	"context"
	"fmt"
	"log/slog"

	"mailliam/internal/logger"
	"mailliam/internal/session"
)

// StorageKey is the client state key holding the preference
const StorageKey = "theme"

// Preference is the rendered color scheme
type Preference string

const (
	Light Preference = "light"
	Dark  Preference = "dark"
)

// Parse maps a stored value to a Preference; anything but "dark" is light
func Parse(value string) Preference {
	if Preference(value) == Dark {
		return Dark
	}
	return Light
}

// Toggle returns the opposite preference
func (p Preference) Toggle() Preference {
	if p == Dark {
		return Light
	}
	return Dark
}

// Class is the class applied to the document root
func (p Preference) Class() string {
	if p == Dark {
		return "dark"
	}
	return ""
}

// ToggleLabel is the caption of the button that switches away from p
func (p Preference) ToggleLabel() string {
	if p == Dark {
		return "☀️ Light Mode"
	}
	return "🌙 Dark Mode"
}

func (p Preference) String() string {
	return string(p)
}

// Controller reads and writes the preference through the client state
type Controller struct {
	state  session.Manager
	logger *slog.Logger
}

// NewController creates a controller backed by state
func NewController(state session.Manager, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{state: state, logger: log}
}

// Current returns the persisted preference. Storage failures are logged and
// fall back to Light.
func (c *Controller) Current(ctx context.Context, clientID string) Preference {
	value, ok, err := c.state.Get(ctx, clientID, StorageKey)
	if err != nil {
		c.logger.Warn("Failed to read theme preference",
			slog.String(logger.KeyClientID, clientID),
			logger.Err(err),
		)
		return Light
	}
	if !ok {
		return Light
	}
	return Parse(value)
}

// Toggle flips and persists the preference. When the write fails the previous
// preference is returned together with the error.
func (c *Controller) Toggle(ctx context.Context, clientID string) (Preference, error) {
	current := c.Current(ctx, clientID)
	next := current.Toggle()

	if err := c.state.Set(ctx, clientID, StorageKey, next.String()); err != nil {
		return current, fmt.Errorf("persist theme: %w", err)
	}

	return next, nil
}
