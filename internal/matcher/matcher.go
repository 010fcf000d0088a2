// Package matcher resolves a foreground sample against the configured work apps.
//
// Two interchangeable policies exist: Keyword does a case-insensitive substring
// search of window titles, Executable does a case-insensitive exact comparison
// of executable names. Both are pure functions of their inputs.
package matcher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/worktimer/worktimer/internal/models"
)

const (
	KeywordName    = "keyword"
	ExecutableName = "executable"
)

// Source names the field of the foreground window a strategy matches against.
type Source int

const (
	SourceWindowTitle Source = iota
	SourceExecutable
)

func (s Source) String() string {
	switch s {
	case SourceWindowTitle:
		return "window-title"
	case SourceExecutable:
		return "executable"
	default:
		return "unknown"
	}
}

// Strategy is a matching policy together with the identity rules it implies.
type Strategy interface {
	Name() string
	Source() Source
	// Normalize converts user input into the identity key stored in WorkApp.Identity.
	Normalize(identity string) string
	// DefaultLabel derives a display label when none is given.
	DefaultLabel(identity string) string
	// SessionCap is the default number of sessions kept in history.
	SessionCap() int
	// Match returns the first work app, in list order, that matches sample.
	Match(sample string, apps []models.WorkApp) (models.WorkApp, bool)
}

// New returns the strategy registered under name.
func New(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case KeywordName:
		return Keyword{}, nil
	case ExecutableName, "":
		return Executable{}, nil
	default:
		return nil, fmt.Errorf("unknown matcher %q (valid: %s, %s)", name, KeywordName, ExecutableName)
	}
}

// Keyword matches when a registered keyword appears anywhere in the window title.
type Keyword struct{}

func (Keyword) Name() string    { return KeywordName }
func (Keyword) Source() Source  { return SourceWindowTitle }
func (Keyword) SessionCap() int { return 200 }

func (Keyword) Normalize(identity string) string {
	return strings.TrimSpace(identity)
}

func (Keyword) DefaultLabel(identity string) string {
	return strings.TrimSpace(identity)
}

func (Keyword) Match(sample string, apps []models.WorkApp) (models.WorkApp, bool) {
	if sample == "" {
		return models.WorkApp{}, false
	}
	title := strings.ToLower(sample)
	for _, app := range apps {
		if app.Identity == "" {
			continue
		}
		if strings.Contains(title, strings.ToLower(app.Identity)) {
			return app, true
		}
	}
	return models.WorkApp{}, false
}

// Executable matches when the foreground executable name equals a registered one.
type Executable struct{}

func (Executable) Name() string    { return ExecutableName }
func (Executable) Source() Source  { return SourceExecutable }
func (Executable) SessionCap() int { return 500 }

func (Executable) Normalize(identity string) string {
	name := strings.TrimSpace(identity)
	if name == "" {
		return ""
	}
	return strings.ToLower(filepath.Base(name))
}

func (e Executable) DefaultLabel(identity string) string {
	name := e.Normalize(identity)
	if ext := filepath.Ext(name); ext == ".exe" || ext == ".app" {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func (Executable) Match(sample string, apps []models.WorkApp) (models.WorkApp, bool) {
	name := strings.TrimSpace(sample)
	if name == "" {
		return models.WorkApp{}, false
	}
	for _, app := range apps {
		if strings.EqualFold(name, app.Identity) {
			return app, true
		}
	}
	return models.WorkApp{}, false
}
