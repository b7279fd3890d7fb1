package config

import "time"

// CurrentVersion is the registry file format version
const CurrentVersion = 1

// Registry represents the entire configuration file.
// It stores responder state that must survive restarts and user preferences.
type Registry struct {
	Version     int          `yaml:"version"`
	Responder   *Responder   `yaml:"responder,omitempty"`
	Preferences *Preferences `yaml:"preferences,omitempty"`
}

// Responder holds state for `serve`
type Responder struct {
	// BootTime is the reference point for advertised uptime when
	// --persist-boot-time is used
	BootTime time.Time `yaml:"boot_time,omitempty"`
}

// Preferences supply defaults for flags not given on the command line
type Preferences struct {
	DisplayMode string `yaml:"display_mode,omitempty"` // oneline, edge, everything, json
	Timeout     int    `yaml:"timeout,omitempty"`      // scan timeout in seconds
	LogLevel    string `yaml:"log_level,omitempty"`    // debug, info, warn, error, silent
}

// Default preference values
const (
	DefaultDisplayMode = "oneline"
	DefaultTimeout     = 11
)

func defaultPreferences() *Preferences {
	return &Preferences{
		DisplayMode: DefaultDisplayMode,
		Timeout:     DefaultTimeout,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Responder:   &Responder{},
		Preferences: defaultPreferences(),
	}
}

// BootTime returns the persisted responder boot time, if any
func (r *Registry) BootTime() (time.Time, bool) {
	if r.Responder == nil || r.Responder.BootTime.IsZero() {
		return time.Time{}, false
	}
	return r.Responder.BootTime, true
}

// SetBootTime records the responder boot time, truncated to whole seconds
func (r *Registry) SetBootTime(t time.Time) {
	if r.Responder == nil {
		r.Responder = &Responder{}
	}
	r.Responder.BootTime = t.Truncate(time.Second)
}

// ClearBootTime forgets the persisted boot time
func (r *Registry) ClearBootTime() {
	if r.Responder != nil {
		r.Responder.BootTime = time.Time{}
	}
}

// normalize fills sections missing from an older or hand-written file
func (r *Registry) normalize() {
	if r.Responder == nil {
		r.Responder = &Responder{}
	}
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
}
