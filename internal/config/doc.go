// Package config manages the ubnt-discover configuration file.
//
// The YAML file holds two things: the responder boot time persisted by
// `serve --persist-boot-time`, so advertised uptime keeps counting across
// restarts, and user preferences that provide defaults for CLI flags.
//
// # Configuration File Location
//
//   - $UBNT_DISCOVER_CONFIG_DIR/config.yaml when the variable is set
//   - Linux: $XDG_CONFIG_HOME/ubnt-discover/config.yaml or $HOME/.config/ubnt-discover/config.yaml
//   - macOS: $HOME/.config/ubnt-discover/config.yaml
//   - Windows: %LOCALAPPDATA%\ubnt-discover\config.yaml
//
// # Usage Example
//
//	registry, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
//	if _, ok := registry.BootTime(); !ok {
//	    registry.SetBootTime(time.Now())
//	    if err := registry.Save(); err != nil {
//	        return err
//	    }
//	}
//
// # Thread Safety
//
// A Registry is a plain value; callers synchronize access themselves. Saves
// are serialized within the process and are atomic (temp file + rename).
package config
