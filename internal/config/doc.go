// Package config provides user configuration management for fluxled.
//
// This package manages a YAML configuration file holding connection
// defaults, device aliases, named custom patterns and extra color names.
// The configuration follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/fluxled/config.yaml or $HOME/.config/fluxled/config.yaml
//   - macOS: $HOME/.config/fluxled/config.yaml
//   - Windows: %LOCALAPPDATA%\fluxled\config.yaml
//
// FLUXLED_CONFIG overrides the location. A missing file is not an error;
// the built-in defaults apply.
//
// # Example File
//
//	version: 1
//	defaults:
//	  port: 5577
//	  timeout: 5s
//	  retries: 2
//	  discovery_timeout: 10s
//	  broadcast_address: 255.255.255.255
//	devices:
//	  desk:
//	    address: 192.168.1.20
//	    model: "0x44"
//	patterns:
//	  police:
//	    transition: strobe
//	    speed: 80
//	    colors: [red, blue]
//	colors:
//	  sunset: "#ff5e3a"
//
// # Discovery Results
//
// Scans are never persisted. Aliases are only written by explicit calls to
// Save.
//
// # Thread Safety
//
// The global configuration uses sync.Once for safe initialization across
// goroutines. File operations are protected by a mutex to ensure atomic
// writes.
package config
