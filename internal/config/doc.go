// Package config manages smartpick configuration.
//
// It handles:
//   - The repository config file in .git/.smartpick_config
//   - Defaults for every key when the file or a key is missing
//   - Command line overrides given as key=value pairs
package config
