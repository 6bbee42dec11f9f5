// Package utils provides shared utility functions.
//
// These utilities are used across multiple packages and include:
//   - Atomic file replacement for sessions and config
package utils
