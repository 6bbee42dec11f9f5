// Package actions implements the smartpick commands on top of the engine.
//
// Each action takes a runtime.Context and an options struct, prints through
// the context's Splog and returns an error the CLI reports.
package actions
