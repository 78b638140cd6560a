// Package tools provides the subprocess helpers shared by the build, upload
// and simulator commands.
//
// Ownership boundary:
// - command execution and exit-status mapping
//
// - tool-not-found detection
//
// - per-run observation hooks
package tools
