// Package admin exposes the operator surface: credential pool
// inspection and control, runtime configuration switches, and usage
// summaries. All routes require the shared admin token.
package admin
