// Package cli parses command-line arguments into an app configuration. It
// owns flag definitions, usage text, and argument validation, keeping the
// app package free of entrypoint concerns.
package cli
