// Package cli constructs the portal-audit command-line interface: the run,
// schedule, and clean commands, the layered configuration (embedded defaults,
// optional file, PORTALAUDIT_ environment overrides, flags), and the
// structured logger with its optional rotated log file.
package cli
