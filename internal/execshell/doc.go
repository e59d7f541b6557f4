// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines the abstractions portal-audit uses to
// run the log report generator and the document finalizer in a testable manner.
package execshell
