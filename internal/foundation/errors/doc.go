// Package errors classifies dbnormalizer failures.
//
// Every error that reaches the command line is a *ClassifiedError. Its
// ErrorCategory picks the process exit code (see ErrorCategory.ExitCode), its
// RetryStrategy tells the CLI whether to print the cause (syntax errors carry
// the caret-marked source line there), and its context is logged as a slog
// group.
package errors
