// Package logging configures structured logging for the process.
//
// The package is a thin layer over log/slog: New builds a *slog.Logger from
// a level and format, and the context helpers carry request-scoped fields
// (request id, provider, model) through call chains so every layer logs the
// same correlation keys.
package logging
