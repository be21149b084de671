// Package observability provides OpenTelemetry tracing and metrics for the
// enforcement core, following the RED (Rate, Errors, Duration) pattern.
//
// Initialize once at process startup:
//
//	p, err := observability.New(ctx, observability.DefaultConfig())
//	defer p.Shutdown(ctx)
//
// Wrap an operation:
//
//	ctx, done := p.TrackOperation(ctx, "pep.access_scope")
//	scope, err := enforcer.AccessScope(ctx, ...)
//	done(err)
package observability
