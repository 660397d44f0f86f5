package services

import "context"

// Scope identifies where in a run a piece of work happens. Each field is
// optional; loggers emit only the ones that are set.
type Scope struct {
	RunID    string
	Stage    string
	Category string
	Subject  string
}

type scopeKey struct{}

// ScopeFromContext returns the scope carried by ctx, or the zero Scope.
func ScopeFromContext(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	scope, _ := ctx.Value(scopeKey{}).(Scope)
	return scope
}

func withScope(ctx context.Context, update func(*Scope)) context.Context {
	scope := ScopeFromContext(ctx)
	before := scope
	update(&scope)
	if scope == before {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, scope)
}

// WithRunID tags ctx with the run identifier shared by logs, undo logs and history rows.
func WithRunID(ctx context.Context, id string) context.Context {
	return withScope(ctx, func(s *Scope) {
		if id != "" {
			s.RunID = id
		}
	})
}

// WithStage tags ctx with a stage such as "execute", "undo" or "discovery".
func WithStage(ctx context.Context, stage string) context.Context {
	return withScope(ctx, func(s *Scope) {
		if stage != "" {
			s.Stage = stage
		}
	})
}

// WithCategory tags ctx with the transcript category a pipeline run covers.
func WithCategory(ctx context.Context, category string) context.Context {
	return withScope(ctx, func(s *Scope) {
		if category != "" {
			s.Category = category
		}
	})
}

// WithSubject tags ctx with the item being worked on: a source file, a
// transcript ID or a framework name.
func WithSubject(ctx context.Context, subject string) context.Context {
	return withScope(ctx, func(s *Scope) {
		if subject != "" {
			s.Subject = subject
		}
	})
}
