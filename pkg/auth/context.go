package auth

import (
	"context"
	"errors"
)

// contextKey is an unexported type to prevent key collisions in context.
type contextKey string

const subjectKey contextKey = "subject"

// ErrSubjectNotFound is returned when the request context carries no
// authenticated subject.
var ErrSubjectNotFound = errors.New("subject not found in context")

// SubjectFromCtx returns the authenticated user set by RequireBearer.
func SubjectFromCtx(ctx context.Context) (string, error) {
	sub, ok := ctx.Value(subjectKey).(string)
	if !ok || sub == "" {
		return "", ErrSubjectNotFound
	}
	return sub, nil
}

// WithSubject returns a copy of ctx carrying subject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}
