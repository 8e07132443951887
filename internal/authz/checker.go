package authz

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"careergate/internal/identity"
	"careergate/internal/roles"
)

// CredentialResolver turns a presented credential into an identity result.
type CredentialResolver interface {
	Resolve(ctx context.Context, cred identity.Credential) identity.Result
}

// RoleLookup reads the role for one verified subject.
type RoleLookup interface {
	Lookup(ctx context.Context, subjectID string) roles.LookupResult
}

// Checker is the single entry point every guard uses. Each call resolves the
// credential and reads the role fresh; nothing is remembered between calls.
type Checker struct {
	table    *Table
	resolver CredentialResolver
	lookup   RoleLookup
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

type CheckerOption func(*Checker)

func WithLogger(logger *slog.Logger) CheckerOption {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) CheckerOption {
	return func(c *Checker) { c.metrics = m }
}

func WithTracer(t trace.Tracer) CheckerOption {
	return func(c *Checker) {
		if t != nil {
			c.tracer = t
		}
	}
}

func NewChecker(table *Table, resolver CredentialResolver, lookup RoleLookup, opts ...CheckerOption) *Checker {
	c := &Checker{
		table:    table,
		resolver: resolver,
		lookup:   lookup,
		logger:   slog.Default(),
		tracer:   otel.Tracer("careergate/authz"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check decides whether the credential may use the capability. An unknown
// capability is a system error and never authorizes.
func (c *Checker) Check(ctx context.Context, cred identity.Credential, capability Capability) Outcome {
	start := c.now()
	ctx, span := c.tracer.Start(ctx, "authz.Check",
		trace.WithAttributes(attribute.String("authz.capability", string(capability))))
	defer span.End()

	var out Outcome
	req, ok := c.table.Requirement(capability)
	if !ok {
		out = SystemError(ReasonUnknownCapability, nil)
	} else {
		out = Decide(ctx, c.resolve(ctx, cred), c.lookupRole, req)
	}

	span.SetAttributes(
		attribute.String("authz.outcome", out.Kind.String()),
		attribute.String("authz.reason", string(out.Reason)),
	)
	if out.Kind == KindSystemError {
		span.SetStatus(codes.Error, string(out.Reason))
		if out.Cause != nil {
			span.RecordError(out.Cause)
		}
	}
	c.metrics.observe(capability, out, c.now().Sub(start))
	c.log(ctx, capability, out)
	return out
}

func (c *Checker) log(ctx context.Context, capability Capability, out Outcome) {
	switch out.Kind {
	case KindAuthorized:
		c.logger.DebugContext(ctx, "authorization granted",
			"capability", capability,
			"subject_id", out.Identity.SubjectID,
			"role", out.Role,
		)
	case KindSystemError:
		c.logger.ErrorContext(ctx, "authorization check failed",
			"capability", capability,
			"reason", out.Reason,
			"error", out.Cause,
		)
	default:
		c.logger.WarnContext(ctx, "authorization denied",
			"capability", capability,
			"outcome", out.Kind.String(),
			"reason", out.Reason,
		)
	}
}

func (c *Checker) resolve(ctx context.Context, cred identity.Credential) identity.Result {
	ctx, span := c.tracer.Start(ctx, "authz.resolve_identity")
	defer span.End()
	return c.resolver.Resolve(ctx, cred)
}

func (c *Checker) lookupRole(ctx context.Context, subjectID string) roles.LookupResult {
	ctx, span := c.tracer.Start(ctx, "authz.lookup_role")
	defer span.End()
	res := c.lookup.Lookup(ctx, subjectID)
	if res.Status == roles.LookupFailed {
		span.SetStatus(codes.Error, "role lookup failed")
	}
	return res
}
