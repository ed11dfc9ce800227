// Package validator decides whether a candidate subdomain label may be
// registered. It runs format checks, reserved-word lookups and an optional
// external existence check, accumulating every failure rather than stopping
// at the first.
package validator

//go:generate mockgen -source=validator.go -destination=mocks/mocks.go -package=mocks Resolver,Registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// Label length bounds, in characters.
const (
	MinLength = 2
	MaxLength = 63
)

// batchConcurrency bounds concurrent validations in ValidateBatch.
const batchConcurrency = 8

// Resolver answers whether a fully qualified name is already registered
// outside the engine.
type Resolver interface {
	ResolveExists(ctx context.Context, fqdn string) (owner string, exists bool, err error)
}

// Registry is the read side of the reserved-word registry.
type Registry interface {
	Lookup(word string) (types.ReservedWord, bool)
	MatchesPrefix(word string) (types.ReservedWord, bool)
	MatchesSuffix(word string) (types.ReservedWord, bool)
}

// Validator checks candidate names. It holds no registry state; callers pass
// the registry snapshot to validate against.
type Validator struct {
	resolver Resolver
	timeout  time.Duration
	logger   *slog.Logger
	lookups  singleflight.Group
}

// Option configures a Validator.
type Option func(*Validator)

// WithResolver sets the external existence collaborator.
func WithResolver(r Resolver) Option {
	return func(v *Validator) {
		v.resolver = r
	}
}

// WithTimeout bounds each existence check.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		v.timeout = d
	}
}

// WithLogger sets the logger used for soft resolver failures.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// New returns a Validator. Without a resolver the existence check is skipped.
func New(opts ...Option) *Validator {
	v := &Validator{
		timeout: types.DefaultResolverTimeout,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks name against the format rules, the reserved sets in reg
// and, when parent is non-empty, the external resolver. All checks run.
func (v *Validator) Validate(ctx context.Context, reg Registry, name, parent string) types.ValidationResult {
	res := types.ValidationResult{
		Name:     name,
		Priority: types.PriorityLow,
		Errors:   []string{},
		Issues:   []types.ValidationIssue{},
	}

	checkFormat(&res, name)
	checkReserved(&res, reg, name)
	if parent != "" {
		v.checkExists(ctx, &res, name, parent)
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

func checkFormat(res *types.ValidationResult, name string) {
	if n := utf8.RuneCountInString(name); n < MinLength || n > MaxLength {
		res.AddIssue(types.IssueFormat,
			fmt.Sprintf("name must be between %d and %d characters, got %d", MinLength, MaxLength, n))
	}
	for _, c := range name {
		if !isLabelChar(c) {
			res.AddIssue(types.IssueFormat,
				"name may contain only lowercase letters, digits and hyphens")
			break
		}
	}
	if len(name) > 0 && name[0] == '-' {
		res.AddIssue(types.IssueFormat, "name must not start with a hyphen")
	}
	if len(name) > 0 && name[len(name)-1] == '-' {
		res.AddIssue(types.IssueFormat, "name must not end with a hyphen")
	}
	for i := 1; i < len(name); i++ {
		if name[i] == '-' && name[i-1] == '-' {
			res.AddIssue(types.IssueFormat, "name must not contain consecutive hyphens")
			break
		}
	}
}

func isLabelChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-'
}

func checkReserved(res *types.ValidationResult, reg Registry, name string) {
	if reg == nil {
		return
	}
	if e, ok := reg.Lookup(name); ok {
		res.AddIssue(types.IssueReservedWord,
			fmt.Sprintf("name %q is reserved (category %s, tier %s)", types.Normalize(name), e.Category, e.Tier))
		markReserved(res, e)
	}
	if e, ok := reg.MatchesPrefix(name); ok {
		res.AddIssue(types.IssueReservedPrefix,
			fmt.Sprintf("name uses reserved prefix %q (category %s, tier %s)", e.Word, e.Category, e.Tier))
		markReserved(res, e)
	}
	if e, ok := reg.MatchesSuffix(name); ok {
		res.AddIssue(types.IssueReservedSuffix,
			fmt.Sprintf("name uses reserved suffix %q (category %s, tier %s)", e.Word, e.Category, e.Tier))
		markReserved(res, e)
	}
}

// markReserved records a reserved match. The most restrictive tier wins.
func markReserved(res *types.ValidationResult, e types.ReservedWord) {
	if !res.IsReserved || e.Tier < res.Priority {
		res.Priority = e.Tier
		res.Category = e.Category
	}
	res.IsReserved = true
}

type existence struct {
	owner  string
	exists bool
}

func (v *Validator) checkExists(ctx context.Context, res *types.ValidationResult, name, parent string) {
	if v.resolver == nil {
		return
	}
	fqdn := types.Normalize(name) + "." + types.Normalize(parent)

	// The shared lookup must not inherit one caller's cancellation; each
	// caller waits on its own context instead.
	ch := v.lookups.DoChan(fqdn, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.timeout)
		defer cancel()
		owner, exists, err := v.resolver.ResolveExists(lookupCtx, fqdn)
		if err == nil && lookupCtx.Err() != nil {
			err = lookupCtx.Err()
		}
		return existence{owner: owner, exists: exists}, err
	})
	var (
		out any
		err error
	)
	select {
	case r := <-ch:
		out, err = r.Val, r.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		// Resolver failures count as "does not exist".
		v.logger.Warn("existence check failed",
			"component", "validator",
			"name", fqdn,
			"err", err,
		)
		res.Warnings = append(res.Warnings, fmt.Sprintf("existence check for %s failed: %v", fqdn, err))
		return
	}
	if e := out.(existence); e.exists {
		msg := fmt.Sprintf("%s is already registered", fqdn)
		if e.owner != "" {
			msg += " (owner " + e.owner + ")"
		}
		res.AddIssue(types.IssueAlreadyExists, msg)
	}
}

// ValidateBatch validates names concurrently. Results keep the input order.
func (v *Validator) ValidateBatch(ctx context.Context, reg Registry, names []string, parent string) []types.ValidationResult {
	results := make([]types.ValidationResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, name := range names {
		g.Go(func() error {
			results[i] = v.Validate(gctx, reg, name, parent)
			return nil
		})
	}
	// Validation accumulates issues and never fails the group.
	_ = g.Wait()
	return results
}
