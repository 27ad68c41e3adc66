package sidebar

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNoProvider is returned when the sidebar state is looked up outside of a provider.
var ErrNoProvider = errors.New("sidebar: state must be used within a sidebar provider")

type ctxKey struct{}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the provider carried by ctx, ErrNoProvider when there is none.
func FromContext(ctx context.Context) (*Provider, error) {
	p, ok := ctx.Value(ctxKey{}).(*Provider)
	if !ok || p == nil {
		return nil, ErrNoProvider
	}
	return p, nil
}

// MustFromContext panics with ErrNoProvider when ctx has no provider.
func MustFromContext(ctx context.Context) *Provider {
	p, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return p
}
