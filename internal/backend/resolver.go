package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"mailliam/internal/consul"
)

// Resolver yields the base URL of the backend for each call
type Resolver interface {
	BaseURL(ctx context.Context) (*url.URL, error)
}

// StaticResolver always returns the same base URL
type StaticResolver struct {
	base *url.URL
}

// NewStaticResolver parses raw as the backend base URL
func NewStaticResolver(raw string) (*StaticResolver, error) {
	base, err := parseBase(raw)
	if err != nil {
		return nil, err
	}
	return &StaticResolver{base: base}, nil
}

// BaseURL implements Resolver
func (r *StaticResolver) BaseURL(context.Context) (*url.URL, error) {
	u := *r.base
	return &u, nil
}

// DiscoveryResolver looks up a healthy backend instance on every call
type DiscoveryResolver struct {
	discovery consul.ServiceDiscovery
	service   string
	scheme    string
}

// NewDiscoveryResolver resolves service through discovery using plain HTTP
func NewDiscoveryResolver(discovery consul.ServiceDiscovery, service string) *DiscoveryResolver {
	return &DiscoveryResolver{discovery: discovery, service: service, scheme: "http"}
}

// BaseURL implements Resolver
func (r *DiscoveryResolver) BaseURL(ctx context.Context) (*url.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	instance, err := r.discovery.DiscoverOne(r.service)
	if err != nil {
		return nil, fmt.Errorf("resolve backend: %w", err)
	}
	return &url.URL{Scheme: r.scheme, Host: instance.HostPort()}, nil
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host are required", raw)
	}
	return u, nil
}
