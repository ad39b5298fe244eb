// Package remote fetches OCI images from registries.
//
// Based on go-containerregistry patterns:
// - Authentication via explicit credentials or the docker keychain
// - Manifest resolution retried with exponential backoff
// - Layer downloads are lazy and happen when the image is read
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

const (
	DefaultConcurrency = 4
	DefaultAttempts    = 3
)

// Authenticator provides credentials for remote registries.
type Authenticator interface {
	// Authenticate returns credentials for the given registry.
	Authenticate(registry string) (username, password string, err error)
}

// Options configures a fetch.
type Options struct {
	Auth        Authenticator
	Concurrency int
	Attempts    int
	Platform    *v1.Platform
}

// Option is a functional option for configuring Fetch.
type Option func(*Options)

// WithAuth sets custom authentication. Without it the docker keychain is used.
func WithAuth(auth Authenticator) Option {
	return func(o *Options) { o.Auth = auth }
}

// WithConcurrency sets the number of parallel layer downloads.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithAttempts sets how many times the manifest fetch is tried.
func WithAttempts(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Attempts = n
		}
	}
}

// WithPlatform selects the image of a multi-platform index.
func WithPlatform(p *v1.Platform) Option {
	return func(o *Options) { o.Platform = p }
}

func defaultOptions() *Options {
	return &Options{
		Concurrency: DefaultConcurrency,
		Attempts:    DefaultAttempts,
	}
}

// Fetch resolves imageRef (e.g. "ttl.sh/cache/res:main") to an image.
// A missing tag defaults to "latest".
func Fetch(ctx context.Context, imageRef string, opts ...Option) (v1.Image, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	ref, err := name.ParseReference(imageRef, name.WithDefaultTag("latest"))
	if err != nil {
		return nil, fmt.Errorf("invalid image ref %q: %w", imageRef, err)
	}

	options := o.remoteOptions(ctx, ref)
	img, err := retry(ctx, o.Attempts, func() (v1.Image, error) {
		return remote.Image(ref, options...)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch image %s: %w", ref, err)
	}
	return img, nil
}

func (o *Options) remoteOptions(ctx context.Context, ref name.Reference) []remote.Option {
	options := []remote.Option{
		remote.WithContext(ctx),
		remote.WithJobs(o.Concurrency),
	}
	if o.Platform != nil {
		options = append(options, remote.WithPlatform(*o.Platform))
	}

	if o.Auth != nil {
		username, password, err := o.Auth.Authenticate(ref.Context().RegistryStr())
		if err == nil && username != "" {
			return append(options, remote.WithAuth(&authn.Basic{
				Username: username,
				Password: password,
			}))
		}
	}
	return append(options, remote.WithAuthFromKeychain(authn.DefaultKeychain))
}

func retry[T any](ctx context.Context, maxAttempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for i := range maxAttempts {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i < maxAttempts-1 {
			delay := time.Duration(1<<i) * 500 * time.Millisecond // 500ms, 1s, 2s, 4s...
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return zero, lastErr
}
