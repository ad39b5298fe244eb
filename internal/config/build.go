package config

import (
	"context"
	"fmt"
	"io"

	"github.com/sourcegraph/conc/iter"

	"github.com/aweris/mountfs"
)

// Build opens every store of c and mounts them in order. The stores of a
// mount are opened concurrently, at most c.Concurrency at a time, and
// merged in the order they are listed.
func Build(ctx context.Context, c *Config, opts ...mountfs.Option) (*mountfs.Table, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	mapper := iter.Mapper[Store, mountfs.Store]{MaxGoroutines: concurrency}

	var opened []mountfs.Store
	table := mountfs.New(opts...)
	for _, m := range c.Mounts {
		stores, err := mapper.MapErr(m.Stores, func(s *Store) (mountfs.Store, error) {
			return c.open(ctx, *s)
		})
		opened = append(opened, stores...)
		if err != nil {
			closeStores(opened)
			return nil, fmt.Errorf("mount %s: %w", m.Path, err)
		}
		table.Mount(m.Path, mountfs.MergeAll(stores[0], stores[1:]...))
	}
	return table, nil
}

// closeStores releases stores holding open files, such as zip archives.
func closeStores(stores []mountfs.Store) {
	for _, s := range stores {
		if c, ok := s.(io.Closer); ok {
			c.Close()
		}
	}
}

func (c *Config) open(ctx context.Context, s Store) (mountfs.Store, error) {
	switch s.Type {
	case TypeLocal:
		return mountfs.NewLocal(c.path(s.Root)), nil
	case TypeRam:
		r := mountfs.NewRam()
		for _, f := range s.Files {
			r.Touch(f.Name, []byte(f.Content))
		}
		return r, nil
	case TypeTar:
		return store(mountfs.OpenTar(c.path(s.File)))
	case TypeZip:
		return store(mountfs.OpenZip(c.path(s.File)))
	case TypeImage:
		return c.openImage(ctx, s)
	case TypeGit:
		rev := s.Rev
		if rev == "" {
			rev = "HEAD"
		}
		return store(mountfs.OpenGit(c.path(s.Repo), rev))
	default:
		return nil, fmt.Errorf("unknown store type %q", s.Type)
	}
}

func (c *Config) openImage(ctx context.Context, s Store) (mountfs.Store, error) {
	switch {
	case s.Tarball != "":
		return store(mountfs.LoadImage(c.path(s.Tarball)))
	case s.Layout != "":
		return store(mountfs.LoadLayout(c.path(s.Layout)))
	}

	var opts []mountfs.FetchOption
	if s.Platform != "" {
		opt, err := mountfs.WithPlatform(s.Platform)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	return store(mountfs.FetchImage(ctx, s.Ref, opts...))
}

// store drops typed nil pointers, so a failed open yields a nil Store.
func store[S mountfs.Store](s S, err error) (mountfs.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
