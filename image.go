package mountfs

import (
	"context"
	"errors"
	"fmt"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/layout"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/tarball"

	"github.com/aweris/mountfs/internal/remote"
)

// Authenticator provides credentials for remote registries.
type Authenticator = remote.Authenticator

// FetchOption configures FetchImage.
type FetchOption = remote.Option

// WithAuth sets registry credentials. Without it the docker keychain is used.
func WithAuth(auth Authenticator) FetchOption { return remote.WithAuth(auth) }

// WithBasicAuth authenticates every registry with a username and password.
func WithBasicAuth(username, password string) FetchOption {
	return remote.WithAuth(remote.StaticAuthenticator{Username: username, Password: password})
}

// WithConcurrency sets the number of parallel layer downloads.
func WithConcurrency(n int) FetchOption { return remote.WithConcurrency(n) }

// WithPlatform picks an image out of a multi-platform index, e.g. "linux/arm64".
func WithPlatform(platform string) (FetchOption, error) {
	p, err := v1.ParsePlatform(platform)
	if err != nil {
		return nil, fmt.Errorf("parse platform %q: %w", platform, err)
	}
	return remote.WithPlatform(p), nil
}

// Image serves the flattened filesystem of an OCI image. Layers are applied
// in order and whiteouts hide files of lower layers, exactly as a container
// runtime would see them.
type Image struct {
	*Tar
	digest v1.Hash
}

// NewImage flattens img into memory.
func NewImage(img v1.Image) (*Image, error) {
	digest, err := img.Digest()
	if err != nil {
		return nil, fmt.Errorf("image digest: %w", err)
	}

	rc := mutate.Extract(img)
	defer rc.Close()

	t, err := NewTar(rc)
	if err != nil {
		return nil, fmt.Errorf("flatten image %s: %w", digest, err)
	}
	return &Image{Tar: t, digest: digest}, nil
}

// FetchImage pulls ref from its registry and flattens it.
func FetchImage(ctx context.Context, ref string, opts ...FetchOption) (*Image, error) {
	img, err := remote.Fetch(ctx, ref, opts...)
	if err != nil {
		return nil, err
	}
	return NewImage(img)
}

// LoadImage flattens the image in a "docker save" tarball at path. Only
// single-image tarballs are supported.
func LoadImage(path string) (*Image, error) {
	img, err := tarball.ImageFromPath(path, nil)
	if err != nil {
		return nil, fmt.Errorf("load image tarball: %w", err)
	}
	return NewImage(img)
}

// LoadLayout flattens the first image listed in the OCI layout at dir.
func LoadLayout(dir string) (*Image, error) {
	idx, err := layout.ImageIndexFromPath(dir)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	manifest, err := idx.IndexManifest()
	if err != nil {
		return nil, fmt.Errorf("read layout index: %w", err)
	}
	for _, desc := range manifest.Manifests {
		if !desc.MediaType.IsImage() {
			continue
		}
		img, err := idx.Image(desc.Digest)
		if err != nil {
			return nil, fmt.Errorf("load layout image %s: %w", desc.Digest, err)
		}
		return NewImage(img)
	}
	return nil, errors.New("load layout: no image in index")
}

// Digest returns the manifest digest of the image.
func (i *Image) Digest() v1.Hash { return i.digest }
