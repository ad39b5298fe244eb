// Package mountfs provides a read-only virtual filesystem assembled from
// heterogeneous stores.
//
// A Store is anything that can open a file by name: a local directory, an
// in-memory map, a tarball, a zip archive, an OCI image, a git revision or
// any io/fs or afero filesystem. Stores compose in two ways:
//
//   - Merge tries a primary store and falls back to a second one. MergeAll
//     folds a priority list into a chain of merges ending in Empty.
//   - Table binds stores to mount paths. A lookup goes to the most recently
//     mounted binding whose path prefixes it, and only to that binding.
//
// Basic usage:
//
//	core := mountfs.NewLocal("/core/res")
//	user := mountfs.NewLocal("/user/res")
//
//	// user has priority over core
//	res := mountfs.MergeAll(user, core)
//
//	files := mountfs.New().Mount("/res", res)
//
//	f, err := files.Open("/res/textures/stone.png")
//	if err != nil { ... }
//	defer f.Close()
//
// Mount points shadow each other the way filesystem mounts do:
//
//	t := mountfs.New().Mount("/", root).Mount("/etc", etc)
//	t.Open("/etc/hosts") // served by etc only, even if it fails
//
// Errors are classified as not found (errors.Is(err, ErrNotFound), which
// also matches fs.ErrNotExist) or backend failures (errors.Is(err,
// ErrBackend)). A merge reports only the error of the last store it tried.
package mountfs
