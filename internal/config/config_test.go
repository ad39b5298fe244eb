package config

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/aweris/mountfs"
)

func loadYAML(t *testing.T, doc string) *Config {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(doc)); err != nil {
		t.Fatalf("read config: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func writeTar(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func read(t *testing.T, s mountfs.Store, name string) string {
	t.Helper()
	data, err := mountfs.ReadFile(s, name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestLoad(t *testing.T) {
	cfg := loadYAML(t, `
concurrency: 2
mounts:
  - path: /res
    stores:
      - type: ram
        files:
          - name: README.md
            content: hello
      - type: tar
        file: core.tar
  - path: /src
    stores:
      - type: git
        repo: .
`)

	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Concurrency)
	}
	if len(cfg.Mounts) != 2 {
		t.Fatalf("got %d mounts, want 2", len(cfg.Mounts))
	}
	res := cfg.Mounts[0]
	if res.Path != "/res" || len(res.Stores) != 2 {
		t.Fatalf("unexpected mount: %+v", res)
	}
	if got := res.Stores[0].Files[0].Name; got != "README.md" {
		t.Errorf("ram file name = %q, want README.md", got)
	}
	if res.Stores[1].Type != TypeTar || res.Stores[1].File != "core.tar" {
		t.Errorf("unexpected tar store: %+v", res.Stores[1])
	}
}

func TestLoadResolvesAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	writeTar(t, filepath.Join(dir, "core.tar"), map[string]string{"a.txt": "from tar"})

	cfgPath := filepath.Join(dir, "config.yaml")
	doc := "mounts:\n  - path: /res\n    stores:\n      - type: tar\n        file: core.tar\n"
	if err := os.WriteFile(cfgPath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.SetConfigFile(cfgPath)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	table, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := read(t, table, "/res/a.txt"); got != "from tar" {
		t.Errorf("got %q, want %q", got, "from tar")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "empty config",
			cfg:  Config{},
		},
		{
			name:    "missing path",
			cfg:     Config{Mounts: []Mount{{Stores: []Store{{Type: TypeRam}}}}},
			wantErr: "missing path",
		},
		{
			name:    "no stores",
			cfg:     Config{Mounts: []Mount{{Path: "/"}}},
			wantErr: "no stores",
		},
		{
			name:    "unknown type",
			cfg:     Config{Mounts: []Mount{{Path: "/", Stores: []Store{{Type: "ftp"}}}}},
			wantErr: `unknown type "ftp"`,
		},
		{
			name:    "missing type",
			cfg:     Config{Mounts: []Mount{{Path: "/", Stores: []Store{{}}}}},
			wantErr: "missing type",
		},
		{
			name:    "local without root",
			cfg:     Config{Mounts: []Mount{{Path: "/", Stores: []Store{{Type: TypeLocal}}}}},
			wantErr: "local store needs root",
		},
		{
			name:    "zip without file",
			cfg:     Config{Mounts: []Mount{{Path: "/", Stores: []Store{{Type: TypeZip}}}}},
			wantErr: "zip store needs file",
		},
		{
			name: "image with two sources",
			cfg: Config{Mounts: []Mount{{Path: "/", Stores: []Store{
				{Type: TypeImage, Ref: "example.com/a", Layout: "./oci"},
			}}}},
			wantErr: "exactly one of",
		},
		{
			name:    "git without repo",
			cfg:     Config{Mounts: []Mount{{Path: "/", Stores: []Store{{Type: TypeGit}}}}},
			wantErr: "git store needs repo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Config{Mounts: []Mount{
		{Path: "", Stores: []Store{{Type: TypeRam}}},
		{Path: "/b", Stores: []Store{{Type: "nope"}}},
	}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"missing path", `unknown type "nope"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestBuildMergesInOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "shared.txt"), []byte("local"), 0o644); err != nil {
		t.Fatal(err)
	}
	archive := filepath.Join(dir, "core.tar")
	writeTar(t, archive, map[string]string{
		"shared.txt": "tar",
		"only.txt":   "only in tar",
	})

	cfg := &Config{Mounts: []Mount{
		{Path: "/files", Stores: []Store{
			{Type: TypeLocal, Root: dir},
			{Type: TypeTar, File: archive},
			{Type: TypeRam, Files: []RamFile{{Name: "extra.txt", Content: "ram"}}},
		}},
	}}

	table, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for name, want := range map[string]string{
		"/files/shared.txt": "local",
		"/files/only.txt":   "only in tar",
		"/files/extra.txt":  "ram",
	} {
		if got := read(t, table, name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	if _, err := table.Open("/files/missing.txt"); !mountfs.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestBuildMountOrder(t *testing.T) {
	cfg := &Config{}
	cfg.Mounts = append(cfg.Mounts, Mount{Path: "/", Stores: []Store{
		{Type: TypeRam, Files: []RamFile{{Name: "etc/hosts", Content: "root"}}},
	}})
	cfg.Mounts = append(cfg.Mounts, Mount{Path: "/etc", Stores: []Store{
		{Type: TypeRam},
	}})

	table, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := table.Mounts(); len(got) != 2 || got[0] != "/" || got[1] != "/etc" {
		t.Fatalf("Mounts() = %v", got)
	}
	// /etc shadows / and does not fall back
	if _, err := table.Open("/etc/hosts"); !mountfs.IsNotFound(err) {
		t.Fatalf("expected not found from /etc, got %v", err)
	}
}

func TestBuildFailure(t *testing.T) {
	cfg := &Config{Mounts: []Mount{
		{Path: "/", Stores: []Store{
			{Type: TypeRam},
			{Type: TypeTar, File: filepath.Join(t.TempDir(), "missing.tar")},
		}},
	}}
	_, err := Build(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected cause to be reachable, got %v", err)
	}
	if !strings.Contains(err.Error(), "mount /") {
		t.Errorf("error %q does not name the mount", err)
	}
}

type closingStore struct {
	mountfs.Empty
	closed int
}

func (s *closingStore) Close() error {
	s.closed++
	return nil
}

func TestCloseStores(t *testing.T) {
	a, b := &closingStore{}, &closingStore{}
	closeStores([]mountfs.Store{a, mountfs.NewRam(), nil, b})
	if a.closed != 1 || b.closed != 1 {
		t.Errorf("closed = %d, %d, want 1, 1", a.closed, b.closed)
	}
}

func TestBuildFailureReleasesZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "extra.zip")
	writeZip(t, archive, map[string]string{"a.txt": "a"})

	cfg := &Config{Concurrency: 1, Mounts: []Mount{
		{Path: "/ok", Stores: []Store{{Type: TypeZip, File: archive}}},
		{Path: "/bad", Stores: []Store{
			{Type: TypeZip, File: archive},
			{Type: TypeZip, File: filepath.Join(dir, "missing.zip")},
		}},
	}}
	if _, err := Build(context.Background(), cfg); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing archive error, got %v", err)
	}
}

func TestOpenFailureIsNilStore(t *testing.T) {
	var cfg Config
	s, err := cfg.open(context.Background(), Store{Type: TypeZip, File: filepath.Join(t.TempDir(), "missing.zip")})
	if err == nil {
		t.Fatal("expected error")
	}
	if s != nil {
		t.Errorf("failed open returned %#v, want nil", s)
	}
}

func TestBuildRejectsInvalid(t *testing.T) {
	cfg := &Config{Mounts: []Mount{{Path: "/"}}}
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestAddLocal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg Config
	cfg.AddLocal("/data", dir)
	table, err := Build(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := read(t, table, "/data/a.txt"); got != "a" {
		t.Errorf("got %q, want a", got)
	}
}

func TestMarshal(t *testing.T) {
	cfg := &Config{Mounts: []Mount{
		{Path: "/res", Stores: []Store{
			{Type: TypeLocal, Root: "./res"},
			{Type: TypeGit, Repo: ".", Rev: "v1.0.0"},
		}},
	}}

	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "tarball") {
		t.Errorf("empty fields should be omitted:\n%s", data)
	}

	var back Config
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(back.Mounts) != 1 || back.Mounts[0].Stores[1].Rev != "v1.0.0" {
		t.Errorf("unexpected round trip: %+v", back)
	}
}
