// Package auditlog stores one append-only log file per check and rotates
// them into compressed archives.
//
// Live logs are <name>.log. Archives are <archive>.gz.b64: the gzip stream
// of the log, base64 encoded.
package auditlog

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	liveExt    = ".log"
	archiveExt = ".gz.b64"
)

var (
	ErrArchiveExists = errors.New("archive already exists")
	ErrEmptyLog      = errors.New("log is empty")
	ErrBadName       = errors.New("invalid log name")
)

type Dir struct {
	base string
}

func New(base string) (*Dir, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create audit log dir: %w", err)
	}
	return &Dir{base: base}, nil
}

func (d *Dir) path(name, ext string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return filepath.Join(d.base, name+ext), nil
}

// Append writes line plus a newline to the live log, creating it if needed.
func (d *Dir) Append(name string, line []byte) error {
	p, err := d.path(name, liveExt)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	buf := make([]byte, 0, len(line)+1)
	buf = append(append(buf, line...), '\n')
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", name, err)
	}
	return f.Close()
}

// List returns log names without extensions. Archives are included only
// when includeCompressed is set.
func (d *Dir) List(includeCompressed bool) ([]string, error) {
	entries, err := os.ReadDir(d.base)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch n := e.Name(); {
		case strings.HasSuffix(n, liveExt):
			out = append(out, strings.TrimSuffix(n, liveExt))
		case includeCompressed && strings.HasSuffix(n, archiveExt):
			out = append(out, strings.TrimSuffix(n, archiveExt))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Compress writes the current content of the live log src into a new
// archive. It never replaces an existing archive.
func (d *Dir) Compress(src, archive string) error {
	srcPath, err := d.path(src, liveExt)
	if err != nil {
		return err
	}
	dstPath, err := d.path(archive, archiveExt)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("%s: %w", src, ErrEmptyLog)
	}

	var zipped bytes.Buffer
	zw := gzip.NewWriter(&zipped)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("gzip %s: %w", src, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("gzip %s: %w", src, err)
	}
	encoded := base64.StdEncoding.EncodeToString(zipped.Bytes())

	f, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w", archive, ErrArchiveExists)
	}
	if err != nil {
		return fmt.Errorf("create archive %s: %w", archive, err)
	}
	if _, err := io.WriteString(f, encoded); err != nil {
		f.Close()
		os.Remove(dstPath)
		return fmt.Errorf("write archive %s: %w", archive, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dstPath)
		return fmt.Errorf("close archive %s: %w", archive, err)
	}
	return nil
}

// Decompress returns the original bytes stored in an archive.
func (d *Dir) Decompress(archive string) ([]byte, error) {
	p, err := d.path(archive, archiveExt)
	if err != nil {
		return nil, err
	}
	encoded, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", archive, err)
	}
	zipped, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode archive %s: %w", archive, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(zipped))
	if err != nil {
		return nil, fmt.Errorf("gunzip archive %s: %w", archive, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gunzip archive %s: %w", archive, err)
	}
	return out, nil
}

// Truncate empties the live log.
func (d *Dir) Truncate(name string) error {
	p, err := d.path(name, liveExt)
	if err != nil {
		return err
	}
	if err := os.Truncate(p, 0); err != nil {
		return fmt.Errorf("truncate %s: %w", name, err)
	}
	return nil
}
