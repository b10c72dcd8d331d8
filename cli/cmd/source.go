package cmd

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/ardnew/objecttext/lang"
)

// stdinSource names standard input on the command line.
const stdinSource = "-"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// displayName returns the name diagnostics use for path.
func displayName(path string) string {
	if path == stdinSource {
		return "<stdin>"
	}

	return path
}

// load reads and parses the source at path, or standard input for "-".
// Sources compressed with gzip or zstd are decompressed transparently.
// The error reports read failures only; syntax errors are on the document.
func (e Env) load(ctx context.Context, path string) (*lang.Document, error) {
	var r io.Reader = e.Stdin

	if path != stdinSource {
		f, err := os.Open(path)
		if err != nil {
			return nil, ErrOpenSource.Wrap(err).With(slog.String("path", path))
		}
		defer f.Close()

		r = f
	}

	dr, closeFn, err := decompress(r)
	if err != nil {
		return nil, ErrDecompress.Wrap(err).With(slog.String("path", path))
	}
	defer closeFn()

	doc, err := lang.ParseReader(ctx, dr, e.parseOptions(displayName(path))...)
	if err != nil {
		return nil, ErrOpenSource.Wrap(err).With(slog.String("path", path))
	}

	e.Logger.DebugContext(ctx, "parsed source",
		slog.String("path", path),
		slog.Int("statements", len(doc.Statements)),
		slog.Int("diagnostics", len(doc.Diagnostics)),
	)

	return doc, nil
}

// decompress sniffs the first bytes of r and wraps it in a gzip or zstd
// decoder when they match. The returned func releases the decoder.
func decompress(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}

		return zr, func() { _ = zr.Close() }, nil

	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}

		return zr, zr.Close, nil
	}

	return br, func() {}, nil
}

// fileKey identifies a file by device and inode, so the same file reached
// through different paths or symlinks is read once.
type fileKey struct {
	dev uint64
	ino uint64
}

func makeFileKey(info os.FileInfo) (fileKey, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileKey{}, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

// uniqueSources removes repeated files from paths, keeping the first
// occurrence. Every "-" after the first is dropped. Paths that cannot be
// resolved are kept so that loading them reports the error.
func uniqueSources(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[fileKey]struct{}, len(paths))
	stdin := false

	for _, p := range paths {
		if p == stdinSource {
			if !stdin {
				out = append(out, p)
			}

			stdin = true

			continue
		}

		resolved, err := filepath.EvalSymlinks(p)
		if err != nil {
			out = append(out, p)

			continue
		}

		info, err := os.Stat(resolved)
		if err != nil {
			out = append(out, p)

			continue
		}

		if key, ok := makeFileKey(info); ok {
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
		}

		out = append(out, p)
	}

	return out
}
