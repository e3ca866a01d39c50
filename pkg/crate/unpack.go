package crate

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"

	"github.com/tqbf/cargo-vendor-add/pkg/paths"
)

// AddCrate unpacks the .crate file at cratePath into
// vendorPath, writing a placeholder checksum record beside
// every Cargo.toml it contains.
func AddCrate(
	cratePath, vendorPath string,
	opts Options,
) (Result, error) {
	f, err := os.Open(cratePath)
	if err != nil {
		return Result{}, fail(KindOpenCrate, err)
	}
	defer f.Close()

	fmt.Fprintf(opts.log(), "reading: %s\n", cratePath)

	res, err := Unpack(f, vendorPath, opts)
	if err != nil {
		return res, err
	}
	slog.Debug("unpacked crate",
		"crate", cratePath,
		"entries", res.Entries,
		"files", res.Files,
		"size", humanize.Bytes(uint64(res.Bytes)),
		"checksums", res.Checksums,
		"skipped", res.Skipped,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

type unpacker struct {
	root string
	opts Options
	out  io.Writer
	res  Result
}

// Unpack reads a gzip-compressed tar stream from r and
// materialises its entries under vendorPath in archive order.
func Unpack(
	r io.Reader,
	vendorPath string,
	opts Options,
) (Result, error) {
	start := time.Now()
	u := &unpacker{
		root: vendorPath,
		opts: opts,
		out:  opts.log(),
	}

	gr, err := gzip.NewReader(r)
	if err != nil {
		return u.res, fail(KindReadCrate, fmt.Errorf(
			"gzip reader: %w", err,
		))
	}
	defer gr.Close()
	tr := tar.NewReader(gr)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			if err := u.malformed(hdr.Name, err); err != nil {
				return u.res, err
			}
			continue
		}
		if err != nil {
			if err := u.malformed("", err); err != nil {
				return u.res, err
			}
			// tar.Reader errors are sticky.
			break
		}
		if err := u.entry(tr, hdr); err != nil {
			return u.res, err
		}
	}

	u.res.Elapsed = time.Since(start)
	return u.res, nil
}

func (u *unpacker) malformed(name string, err error) error {
	if name != "" {
		err = fmt.Errorf("entry %s: %w", name, err)
	}
	if u.opts.Malformed == FailMalformed {
		return fail(KindReadCrate, err)
	}
	u.res.Skipped++
	slog.Debug("skipping malformed entry", "err", err)
	return nil
}

func (u *unpacker) entry(tr *tar.Reader, hdr *tar.Header) error {
	rel, err := paths.CleanEntryName(hdr.Name)
	if err != nil {
		return u.malformed(hdr.Name, err)
	}

	if paths.Base(rel) == ManifestName {
		if err := u.sidecar(rel); err != nil {
			return err
		}
	}

	fmt.Fprintf(u.out,
		"writing: %s\n", paths.DisplayJoin(u.root, hdr.Name),
	)
	if err := u.extract(tr, hdr, rel); err != nil {
		return fail(KindWriteVendor, err)
	}
	u.res.Entries++
	return nil
}

func (u *unpacker) sidecar(manifest string) error {
	rel := path.Join(paths.Parent(manifest), ChecksumName)
	fmt.Fprintf(u.out,
		"writing: %s (generated)\n",
		paths.DisplayJoin(u.root, rel),
	)

	target, err := u.target(rel)
	if err != nil {
		return fail(KindOpenChecksum, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fail(KindOpenChecksum, err)
	}
	if err := removeFile(target); err != nil {
		return fail(KindOpenChecksum, err)
	}
	if err := writeChecksum(target, placeholderChecksum()); err != nil {
		return err
	}
	u.res.Checksums++
	return nil
}

// target resolves rel under the vendor root without
// following a symlink sitting at its final component.
func (u *unpacker) target(rel string) (string, error) {
	if rel == "." {
		return filepath.Clean(u.root), nil
	}
	dir, err := paths.Resolve(u.root, paths.Parent(rel))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, path.Base(rel)), nil
}

func (u *unpacker) extract(
	tr *tar.Reader, hdr *tar.Header, rel string,
) error {
	target, err := u.target(rel)
	if err != nil {
		return err
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := extractDir(target, hdr); err != nil {
			return fmt.Errorf("mkdir %s: %w", rel, err)
		}
	case tar.TypeReg:
		n, err := extractFile(tr, target, hdr)
		if err != nil {
			return err
		}
		u.res.Files++
		u.res.Bytes += n
	case tar.TypeSymlink:
		if err := prepareLink(target); err != nil {
			return err
		}
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return fmt.Errorf("symlink %s: %w", rel, err)
		}
	case tar.TypeLink:
		src, err := u.linkSource(hdr.Linkname)
		if err != nil {
			return fmt.Errorf("link %s: %w", rel, err)
		}
		if err := prepareLink(target); err != nil {
			return err
		}
		if err := os.Link(src, target); err != nil {
			return fmt.Errorf("link %s: %w", rel, err)
		}
	default:
		slog.Debug("ignoring entry",
			"name", rel, "type", string(hdr.Typeflag),
		)
		return nil
	}

	if !hdr.ModTime.IsZero() && hdr.Typeflag != tar.TypeSymlink {
		_ = os.Chtimes(target, hdr.ModTime, hdr.ModTime)
	}
	slog.Debug("wrote entry", "name", rel)
	return nil
}

func (u *unpacker) linkSource(linkname string) (string, error) {
	rel, err := paths.CleanEntryName(linkname)
	if err != nil {
		return "", err
	}
	return paths.Resolve(u.root, rel)
}

func extractDir(target string, hdr *tar.Header) error {
	perm := os.FileMode(hdr.Mode&0777) | 0755
	if err := os.MkdirAll(target, perm); err != nil {
		return err
	}
	if perm == 0755 {
		return nil
	}
	return os.Chmod(target, perm)
}

func extractFile(
	tr *tar.Reader, target string, hdr *tar.Header,
) (int64, error) {
	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return 0, fmt.Errorf("mkdir parent: %w", err)
	}
	if err := removeFile(target); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(
		target,
		os.O_CREATE|os.O_WRONLY|os.O_TRUNC,
		os.FileMode(hdr.Mode&0777),
	)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", hdr.Name, err)
	}

	n, copyErr := io.Copy(f, tr)
	closeErr := f.Close()
	if copyErr != nil {
		return n, fmt.Errorf("write %s: %w", hdr.Name, copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("close %s: %w", hdr.Name, closeErr)
	}
	return n, nil
}

func prepareLink(target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("mkdir parent: %w", err)
	}
	err := os.Remove(target)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}

// removeFile unlinks whatever non-directory sits at target,
// so the following create never writes through a symlink or
// trips over a read-only file from an earlier run.
func removeFile(target string) error {
	fi, err := os.Lstat(target)
	if err != nil || fi.IsDir() {
		return nil
	}
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}
