package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/linecard/edgepack/internal/util"
	"github.com/linecard/edgepack/pkg/artifact"
	"github.com/linecard/edgepack/pkg/failure"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
)

type Service struct{}

func New() Service {
	return Service{}
}

type mount struct {
	dir    string
	prefix string
}

type single struct {
	source string
	name   string
}

// PackageDirectory zips the contents of sourceDir so the archive root is the
// directory's contents. An empty directory yields a valid empty archive.
func (s Service) PackageDirectory(ctx context.Context, sourceDir, destination string) error {
	return s.pack(ctx, destination, nil, []mount{{dir: sourceDir}})
}

// PackageSingleFile zips sourceFile as the only entry, named entryName. The
// source is a transient build product: it is removed once the archive is
// closed, and left in place if archiving fails.
func (s Service) PackageSingleFile(ctx context.Context, sourceFile, destination, entryName string) error {
	return s.pack(ctx, destination, &single{source: sourceFile, name: entryName}, nil)
}

// PackageUnit archives a compute unit. Extra asset directories land under
// their base name inside the archive.
func (s Service) PackageUnit(ctx context.Context, unit artifact.ComputeUnit, destination string) error {
	var entry *single
	var mounts []mount

	if unit.EntryFile != "" {
		entry = &single{source: unit.EntryFile, name: unit.EntryName}
	} else {
		mounts = append(mounts, mount{dir: unit.EntryDirectory})
	}

	for _, extra := range unit.ExtraAssetDirectories {
		mounts = append(mounts, mount{dir: extra, prefix: filepath.Base(extra)})
	}

	return s.pack(ctx, destination, entry, mounts)
}

func (s Service) pack(ctx context.Context, destination string, entry *single, mounts []mount) (err error) {
	if entry != nil {
		info, statErr := os.Stat(entry.source)
		if statErr != nil {
			return failure.New(failure.SourceNotFound, entry.source, statErr)
		}
		if info.IsDir() {
			return failure.Newf(failure.SourceNotFound, entry.source, "expected a file, found a directory")
		}
	}

	for _, m := range mounts {
		if !util.IsDir(m.dir) {
			return failure.Newf(failure.SourceNotFound, m.dir, "directory does not exist")
		}
	}

	if err := util.EnsureDir(filepath.Dir(destination)); err != nil {
		return err
	}

	out, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", destination, err)
	}

	defer func() {
		if err != nil {
			out.Close()
			os.Remove(destination)
		}
	}()

	zw := zip.NewWriter(out)
	count := 0

	if entry != nil {
		if err = addFile(zw, entry.source, entry.name); err != nil {
			return err
		}
		count++
	}

	for _, m := range mounts {
		added, walkErr := addTree(ctx, zw, m.dir, m.prefix)
		if walkErr != nil {
			return walkErr
		}
		count += added
	}

	// The archive is complete only once the central directory is written and
	// the file handle is flushed and closed.
	if err = zw.Close(); err != nil {
		return fmt.Errorf("finalize archive %s: %w", destination, err)
	}

	if err = out.Sync(); err != nil {
		return fmt.Errorf("flush archive %s: %w", destination, err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close archive %s: %w", destination, err)
	}

	log.Info().Str("archive", destination).Int("entries", count).Msg("packaged")

	if entry != nil {
		if rmErr := os.Remove(entry.source); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("dispose of %s: %w", entry.source, rmErr)
		}
	}

	return nil
}

func addTree(ctx context.Context, zw *zip.Writer, root, prefix string) (int, error) {
	count := 0

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		name := path.Join(prefix, filepath.ToSlash(rel))

		if d.Type()&fs.ModeSymlink != 0 {
			if err := addSymlink(zw, p, name); err != nil {
				return err
			}
		} else if err := addFile(zw, p, name); err != nil {
			return err
		}

		count++
		return nil
	})

	return count, err
}

func addFile(zw *zip.Writer, source, name string) error {
	f, err := os.Open(source)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("archive %s: %w", source, err)
	}

	return nil
}

func addSymlink(zw *zip.Writer, source, name string) error {
	info, err := os.Lstat(source)
	if err != nil {
		return err
	}

	target, err := os.Readlink(source)
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Store

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, target)
	return err
}
