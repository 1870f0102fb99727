// Package archive bundles multi-file operation outputs into a single zip file.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
)

// ErrArchive is returned when the archive could not be written. No input file is deleted then.
var ErrArchive = errors.New("failed to write archive")

// Path returns the archive name for an output path: its extension replaced by .zip.
func Path(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".zip"
}

// Bundle writes files into a new zip at archivePath and deletes the originals once the archive
// is closed and synced. On failure the partial archive is removed and every original is kept.
func Bundle(files []string, archivePath string, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{"archive": archivePath, "files": len(files)}).Info("Start to zip files")

	f, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchive, err)
	}

	fail := func(err error) error {
		f.Close()
		os.Remove(archivePath)
		return fmt.Errorf("%w: %v", ErrArchive, err)
	}

	zw := zip.NewWriter(f)
	for i, name := range files {
		log.WithField("file", filepath.Base(name)).Debugf("Handle file %d", i+1)
		if err := addFile(zw, name); err != nil {
			zw.Close()
			return fail(err)
		}
	}
	if err := zw.Close(); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(archivePath)
		return fmt.Errorf("%w: %v", ErrArchive, err)
	}

	var errs []error
	for _, name := range files {
		if err := os.Remove(name); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("archive written but originals remain: %w", errors.Join(errs...))
	}
	return nil
}

func addFile(zw *zip.Writer, name string) error {
	src, err := os.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(name)
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("%s: %v", name, err)
	}
	return nil
}
