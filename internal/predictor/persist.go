package predictor

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

var ErrUnreadableModel = errors.New("unreadable model file")

// Encode writes m as a gzip compressed gob stream.
func (m *Model) Encode(w io.Writer) error {
	zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return errors.Wrap(err, "gzip writer")
	}
	if err := gob.NewEncoder(zw).Encode(m); err != nil {
		zw.Close()
		return errors.Wrap(err, "encode model")
	}
	return errors.Wrap(zw.Close(), "close gzip")
}

func Decode(r io.Reader) (*Model, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(ErrUnreadableModel, err.Error())
	}
	defer zr.Close()

	var m Model
	if err := gob.NewDecoder(zr).Decode(&m); err != nil {
		return nil, errors.Wrap(ErrUnreadableModel, err.Error())
	}
	if m.Forest == nil || m.Prep == nil {
		return nil, errors.Wrap(ErrUnreadableModel, "missing forest or preprocessor")
	}
	return &m, nil
}

// Save writes m to path through a temporary file and rename.
func (m *Model) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create model dir")
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "create model file")
	}
	if err := m.Encode(f); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "close model file")
	}
	return errors.Wrap(os.Rename(tmp, path), "rename model file")
}

func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open model")
	}
	defer f.Close()
	return Decode(f)
}

// FileInfo describes a model file on disk.
type FileInfo struct {
	Size     int64
	Checksum string
}

// Stat hashes the model file at path with xxhash.
func Stat(path string) (FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileInfo{}, errors.Wrap(err, "open model")
	}
	defer f.Close()

	h := xxhash.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return FileInfo{}, errors.Wrap(err, "hash model")
	}
	return FileInfo{Size: n, Checksum: fmt.Sprintf("%016x", h.Sum64())}, nil
}
