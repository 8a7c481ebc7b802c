package npy

import (
	"archive/zip"
	"fmt"
	"os"
	"strings"
)

// An NPZWriter creates an uncompressed .npz archive, as
// produced by numpy.savez.
type NPZWriter struct {
	f *os.File
	z *zip.Writer
}

// Create creates (or truncates) an archive at path.
func Create(path string) (*NPZWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &NPZWriter{f: f, z: zip.NewWriter(f)}, nil
}

// Add stores an array as name.npy in the archive.
func (n *NPZWriter) Add(name string, a *Array) error {
	w, err := n.z.CreateHeader(&zip.FileHeader{
		Name:   name + ".npy",
		Method: zip.Store,
	})
	if err != nil {
		return err
	}
	if err := a.Write(w); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Close finishes the archive and closes the file.
func (n *NPZWriter) Close() error {
	if err := n.z.Close(); err != nil {
		n.f.Close()
		return err
	}
	return n.f.Close()
}

// ReadNPZ reads every array from an .npz archive, keyed by
// name without the .npy extension.
func ReadNPZ(path string) (map[string]*Array, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	res := map[string]*Array{}
	for _, file := range r.File {
		if !strings.HasSuffix(file.Name, ".npy") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		a, err := Read(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file.Name, err)
		}
		res[strings.TrimSuffix(file.Name, ".npy")] = a
	}
	return res, nil
}
