package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"wintec-ng/internal/tk"
)

// errBatch reports that at least one input of a batch command failed. The
// failures themselves were already logged.
type errBatch struct {
	failed, total int
}

func (e *errBatch) Error() string {
	return fmt.Sprintf("%d of %d files failed", e.failed, e.total)
}

func checkDir(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("output directory %s doesn't exist", dir)
		}
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}
	return nil
}

// createOutput creates dir/name and refuses to replace an existing file.
func createOutput(dir, name string) (*os.File, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("output file %s already exists", path)
		}
		return nil, err
	}
	return f, nil
}

// checkFree fails when the canonical name of c is already taken in dir.
func checkFree(dir string, c tk.Container) error {
	name, err := tk.Filename(c)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("output file %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// writeContainer stores c as dir/name, or under its canonical name when name
// is empty, and returns the path written.
func writeContainer(dir, name string, c tk.Container) (string, error) {
	if name == "" {
		var err error
		if name, err = tk.Filename(c); err != nil {
			return "", err
		}
	}
	b, err := tk.Encode(c)
	if err != nil {
		return "", err
	}
	f, err := createOutput(dir, name)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// expandArgs resolves glob patterns so that quoted patterns work the same
// on every shell. A pattern without matches is kept as is and fails later
// with a proper error.
func expandArgs(args []string) []string {
	var out []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			out = append(out, arg)
			continue
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out
}
