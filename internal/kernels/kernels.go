// Package kernels embeds the device program sources.
package kernels

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

// VecAddEntry is the entry point of VecAddSource.
const VecAddEntry = "addVectors"

// VecAddFile is the file name VecAddSource is materialized under.
const VecAddFile = "vecadd.cl"

// VecAddSource computes c[i] = a[i] + b[i] for i < n. The element type is
// supplied with -D ARRAY_TYPE.
//
//go:embed vecadd.cl
var VecAddSource string

// Materialize writes the embedded source into dir and returns its path. An
// existing file is left alone when its content already matches.
func Materialize(dir string) (string, error) {
	path := filepath.Join(dir, VecAddFile)
	if cur, err := os.ReadFile(path); err == nil && bytes.Equal(cur, []byte(VecAddSource)) {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("not able to create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(VecAddSource), 0o644); err != nil {
		return "", fmt.Errorf("not able to write %s: %w", path, err)
	}
	return path, nil
}
