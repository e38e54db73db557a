package kernelcache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"

	"github.com/23skdu/longbow-clvecadd/internal/device"
)

// manifestSuffix is appended to a binary path to locate its manifest.
const manifestSuffix = ".meta"

var (
	errManifestMismatch = errors.New("binary was built for a different device or options")
	errChecksum         = errors.New("binary checksum mismatch")
)

// Manifest describes a persisted program binary. It is stored next to the
// binary and checked before the binary is handed to the device.
type Manifest struct {
	Driver   string    `cbor:"driver"`
	Device   string    `cbor:"device"`
	Version  string    `cbor:"version"`
	Options  string    `cbor:"options"`
	Size     int       `cbor:"size"`
	Checksum uint64    `cbor:"checksum"`
	Created  time.Time `cbor:"created"`
}

func newManifest(ec *device.ExecContext, options string, bin []byte) Manifest {
	dev := ec.Device()
	return Manifest{
		Driver:   ec.Driver().Name(),
		Device:   dev.Info.Name,
		Version:  dev.Info.Version,
		Options:  options,
		Size:     len(bin),
		Checksum: xxhash.Sum64(bin),
		Created:  time.Now().UTC(),
	}
}

func (m Manifest) verify(ec *device.ExecContext, options string, bin []byte) error {
	dev := ec.Device()
	if m.Driver != ec.Driver().Name() || m.Device != dev.Info.Name || m.Version != dev.Info.Version || m.Options != options {
		return errManifestMismatch
	}
	if m.Size != len(bin) || m.Checksum != xxhash.Sum64(bin) {
		return errChecksum
	}
	return nil
}

// BinaryPath returns the artifact path for a binary of name built on the
// bound device with options. The file name carries a hash of the driver,
// device and options so that binaries for different element types never
// share a path.
func BinaryPath(dir, name string, ec *device.ExecContext, options string) string {
	dev := ec.Device()
	d := xxhash.New()
	for _, s := range []string{ec.Driver().Name(), dev.Info.Name, dev.Info.Version, options} {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%016x.bin", name, d.Sum64()))
}

// readBinary loads the binary at path. When a manifest exists it must match
// the bound device and options; a binary without manifest is passed to the
// device unchecked.
func readBinary(path string, ec *device.ExecContext, options string) ([]byte, error) {
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading binary file %s: %w", path, err)
	}
	if len(bin) == 0 {
		return nil, fmt.Errorf("binary file %s is empty", path)
	}

	raw, err := os.ReadFile(path + manifestSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return bin, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading manifest for %s: %w", path, err)
	}

	var m Manifest
	if err := cbor.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("error decoding manifest for %s: %w", path, err)
	}
	if err := m.verify(ec, options, bin); err != nil {
		return nil, fmt.Errorf("binary file %s: %w", path, err)
	}
	return bin, nil
}

// writeBinary persists bin and its manifest. Both files are replaced
// atomically so a concurrent reader never observes a partial binary.
func writeBinary(path string, bin []byte, ec *device.ExecContext, options string) error {
	meta, err := cbor.Marshal(newManifest(ec, options, bin))
	if err != nil {
		return fmt.Errorf("error encoding manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("not able to create %s: %w", filepath.Dir(path), err)
	}
	if err := writeAtomic(path, bin); err != nil {
		return err
	}
	return writeAtomic(path+manifestSuffix, meta)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("not able to create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("not able to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("not able to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("not able to write %s: %w", path, err)
	}
	return nil
}
