package flash

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// FileFlash is a Flash backed by a memory mapped image file.
//
// An image is the raw dump of the region, byte for byte. A sidecar "<path>.lock"
// file is held with an exclusive lock while the image is open so two processes
// never drive the same region.
type FileFlash struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	lock   *flock.Flock
	nor    *norArray
	closed bool
}

// CreateImage writes a fresh, fully erased image for geo at path.
// It fails if the file already exists.
func CreateImage(path string, geo Geometry) error {
	if err := geo.Validate(); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := fillErased(f, geo.Size()); err != nil {
		return err
	}
	return f.Sync()
}

// OpenFileFlash maps the image at path. A missing or empty file is created and
// initialized to the erased state.
func OpenFileFlash(path string, geo Geometry) (*FileFlash, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock image %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImageInUse, path)
	}

	f, data, err := mapImage(path, geo)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	log.Infof("opened flash image %s (%s)", path, geo)
	return &FileFlash{
		path: path,
		file: f,
		lock: lock,
		nor:  newNorArray(geo, data),
	}, nil
}

func mapImage(path string, geo Geometry) (*os.File, []byte, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	switch info.Size() {
	case 0:
		if err := fillErased(f, geo.Size()); err != nil {
			f.Close()
			return nil, nil, err
		}
	case int64(geo.Size()):
	default:
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrImageSize, path, info.Size(), geo.Size())
	}

	data, err := unix.Mmap(int(f.Fd()), 0, geo.Size(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return f, data, nil
}

func fillErased(f *os.File, size int) error {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0xFF
	}
	_, err := f.WriteAt(buf, 0)
	return err
}

// Geometry returns the layout of the region.
func (ff *FileFlash) Geometry() Geometry {
	return ff.nor.geo
}

// Path returns the image path.
func (ff *FileFlash) Path() string {
	return ff.path
}

// --------------------------------------------------------------------------
// Flash implementation
// --------------------------------------------------------------------------

func (ff *FileFlash) ErasePage(addr uint32) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.closed {
		return ErrClosed
	}
	if err := ff.nor.erase(addr, -1); err != nil {
		return err
	}
	return ff.sync()
}

func (ff *FileFlash) WriteWord(addr uint32, value uint32) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.closed {
		return ErrClosed
	}
	if err := ff.nor.writeWord(addr, value); err != nil {
		return err
	}
	return ff.sync()
}

func (ff *FileFlash) WriteHalfWord(addr uint32, value uint16) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.closed {
		return ErrClosed
	}
	if err := ff.nor.writeHalfWord(addr, value); err != nil {
		return err
	}
	return ff.sync()
}

func (ff *FileFlash) ReadWord(addr uint32) uint32 {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.closed {
		return ErasedWord
	}
	return ff.nor.readWord(addr)
}

// Sync flushes the mapping to the image file.
func (ff *FileFlash) Sync() error {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.closed {
		return ErrClosed
	}
	return ff.sync()
}

// sync flushes the mapping so a completed operation survives a crash of this process.
func (ff *FileFlash) sync() error {
	return unix.Msync(ff.nor.data, unix.MS_SYNC)
}

// --------------------------------------------------------------------------
// Inspection and lifecycle
// --------------------------------------------------------------------------

// Snapshot returns a copy of the raw contents.
func (ff *FileFlash) Snapshot() []byte {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	out := make([]byte, len(ff.nor.data))
	if !ff.closed {
		copy(out, ff.nor.data)
	}
	return out
}

// EraseCounts returns the number of erases per page since the image was opened.
func (ff *FileFlash) EraseCounts() []uint64 {
	return ff.nor.eraseCounts()
}

// ProgramCount returns the number of program operations since the image was opened.
func (ff *FileFlash) ProgramCount() uint64 {
	return ff.nor.programs.Load()
}

// Close unmaps the image and releases the lock.
func (ff *FileFlash) Close() error {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.closed {
		return nil
	}
	ff.closed = true

	var errs []error
	if err := unix.Msync(ff.nor.data, unix.MS_SYNC); err != nil {
		errs = append(errs, err)
	}
	if err := unix.Munmap(ff.nor.data); err != nil {
		errs = append(errs, err)
	}
	if err := ff.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := ff.lock.Unlock(); err != nil {
		errs = append(errs, err)
	}
	log.Infof("closed flash image %s", ff.path)
	return errors.Join(errs...)
}
