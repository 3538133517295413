//go:build windows

package keel

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mapAlignment returns the offset alignment the platform requires for
// file mappings. Views must start on an allocation boundary, which is
// 64 KiB on all supported Windows versions.
func mapAlignment() int64 {
	return 64 << 10
}

// mapRegion maps length bytes of the file starting at the aligned offset
// off for shared reading and writing. The caller has already sized the
// file to cover the region.
func mapRegion(f *os.File, off int64, length int) ([]byte, error) {
	end := uint64(off) + uint64(length)
	h, err := windows.CreateFileMapping(
		windows.Handle(f.Fd()),
		nil,
		windows.PAGE_READWRITE,
		uint32(end>>32),
		uint32(end),
		nil,
	)
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: f.Name(), Err: err}
	}

	addr, err := windows.MapViewOfFile(
		h,
		windows.FILE_MAP_READ|windows.FILE_MAP_WRITE,
		uint32(uint64(off)>>32),
		uint32(uint64(off)),
		uintptr(length),
	)
	// The view keeps the mapping object alive; the handle is not needed
	// past this point either way.
	_ = windows.CloseHandle(h)
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: f.Name(), Err: err}
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length), nil
}

// unmapRegion releases a region returned by mapRegion.
func unmapRegion(b []byte) error {
	return windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&b[0])))
}
