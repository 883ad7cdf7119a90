//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package arena

func mapAnonymous(size int) ([]byte, error) {
	return nil, ErrMmapUnsupported
}

func unmap(data []byte) error {
	return ErrMmapUnsupported
}
