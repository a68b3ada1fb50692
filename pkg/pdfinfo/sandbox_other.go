//go:build !(linux && (amd64 || arm64))

package pdfinfo

// DefaultPolicy returns an empty policy; Install on it always fails so an
// enabled sandbox never silently runs unconfined.
func DefaultPolicy() *Policy {
	return &Policy{}
}

// Install is not supported on this platform.
func (p *Policy) Install() error {
	return ErrSandboxUnsupported
}
