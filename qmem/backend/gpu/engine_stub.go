//go:build !cuda

package gpu

// openNativeDevice is the default opener in builds without the native
// engine. It always fails, so gpu-mode construction fails loudly.
func openNativeDevice(numQubits int) (Device, error) {
	return nil, ErrEngineUnavailable
}
