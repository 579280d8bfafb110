//go:build !linux

package device

import (
	"fmt"
	"runtime"

	"github.com/yshui/entangle/internal/domain"
)

// NewProvider returns the platform device provider. Only Linux has one;
// other platforms get a provider that reports its absence.
func NewProvider() domain.DeviceProvider {
	return stubProvider{}
}

type stubProvider struct{}

func (stubProvider) ListDevices() ([]domain.Descriptor, error) {
	return nil, errUnsupported()
}

func (stubProvider) OpenForCapture(domain.DeviceID) (domain.CaptureHandle, error) {
	return nil, errUnsupported()
}

func (stubProvider) OpenForInjection(domain.Descriptor) (domain.InjectionHandle, error) {
	return nil, errUnsupported()
}

func errUnsupported() error {
	return fmt.Errorf("input devices not supported on %s", runtime.GOOS)
}
