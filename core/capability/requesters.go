package capability

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-persona/core/audio"
)

// CaptureDevices grants audio capture when counter reports at least one
// capture device.
func CaptureDevices(counter audio.CaptureDeviceCounter) Requester {
	return RequesterFunc(func(context.Context) (bool, error) {
		if counter == nil {
			return false, nil
		}
		count, err := counter.CaptureDeviceCount()
		if err != nil {
			return false, fmt.Errorf("failed to enumerate capture devices: %w", err)
		}
		return count > 0, nil
	})
}

// Credential grants a capability backed by a remote service when its
// credential is configured.
func Credential(credential string) Requester {
	return RequesterFunc(func(context.Context) (bool, error) {
		return credential != "", nil
	})
}
