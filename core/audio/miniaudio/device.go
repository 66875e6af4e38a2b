package miniaudio

import (
	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-persona/core/audio"
)

const (
	channels = 1
	format   = malgo.FormatS16

	capturePeriodFrames = 480
	capturePeriods      = 3
	playbackPeriods     = 4
)

var bytesPerFrame = malgo.SampleSizeInBytes(format) * channels

// deviceConfig returns the mono 16-bit configuration shared by the
// microphone and the speaker.
func deviceConfig(deviceType malgo.DeviceType) malgo.DeviceConfig {
	config := malgo.DefaultDeviceConfig(deviceType)
	config.SampleRate = audio.DefaultSampleRate
	config.Alsa.NoMMap = 1

	switch deviceType {
	case malgo.Capture:
		config.Capture.Format = format
		config.Capture.Channels = channels
		config.PerformanceProfile = malgo.LowLatency
		config.PeriodSizeInFrames = capturePeriodFrames
		config.Periods = capturePeriods
	case malgo.Playback:
		config.Playback.Format = format
		config.Playback.Channels = channels
		// About 100ms per period.
		config.PeriodSizeInFrames = audio.DefaultSampleRate / 10
		config.Periods = playbackPeriods
	}
	return config
}
