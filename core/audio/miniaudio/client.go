// Package miniaudio provides microphone capture and speaker playback through
// miniaudio (malgo).
package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-persona/core/audio"
)

var (
	_ audio.Capture              = (*Client)(nil)
	_ audio.PausableOutput       = (*Client)(nil)
	_ audio.CaptureDeviceCounter = (*Client)(nil)
)

type Client struct {
	audioContext *malgo.AllocatedContext
	speaker      speaker
	microphone   microphone
}

// NewClient opens the default playback and capture devices. Playback starts
// right away; capture starts with StartCapture.
func NewClient() (*Client, error) {
	audioContext, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := &Client{audioContext: audioContext}
	if err := client.speaker.open(audioContext); err != nil {
		client.Close()
		return nil, err
	}
	if err := client.speaker.resume(); err != nil {
		client.Close()
		return nil, err
	}
	if err := client.microphone.open(audioContext); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// CaptureDeviceCount reports how many capture devices miniaudio can see.
func (c *Client) CaptureDeviceCount() (int, error) {
	devices, err := c.audioContext.Devices(malgo.Capture)
	if err != nil {
		return 0, fmt.Errorf("failed to list capture devices: %w", err)
	}
	return len(devices), nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	return c.microphone.start(onAudio)
}

func (c *Client) StopCapture() error { return c.microphone.stop() }

func (c *Client) SendAudio(audio []byte) error {
	c.speaker.queue.push(audio)
	return nil
}

func (c *Client) ClearBuffer() { c.speaker.queue.reset() }

func (c *Client) Mark(mark string, callback func(string)) error {
	c.speaker.queue.mark(mark, callback)
	return nil
}

func (c *Client) PausePlayback() error { return c.speaker.pause() }

func (c *Client) ResumePlayback() error { return c.speaker.resume() }

func (c *Client) Close() {
	c.microphone.close()
	c.speaker.close()
	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
		c.audioContext = nil
	}
}
