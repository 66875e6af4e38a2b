// Package portaudio provides microphone capture and speaker playback through
// PortAudio on a single duplex stream.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-persona/core/audio"
)

var (
	_ audio.Capture = (*Client)(nil)
	_ audio.Output  = (*Client)(nil)
)

type Client struct {
	bufferSize int
	stream     *portaudio.Stream

	in  []int16
	out []int16

	captureMu     sync.Mutex
	captureCancel context.CancelFunc
	captureDone   chan struct{}

	outputMu      sync.Mutex
	leftoverAudio []byte
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}, nil
}

// CaptureDeviceCount reports how many devices with input channels PortAudio
// can see.
func (c *Client) CaptureDeviceCount() (int, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return 0, fmt.Errorf("failed to list devices: %w", err)
	}

	count := 0
	for _, device := range devices {
		if device.MaxInputChannels > 0 {
			count++
		}
	}
	return count, nil
}

func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	if c.captureCancel != nil {
		return fmt.Errorf("capture already in use")
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.captureCancel = cancel
	c.captureDone = done

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := c.stream.Read(); err != nil {
				logger.WarnContext(ctx, "failed to read from portaudio stream", "error", err)
				continue
			}

			audioBuffer := bytes.Buffer{}
			binary.Write(&audioBuffer, binary.LittleEndian, c.in)
			onAudio(audioBuffer.Bytes())
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	c.captureMu.Lock()
	cancel, done := c.captureCancel, c.captureDone
	c.captureCancel, c.captureDone = nil, nil
	c.captureMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (c *Client) Close() {
	_ = c.StopCapture()
	c.stream.Close()
	portaudio.Terminate()
}

// SendAudio writes whole buffers synchronously and keeps the remainder for
// the next call.
func (c *Client) SendAudio(audio []byte) error {
	c.outputMu.Lock()
	defer c.outputMu.Unlock()

	bufferSize := c.bufferSize * 2
	pending := append(c.leftoverAudio, audio...)
	for len(pending) >= bufferSize {
		if err := c.writeBuffer(pending[:bufferSize]); err != nil {
			return err
		}
		pending = pending[bufferSize:]
	}
	c.leftoverAudio = append([]byte(nil), pending...)

	return nil
}

func (c *Client) ClearBuffer() {
	c.outputMu.Lock()
	defer c.outputMu.Unlock()
	c.leftoverAudio = nil
}

// Mark flushes the remainder padded with silence; since writes are
// blocking, the callback runs once the flush returns.
func (c *Client) Mark(mark string, callback func(string)) error {
	c.outputMu.Lock()
	if len(c.leftoverAudio) > 0 {
		padded := make([]byte, c.bufferSize*2)
		copy(padded, c.leftoverAudio)
		c.leftoverAudio = nil
		if err := c.writeBuffer(padded); err != nil {
			c.outputMu.Unlock()
			return err
		}
	}
	c.outputMu.Unlock()

	go callback(mark)
	return nil
}

func (c *Client) writeBuffer(buffer []byte) error {
	if err := binary.Read(bytes.NewReader(buffer), binary.LittleEndian, c.out); err != nil {
		return fmt.Errorf("failed to decode audio buffer: %w", err)
	}
	if err := c.stream.Write(); err != nil {
		return fmt.Errorf("failed to write to portaudio stream: %w", err)
	}
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}
