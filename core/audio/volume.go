package audio

import "encoding/binary"

// ScaleVolume scales little-endian linear16 samples in place by volume
// (clamped to [0, 1]). Other formats are returned unchanged; a trailing odd
// byte is left untouched.
func ScaleVolume(pcm []byte, format encodingFormat, volume float64) []byte {
	if format != EncodingLinear16 || volume >= 1 {
		return pcm
	}
	if volume < 0 {
		volume = 0
	}

	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(float64(sample)*volume)))
	}
	return pcm
}
