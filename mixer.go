//go:build !arm64

package xmplayer

// mixChannels sums every unmuted channel's current stereo contribution.
// Split by build tag so an arm64 NEON path has somewhere to live without
// touching the scalar fallback every other architecture uses.
func mixChannels(channels []*Channel, mute uint32) (float32, float32) {
	return mixChannelsScalar(channels, mute)
}
