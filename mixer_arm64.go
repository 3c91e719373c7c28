//go:build arm64

package xmplayer

// A NEON accumulate path would pay off once channel counts get large, but
// per-sample float32 mixing (rather than MOD's batch int8 buffer fills)
// gives a SIMD path much less to chew on per call. Fall back to scalar
// until profiling says otherwise.
func mixChannels(channels []*Channel, mute uint32) (float32, float32) {
	return mixChannelsScalar(channels, mute)
}
