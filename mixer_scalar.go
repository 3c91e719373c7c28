package xmplayer

// mixChannelsScalar is the non-SIMD channel accumulate loop. It is the
// only implementation today; mixer.go and mixer_arm64.go exist so an
// architecture-specific path has an obvious place to be added later
// without disturbing this one.
func mixChannelsScalar(channels []*Channel, mute uint32) (float32, float32) {
	var left, right float32
	for i, c := range channels {
		if mute&(1<<uint(i)) != 0 {
			continue
		}
		l, r := c.Next()
		left += l
		right += r
	}
	return left, right
}
