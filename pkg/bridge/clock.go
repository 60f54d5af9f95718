package bridge

// Clock tracks the caller-side media clock and the playback anchor of the
// item currently being played. It is not safe for concurrent use; CallSession
// guards it.
type Clock struct {
	mediaMs  int64
	anchorMs int64
	anchored bool
}

// Observe records the latest caller-side media timestamp.
func (c *Clock) Observe(ms int64) {
	c.mediaMs = ms
}

// Reset returns the clock to zero and drops the anchor. A new stream start
// is the only caller.
func (c *Clock) Reset() {
	*c = Clock{}
}

// Now returns the last observed media timestamp.
func (c *Clock) Now() int64 {
	return c.mediaMs
}

// Anchor captures the current media time as the start of playback. It is a
// no-op until ResetAnchor is called.
func (c *Clock) Anchor() {
	if c.anchored {
		return
	}
	c.anchorMs = c.mediaMs
	c.anchored = true
}

// Anchored reports whether an anchor is set.
func (c *Clock) Anchored() bool {
	return c.anchored
}

// AnchorMs returns the anchor, or 0 when none is set.
func (c *Clock) AnchorMs() int64 {
	if !c.anchored {
		return 0
	}
	return c.anchorMs
}

// ResetAnchor drops the anchor so the next Anchor captures a new value.
func (c *Clock) ResetAnchor() {
	c.anchorMs = 0
	c.anchored = false
}

// ElapsedSinceAnchor returns how much caller time has passed since playback
// started. It is 0 without an anchor and never negative.
func (c *Clock) ElapsedSinceAnchor() int64 {
	if !c.anchored || c.mediaMs < c.anchorMs {
		return 0
	}
	return c.mediaMs - c.anchorMs
}
