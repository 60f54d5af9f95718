package bridge

import (
	"context"
	"errors"

	"github.com/haivivi/voicebridge/pkg/mediastream"
)

// runInbound pumps caller messages into the backend until the telephony side
// ends. A stop event or a normal close returns nil.
func (c *Coordinator) runInbound(ctx context.Context) error {
	for raw, err := range c.telephony.Messages() {
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &TransportError{Side: SideTelephony, Err: err}
		}

		ev, err := mediastream.Decode(raw)
		if err != nil {
			c.stats.Malformed.Add(1)
			c.logger.Warn("discarding inbound message", "error", err)
			continue
		}

		switch ev := ev.(type) {
		case *mediastream.Media:
			if err := c.forwardMedia(ev); err != nil && ctx.Err() == nil {
				return err
			}

		case *mediastream.Start:
			c.session.Start(ev.StreamSID, ev.CallSID)
			c.logger.Info("stream started",
				"stream_sid", ev.StreamSID,
				"call_sid", ev.CallSID,
				"encoding", ev.MediaFormat.Encoding,
				"sample_rate", ev.MediaFormat.SampleRate)

		case *mediastream.Mark:
			if c.session.AckMark() {
				c.stats.MarksAcked.Add(1)
			} else {
				c.logger.Debug("mark ack with nothing pending", "name", ev.Name)
			}

		case *mediastream.SpeechStarted:
			if err := c.bargeIn(SideTelephony); err != nil && ctx.Err() == nil {
				return err
			}

		case *mediastream.Stop:
			c.logger.Info("stream stopped")
			return nil

		case *mediastream.DTMF:
			c.logger.Info("dtmf", "digit", ev.Digit)

		case *mediastream.Connected:
			c.logger.Debug("telephony connected", "protocol", ev.Protocol, "version", ev.Version)

		case *mediastream.Unknown:
			c.logger.Debug("ignoring inbound event", "event", ev.Name)
		}
	}
	return nil
}

// forwardMedia advances the clock and appends the payload to the backend's
// input buffer. Frames arriving while the backend is closed are dropped.
func (c *Coordinator) forwardMedia(m *mediastream.Media) error {
	c.session.ObserveMedia(m.Frame.Timestamp)
	c.stats.FramesIn.Add(1)
	if len(m.Frame.Payload) == 0 {
		return nil
	}

	if c.backend.Closed() {
		c.stats.FramesDropped.Add(1)
		return nil
	}
	if err := c.backend.AppendAudio(m.Frame.Payload); err != nil {
		if c.backend.Closed() {
			c.stats.FramesDropped.Add(1)
			return nil
		}
		return &TransportError{Side: SideBackend, Err: err}
	}
	c.stats.FramesForwarded.Add(1)
	return nil
}

// bargeIn truncates the item being played, if any. The truncation goes to
// the backend first; then buffered caller audio is cleared.
func (c *Coordinator) bargeIn(source Side) error {
	tr, buffered, ok := c.session.BargeIn()
	if !ok {
		c.logger.Debug("speech started with nothing playing", "source", source)
		return nil
	}
	c.stats.Truncations.Add(1)
	c.logger.Info("barge-in", "source", source, "item_id", tr.ItemID, "audio_end_ms", tr.AudioEndMs)

	if tr.ItemID != "" {
		if err := c.backend.Truncate(tr.ItemID, tr.AudioEndMs); err != nil {
			if c.backend.Closed() {
				return &TransportError{Side: SideBackend, Err: err}
			}
			c.logger.Warn("truncate failed", "item_id", tr.ItemID, "error", err)
		}
	}

	if !buffered {
		return nil
	}
	streamID := c.session.StreamID()
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := c.telephony.Send(&mediastream.OutboundClear{StreamSID: streamID}); err != nil {
		if errors.Is(err, mediastream.ErrConnClosed) {
			return nil
		}
		return &TransportError{Side: SideTelephony, Err: err}
	}
	return nil
}
