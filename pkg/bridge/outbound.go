package bridge

import (
	"context"
	"errors"

	"github.com/haivivi/voicebridge/pkg/mediastream"
)

// runOutbound dispatches backend events until the backend side ends. Audio
// and response completions are handed to the playout loop so that a full
// mark queue never delays barge-in. It returns nil when the call was torn
// down from elsewhere.
func (c *Coordinator) runOutbound(ctx context.Context) error {
	defer c.playout.close()

	var lastErr error
	for ev, err := range c.backend.Events() {
		if err != nil {
			if c.backend.Closed() {
				lastErr = err
				break
			}
			c.stats.BackendErrors.Add(1)
			c.logger.Warn("discarding backend event", "error", err)
			continue
		}

		switch ev := ev.(type) {
		case *AudioDelta, *ResponseDone:
			c.playout.push(ev)

		case *SpeechStarted:
			if err := c.bargeIn(SideBackend); err != nil && ctx.Err() == nil {
				return err
			}

		case *Failure:
			c.stats.BackendErrors.Add(1)
			c.logger.Error("backend error", "error", ev.Err())

		case *SessionReady:
			c.logger.Info("backend session ready", "session_id", ev.SessionID, "updated", ev.Updated)

		case *Other:
			c.logger.Debug("ignoring backend event", "type", ev.Type)
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	return &TransportError{Side: SideBackend, Err: lastErr}
}

// forwardAudio sends one model audio chunk followed by its playback mark.
// It waits while the mark queue is full.
func (c *Coordinator) forwardAudio(ctx context.Context, d *AudioDelta) error {
	if err := c.session.waitForSpace(ctx); err != nil {
		return nil
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	streamID, err := c.session.reserve(d.ItemID)
	if err != nil {
		c.stats.DeltasDropped.Add(1)
		c.logger.Debug("dropping audio delta", "item_id", d.ItemID, "reason", err)
		return nil
	}

	if err := c.send(&mediastream.OutboundMedia{
		StreamSID: streamID,
		Frame:     mediastream.Frame{Payload: d.Audio, Format: c.cfg.OutputAudioFormat},
	}); err != nil {
		return err
	}
	c.stats.ChunksOut.Add(1)

	if err := c.send(&mediastream.OutboundMark{StreamSID: streamID, Name: c.cfg.MarkName}); err != nil {
		return err
	}
	c.stats.MarksSent.Add(1)
	return nil
}

func (c *Coordinator) send(msg mediastream.Outbound) error {
	if err := c.telephony.Send(msg); err != nil {
		if errors.Is(err, mediastream.ErrConnClosed) {
			return &TransportError{Side: SideTelephony}
		}
		return &TransportError{Side: SideTelephony, Err: err}
	}
	return nil
}
