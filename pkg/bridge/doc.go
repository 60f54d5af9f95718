// Package bridge relays one live phone call between a telephony media stream
// and a realtime voice model.
//
// A Coordinator owns one call. It dials the model, configures the session,
// and runs two relays concurrently:
//
//   - the inbound relay moves caller audio to the model and handles stream
//     lifecycle, playback acknowledgments and barge-in;
//   - the outbound relay dispatches model events and queues model audio for
//     playout, which forwards each chunk to the caller tagged with a mark so
//     playback progress can be tracked.
//
// Playout pauses while too many marks are unacknowledged; the relays do not.
// All three share a CallSession guarded by a single mutex. When the caller
// starts speaking over the model, the item being played is truncated at the
// number of milliseconds the caller has actually heard, so the model's view
// of the conversation matches what was played.
//
// Usage:
//
//	conn, _ := mediastream.Upgrade(w, r)
//	c, err := bridge.NewCoordinator(conn, bridge.DialRealtime(client, model, logger), cfg)
//	if err != nil {
//	    return err
//	}
//	err = c.Run(ctx)
package bridge
