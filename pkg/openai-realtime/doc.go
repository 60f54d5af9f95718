// Package openairealtime is a websocket client for OpenAI's Realtime API,
// narrowed to what a telephony bridge needs.
//
// # Connecting
//
//	client, err := openairealtime.NewClient(apiKey)
//	if err != nil {
//	    return err
//	}
//	session, err := client.Connect(ctx, openairealtime.ModelGPT4oRealtimePreview20241001)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
// # Session Configuration
//
// Telephony audio is G.711 μ-law in both directions, so no transcoding is
// needed on either side:
//
//	err = session.UpdateSession(&openairealtime.SessionConfig{
//	    Voice:             openairealtime.VoiceAlloy,
//	    InputAudioFormat:  openairealtime.AudioFormatG711ULaw,
//	    OutputAudioFormat: openairealtime.AudioFormatG711ULaw,
//	    TurnDetection:     &openairealtime.TurnDetection{Type: openairealtime.VADServerVAD},
//	})
//
// # Receiving Events
//
// Events yields every server event. A message that cannot be parsed is
// yielded as an error and iteration continues; the iterator ends when the
// connection closes.
//
//	for event, err := range session.Events() {
//	    if err != nil {
//	        slog.Warn("bad event", "error", err)
//	        continue
//	    }
//	    switch event.Type {
//	    case openairealtime.EventTypeResponseAudioDelta:
//	        play(event.ItemID, event.Audio)
//	    }
//	}
package openairealtime
