// Package mediastream implements the telephony side of the bridge: the
// Twilio-style Media Streams websocket protocol.
//
// The protocol is a duplex stream of JSON messages keyed by an "event" field.
// Inbound messages are decoded into a closed set of Event types so nothing
// outside this package depends on the wire vocabulary:
//
//	for raw, err := range conn.Messages() {
//	    if err != nil {
//	        return err
//	    }
//	    ev, err := mediastream.Decode(raw)
//	    if errors.Is(err, mediastream.ErrMalformedFrame) {
//	        continue // skip this message, keep the call
//	    }
//	    switch ev := ev.(type) {
//	    case *mediastream.Start:
//	        streamSID = ev.StreamSID
//	    case *mediastream.Media:
//	        forward(ev.Frame)
//	    }
//	}
//
// Outbound messages (media, mark, clear) are built from Outbound values and
// written with Conn.Send, which serializes concurrent writers.
package mediastream
