package server

import (
	"encoding/xml"
)

// TwiML documents returned by the incoming-call endpoint. Only the verbs
// the bridge needs are modelled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlConnect struct {
	XMLName xml.Name    `xml:"Connect"`
	Stream  twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL string `xml:"url,attr"`
}

// answer renders: optional intro, then Connect/Stream to streamURL, then the
// fallback. Connect blocks until the stream ends, so the fallback is only
// spoken when the bridge hangs up or never accepts.
func answer(intro, streamURL, fallback string) ([]byte, error) {
	resp := twimlResponse{}
	if intro != "" {
		resp.Verbs = append(resp.Verbs, twimlSay{Text: intro})
	}
	resp.Verbs = append(resp.Verbs, twimlConnect{Stream: twimlStream{URL: streamURL}})
	if fallback != "" {
		resp.Verbs = append(resp.Verbs, twimlSay{Text: fallback})
	}
	body, err := xml.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
