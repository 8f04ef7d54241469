package debugclient

import (
	"bytes"
	"encoding/json"
	"strings"
)

const doneMarker = "[DONE]"

// Accumulator turns a relayed event stream into the analysis text. Feed it
// raw body chunks with Write in arrival order; chunk boundaries may fall
// anywhere, including inside a multi-byte character.
//
// A data payload that is not valid JSON is held and retried with the next
// line appended, so an event split across lines still decodes.
type Accumulator struct {
	buf     []byte
	pending string
	result  strings.Builder
	done    bool
}

// Write implements io.Writer so a response body can be copied into the
// accumulator. It never fails.
func (a *Accumulator) Write(p []byte) (int, error) {
	a.Feed(p)
	return len(p), nil
}

// Feed consumes a chunk and returns the delta text it produced.
func (a *Accumulator) Feed(p []byte) string {
	if a.done {
		return ""
	}
	a.buf = append(a.buf, p...)

	var delta strings.Builder
	for !a.done {
		i := bytes.IndexByte(a.buf, '\n')
		if i < 0 {
			break
		}
		line := string(a.buf[:i])
		a.buf = a.buf[i+1:]
		delta.WriteString(a.line(line))
	}
	if len(a.buf) == 0 {
		a.buf = nil
	}
	return delta.String()
}

// Finish flushes a trailing line that had no newline and returns the final
// text. Payloads that still do not parse are dropped.
func (a *Accumulator) Finish() string {
	if !a.done && len(a.buf) > 0 {
		a.line(string(a.buf))
	}
	a.buf = nil
	a.pending = ""
	return a.result.String()
}

// Result is the text accumulated so far.
func (a *Accumulator) Result() string { return a.result.String() }

// Done reports whether the [DONE] marker was seen.
func (a *Accumulator) Done() bool { return a.done }

func (a *Accumulator) line(line string) string {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
		return ""
	}

	var payload string
	switch {
	case strings.HasPrefix(line, "data: "):
		payload = strings.TrimSpace(line[len("data: "):])
	case a.pending != "":
		payload = strings.TrimSpace(line)
	default:
		// event:, id:, retry: and unknown fields
		return ""
	}

	if a.pending == "" && payload == doneMarker {
		a.done = true
		return ""
	}

	if a.pending != "" {
		joined := a.pending + "\n" + payload
		if text, ok := decodeDelta(joined); ok {
			a.pending = ""
			return a.append(text)
		}
		if payload == doneMarker {
			a.pending = ""
			a.done = true
			return ""
		}
		if text, ok := decodeDelta(payload); ok {
			a.pending = ""
			return a.append(text)
		}
		a.pending = joined
		return ""
	}

	text, ok := decodeDelta(payload)
	if !ok {
		a.pending = payload
		return ""
	}
	return a.append(text)
}

func (a *Accumulator) append(text string) string {
	a.result.WriteString(text)
	return text
}

// deltaChunk declares only the field the client reads, so gateways that add
// or retype other fields (id, index, usage) still decode.
type deltaChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func decodeDelta(payload string) (string, bool) {
	var chunk deltaChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return "", false
	}
	if len(chunk.Choices) == 0 {
		return "", true
	}
	return chunk.Choices[0].Delta.Content, true
}
