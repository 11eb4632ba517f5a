package channel

import (
	"strings"

	"github.com/figmenta/copilot/pkg/message"
)

// SplitText splits text into chunks of at most maxLength bytes,
// preferring natural break points: the last newline at or before the
// limit, then the last space, then a hard cut. A break candidate that
// falls before the midpoint of the limit is rejected so chunks stay
// reasonably full. The final segment shorter than maxLength is emitted
// as-is, so the result never contains an empty or over-limit chunk.
// maxLength <= 0 disables splitting.
func SplitText(text string, maxLength int) []string {
	if maxLength <= 0 || len(text) <= maxLength {
		return []string{text}
	}

	var chunks []string
	remaining := text

	for len(remaining) > 0 {
		if len(remaining) <= maxLength {
			chunks = append(chunks, remaining)
			break
		}

		window := remaining[:maxLength+1]

		split := strings.LastIndex(window, "\n")
		if split < 0 || split < maxLength/2 {
			split = strings.LastIndex(window, " ")
		}
		if split < 0 || split < maxLength/2 {
			split = maxLength
		}

		chunks = append(chunks, remaining[:split])
		// The break character itself is whitespace; trim it together
		// with any surrounding run.
		remaining = strings.TrimSpace(remaining[split:])
	}

	return chunks
}

// SplitMessage splits an outbound message into one message per text
// chunk, each respecting maxLength. If the message already fits, a
// single-element slice is returned.
func SplitMessage(msg message.OutboundMessage, maxLength int) []message.OutboundMessage {
	chunks := SplitText(msg.Content, maxLength)
	out := make([]message.OutboundMessage, len(chunks))
	for i, chunk := range chunks {
		out[i] = msg
		out[i].Content = chunk
		// Only the first chunk keeps the reply reference.
		if i > 0 {
			out[i].ReplyToID = ""
		}
	}
	return out
}
