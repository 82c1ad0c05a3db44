package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/freddie-moore/scriptTok/batch"
)

// ReduceTranscripts concatenates the successful transcripts into one text
// block, each tagged [PAST_SCRIPT_N]. Numbering follows completion order of
// the successes; failed units are skipped and never leave gaps. Returns the
// block and the number of successes.
func ReduceTranscripts(results batch.BatchResult) (string, int) {
	var blocks []string
	n := 0
	for _, r := range results {
		if r.Failed() || r.Transcription == nil {
			continue
		}
		n++
		blocks = append(blocks, fmt.Sprintf("[PAST_SCRIPT_%d]:\n%s", n, r.Transcription.Text))
	}
	return strings.Join(blocks, "\n\n"), n
}

// ComposePrompt joins the transcript corpus with the new topic tag.
func ComposePrompt(corpus, topic string) string {
	return fmt.Sprintf("%s\n\n[NEW_TOPIC]:\n%s", corpus, topic)
}

var scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)

// ExtractScriptBlock returns the interior of the first <script>...</script>
// block in s, or s unchanged if there is none. Generation backends sometimes
// wrap the payload in markup.
func ExtractScriptBlock(s string) string {
	if m := scriptBlockRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}
