// Package extract pulls structured content out of free-form LLM
// responses: fenced code blocks, JSON documents, fix protocols and
// instruction lists.
package extract

import (
	"regexp"
	"strings"
)

var (
	fencedBlockRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)[ \t]*\n(.*?)```")
	fixedCodeRe   = regexp.MustCompile("(?s)FIXED_CODE:\\s*```(?:[a-zA-Z0-9_+-]*)?\\s*\n?(.+?)\\s*```")
	explanationRe = regexp.MustCompile("(?s)EXPLANATION:\\s*(.+?)(?:FIXED_CODE:|```|$)")
	numberedRe    = regexp.MustCompile(`^\d+[.)]\s*`)
	bulletRe      = regexp.MustCompile(`^[-*]\s*`)
)

// CodeBlock extracts code from a response. Preference order: a fenced
// block tagged with the wanted language, then the largest fenced block,
// then a heuristic scan for where code starts in the raw text.
func CodeBlock(response, language string) string {
	matches := fencedBlockRe.FindAllStringSubmatch(response, -1)

	if language != "" {
		for _, m := range matches {
			if strings.EqualFold(m[1], language) {
				return strings.TrimSpace(m[2])
			}
		}
	}

	largest := ""
	for _, m := range matches {
		if len(m[2]) > len(largest) {
			largest = m[2]
		}
	}
	if largest != "" {
		return strings.TrimSpace(largest)
	}

	return heuristicCode(response, language)
}

// heuristicCode finds the first line that looks like code and returns
// everything from there on.
func heuristicCode(response, language string) string {
	lines := strings.Split(response, "\n")
	for i, line := range lines {
		if looksLikeCode(line, language) {
			return strings.TrimSpace(strings.Join(lines[i:], "\n"))
		}
	}
	return strings.TrimSpace(response)
}

func looksLikeCode(line, language string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if language == "python" {
		for _, prefix := range []string{"import ", "from ", "def ", "class ", "#!", `"""`, "# "} {
			if strings.HasPrefix(trimmed, prefix) {
				return true
			}
		}
		return false
	}

	for _, ch := range []string{"{", "}", "(", ")", ";", "="} {
		if strings.Contains(trimmed, ch) {
			return true
		}
	}
	return false
}

// FixedCode extracts the code from a FIXED_CODE: fix protocol reply.
// Falls back to plain code block extraction when the marker is absent.
func FixedCode(response, language string) string {
	if m := fixedCodeRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return CodeBlock(response, language)
}

// Explanation extracts the EXPLANATION: section of a fix reply
func Explanation(response string) string {
	if m := explanationRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// JSONObject extracts a JSON object from a response: a ```json fence
// first, then the outermost brace pair.
func JSONObject(response string) string {
	return jsonPayload(response, '{', '}')
}

// JSONArray extracts a JSON array from a response
func JSONArray(response string) string {
	return jsonPayload(response, '[', ']')
}

func jsonPayload(response string, opener, closer byte) string {
	for _, m := range fencedBlockRe.FindAllStringSubmatch(response, -1) {
		body := strings.TrimSpace(m[2])
		if len(body) > 0 && body[0] == opener {
			return body
		}
	}

	start := strings.IndexByte(response, opener)
	end := strings.LastIndexByte(response, closer)
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(response[start : end+1])
}

// Instructions parses a numbered or bulleted instruction list out of a
// response. Bullets and numbering are stripped, short fragments are
// dropped, and the result is capped at six entries.
func Instructions(response string) []string {
	const maxInstructions = 6

	var out []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = numberedRe.ReplaceAllString(line, "")
		line = bulletRe.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)

		if len(line) > 10 {
			out = append(out, line)
		}
		if len(out) == maxInstructions {
			break
		}
	}
	return out
}
