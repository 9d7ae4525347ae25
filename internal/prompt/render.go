// Package prompt renders the double-brace prompt templates configured in the
// prompt set, e.g. "Your mood is {{MOOD}} at {{MOOD_LEVEL}}".
package prompt

import (
	"fmt"
	"strings"
)

// Render substitutes {{KEY}} tokens with the given variables. Tokens without a
// matching variable are left verbatim so that template mistakes stay visible.
// There is deliberately no control flow beyond substitution.
func Render(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Section is a named fallback block appended to a rendered prompt when the
// template predates the corresponding placeholder.
type Section struct {
	Title string
	Value string
}

// AppendMissing appends each non-empty section whose value does not already
// appear verbatim in the rendered prompt. Older prompt-set templates lack some
// placeholders; this keeps their chats working without editing the template.
func AppendMissing(rendered string, sections []Section) string {
	var b strings.Builder
	b.WriteString(rendered)
	for _, section := range sections {
		if section.Value == "" || strings.Contains(rendered, section.Value) {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(section.Title)
		b.WriteString(":\n")
		b.WriteString(section.Value)
	}
	return b.String()
}

// EnumerateKeypoints formats keypoints as "<namespace>_<n>: <text>" lines, one
// per keypoint, matching the ids tracked by the keypoint tracker.
func EnumerateKeypoints(namespace string, keypoints []string) string {
	lines := make([]string, len(keypoints))
	for i, keypoint := range keypoints {
		lines[i] = fmt.Sprintf("%s_%d: %s", namespace, i+1, keypoint)
	}
	return strings.Join(lines, "\n")
}

// FormatHistory joins prior assistant lines for the {{CONVERSATION_HISTORY}}
// placeholder. The system prompt carries the history; the completion request
// itself only contains the current user message.
func FormatHistory(assistantLines []string) string {
	return strings.Join(assistantLines, "\n")
}
