package artifact

import (
	"fmt"
	"regexp"
	"strings"
)

// Block is one fenced code block pulled out of a provider answer.
type Block struct {
	Path     string
	Language string
	Content  string
}

var (
	// fenceRe matches an opening fence, optionally carrying a language and a
	// path hint ("```python" or "```python:src/main.py").
	fenceRe = regexp.MustCompile("^```([A-Za-z0-9_+-]*)(?::([\\w./-]+))?\\s*$")
	// pathHintRe finds a filename with an extension in the prose line above a
	// fence ("Create `src/app.py`:" or "**main.js**").
	pathHintRe = regexp.MustCompile(`([\w./-]+\.[A-Za-z0-9]{1,6})`)
)

// langExt maps fence languages to filename extensions for blocks that arrive
// with no path hint at all.
var langExt = map[string]string{
	"python":     "py",
	"py":         "py",
	"javascript": "js",
	"js":         "js",
	"typescript": "ts",
	"go":         "go",
	"html":       "html",
	"css":        "css",
	"json":       "json",
	"yaml":       "yaml",
	"sh":         "sh",
	"bash":       "sh",
	"sql":        "sql",
}

// ExtractBlocks parses fenced code blocks from answer text. The path for each
// block comes from the fence info string when present, then from a filename
// mentioned on the line directly above the fence, then from a synthesized
// name based on the language.
func ExtractBlocks(text string) []Block {
	lines := strings.Split(text, "\n")
	var blocks []Block
	var prevProse string

	for i := 0; i < len(lines); i++ {
		m := fenceRe.FindStringSubmatch(lines[i])
		if m == nil {
			if strings.TrimSpace(lines[i]) != "" {
				prevProse = lines[i]
			}
			continue
		}

		lang, hint := m[1], m[2]
		var body []string
		closed := false
		for i++; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "```" {
				closed = true
				break
			}
			body = append(body, lines[i])
		}
		if !closed && len(body) == 0 {
			break
		}

		path := hint
		if path == "" {
			if pm := pathHintRe.FindStringSubmatch(prevProse); pm != nil {
				path = pm[1]
			}
		}
		if path == "" {
			ext := langExt[strings.ToLower(lang)]
			if ext == "" {
				ext = "txt"
			}
			path = fmt.Sprintf("snippet_%d.%s", len(blocks)+1, ext)
		}

		blocks = append(blocks, Block{
			Path:     path,
			Language: strings.ToLower(lang),
			Content:  strings.Join(body, "\n"),
		})
		prevProse = ""
	}
	return blocks
}

// RecordBlocks extracts blocks from answer text and records each one as a
// code-file artifact for the given phase.
func (r *Registry) RecordBlocks(text, phase string) []Artifact {
	var out []Artifact
	for _, b := range ExtractBlocks(text) {
		out = append(out, r.Record(b.Path, KindCodeFile, b.Content, phase))
	}
	return out
}
