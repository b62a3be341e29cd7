package artifact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordSupersedes(t *testing.T) {
	r := NewRegistry()
	first := r.Record("main.py", KindCodeFile, "print(1)", "implementation")
	second := r.Record("main.py", KindCodeFile, "print(2)", "review")

	current := r.Current()
	require.Len(t, current, 1)
	require.Equal(t, second.ID, current[0].ID)
	require.Equal(t, "print(2)", current[0].Content)

	history := r.History("main.py")
	require.Len(t, history, 2)
	require.Equal(t, first.ID, history[0].ID)
}

func TestCurrentKeepsFirstRecordedOrder(t *testing.T) {
	r := NewRegistry()
	r.Record("b.py", KindCodeFile, "b", "implementation")
	r.Record("a.py", KindCodeFile, "a", "implementation")
	r.Record("b.py", KindCodeFile, "b2", "review")

	current := r.Current()
	require.Equal(t, "b.py", current[0].Path)
	require.Equal(t, "a.py", current[1].Path)
}

func TestSetStatusAndVerified(t *testing.T) {
	r := NewRegistry()
	a := r.Record("plan.md", KindPlan, "the plan", "planning")
	require.Equal(t, StatusUnverified, a.Status)

	require.True(t, r.SetStatus(a.ID, StatusVerified))
	require.False(t, r.SetStatus("no-such-id", StatusVerified))

	verified := r.Verified()
	require.Len(t, verified, 1)
	require.Equal(t, a.ID, verified[0].ID)
}

func TestVerifyRejectsEmptyContent(t *testing.T) {
	var v Verifier
	require.Equal(t, StatusRejected, v.Verify(Artifact{Path: "a.txt", Content: "   \n\t"}))
	require.Equal(t, StatusVerified, v.Verify(Artifact{Path: "a.txt", Content: "hello"}))
}

func TestVerifyJSON(t *testing.T) {
	var v Verifier
	require.Equal(t, StatusVerified, v.Verify(Artifact{Path: "data.json", Content: `{"ok": true}`}))
	require.Equal(t, StatusRejected, v.Verify(Artifact{Path: "data.json", Content: `{"ok":`}))
}

func TestVerifyNotebook(t *testing.T) {
	var v Verifier

	good := `{"cells":[{"source":["import os\n"]}],"nbformat":4}`
	require.Equal(t, StatusVerified, v.Verify(Artifact{Path: "nb.ipynb", Content: good}))

	noCells := `{"cells":[],"nbformat":4}`
	require.Equal(t, StatusRejected, v.Verify(Artifact{Path: "nb.ipynb", Content: noCells}))

	emptyFirst := `{"cells":[{"source":[]}],"nbformat":4}`
	require.Equal(t, StatusRejected, v.Verify(Artifact{Path: "nb.ipynb", Content: emptyFirst}))

	notJSON := `not a notebook`
	require.Equal(t, StatusRejected, v.Verify(Artifact{Path: "nb.ipynb", Content: notJSON}))
}

func TestVerifyAllCounts(t *testing.T) {
	r := NewRegistry()
	r.Record("a.py", KindCodeFile, "print(1)", "implementation")
	r.Record("bad.json", KindData, "{", "implementation")
	r.Record("empty.txt", KindData, "", "implementation")

	verified, rejected := r.VerifyAll(Verifier{})
	require.Equal(t, 1, verified)
	require.Equal(t, 2, rejected)
	require.Len(t, r.Verified(), 1)
}

func TestExtractBlocksPathFromInfoString(t *testing.T) {
	text := "Here you go:\n```python:src/app.py\nprint('hi')\n```\n"
	blocks := ExtractBlocks(text)
	require.Len(t, blocks, 1)
	require.Equal(t, "src/app.py", blocks[0].Path)
	require.Equal(t, "python", blocks[0].Language)
	require.Equal(t, "print('hi')", blocks[0].Content)
}

func TestExtractBlocksPathFromProse(t *testing.T) {
	text := "Create `main.js` with:\n```javascript\nconsole.log(1)\n```\n"
	blocks := ExtractBlocks(text)
	require.Len(t, blocks, 1)
	require.Equal(t, "main.js", blocks[0].Path)
}

func TestExtractBlocksSynthesizedName(t *testing.T) {
	text := "Some context\n\n```python\nx = 1\n```\nand\n```\nplain\n```\n"
	blocks := ExtractBlocks(text)
	require.Len(t, blocks, 2)
	require.Equal(t, "snippet_1.py", blocks[0].Path)
	require.Equal(t, "snippet_2.txt", blocks[1].Path)
}

func TestExtractBlocksMultiple(t *testing.T) {
	text := "First `a.py`:\n```python\na = 1\n```\nThen `b.py`:\n```python\nb = 2\n```\n"
	blocks := ExtractBlocks(text)
	require.Len(t, blocks, 2)
	require.Equal(t, "a.py", blocks[0].Path)
	require.Equal(t, "b.py", blocks[1].Path)
}

func TestRecordBlocks(t *testing.T) {
	r := NewRegistry()
	arts := r.RecordBlocks("answer with\n```python:x.py\npass\n```\n", "implementation")
	require.Len(t, arts, 1)
	require.Equal(t, KindCodeFile, arts[0].Kind)
	require.Equal(t, "x.py", arts[0].Path)
	require.Equal(t, "implementation", arts[0].Phase)
}
