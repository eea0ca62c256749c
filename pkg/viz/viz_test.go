package viz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjav0703/typing-game/pkg/session"
)

func TestHistory(t *testing.T) {
	store, err := session.NewStore(session.ModeWords)
	require.NoError(t, err)
	for _, w := range []string{"the", "quick", "fox"} {
		_, err := store.Append(w)
		require.NoError(t, err)
	}
	doc, err := store.Fork()
	require.NoError(t, err)

	steps, err := History(doc, session.TextPath)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(steps), 3)

	last := steps[len(steps)-3:]
	assert.Equal(t, "the", last[0].Contribution)
	assert.Equal(t, "the", last[0].Text)
	assert.Equal(t, "quick", last[1].Contribution)
	assert.Equal(t, "the quick", last[1].Text)
	assert.Equal(t, "fox", last[2].Contribution)
	assert.Equal(t, "the quick fox", last[2].Text)
	assert.Equal(t, []string{last[1].Hash}, last[2].Dependencies)
}

func TestRenderHistoryToSvg(t *testing.T) {
	store, err := session.NewStore(session.ModeChars)
	require.NoError(t, err)
	_, err = store.Append("a")
	require.NoError(t, err)
	doc, err := store.Fork()
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "history.svg")
	require.NoError(t, RenderHistoryToSvg(doc, session.TextPath, out))
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<svg")
}
