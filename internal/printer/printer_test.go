package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevNoColor := Out, color.NoColor
	Out, color.NoColor = &buf, true
	t.Cleanup(func() { Out, color.NoColor = prevOut, prevNoColor })
	return &buf
}

func TestSuccess(t *testing.T) {
	buf := capture(t)
	Success("imported %d projects\n", 4)
	Success("✓ already prefixed\n")
	assert.Equal(t, "✓ imported 4 projects\n✓ already prefixed\n", buf.String())
}

func TestWarning(t *testing.T) {
	buf := capture(t)
	Warning("cache disabled\n")
	assert.Equal(t, "⚠️  cache disabled\n", buf.String())
}

func TestTag(t *testing.T) {
	capture(t)
	assert.Equal(t, "[React (2)]", Tag("React", 2, true, false))
	assert.Equal(t, "Vue (0)", Tag("Vue", 0, false, true))
	assert.Equal(t, "Go (3)", Tag("Go", 3, false, false))
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Project not found", "No project has slug x", nil)
		require.Error(t, err)
		require.Equal(t, "Project not found", err.Error())
	})

	t.Run("returns error with title for multiple suggestions", func(t *testing.T) {
		err := Error("Catalog unavailable", "Explanation", []string{"First", "Second"})
		require.Error(t, err)
		require.Equal(t, "Catalog unavailable", err.Error())
	})
}
