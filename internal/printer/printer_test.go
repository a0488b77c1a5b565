package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevColor := Out, color.NoColor
	Out = &buf
	color.NoColor = true
	t.Cleanup(func() {
		Out = prevOut
		color.NoColor = prevColor
	})
	return &buf
}

func TestStatusLines(t *testing.T) {
	buf := capture(t)
	Success("imported %d files", 3)
	Warning("cache disabled\n")
	Info("done")
	require.Equal(t, "✓ imported 3 files\n! cache disabled\ndone\n", buf.String())
}

func TestTable(t *testing.T) {
	buf := capture(t)
	require.NoError(t, Table([]string{"id", "title"}, [][]string{
		{"1", "REQUEST FOR PRODUCTION NO: 1"},
		{"2", "REQUEST FOR PRODUCTION NO: 2"},
	}))
	out := buf.String()
	require.Contains(t, out, "REQUEST FOR PRODUCTION NO: 2")
	require.Contains(t, strings.ToUpper(out), "TITLE")
}

func TestErrorReturnsTitle(t *testing.T) {
	err := Error("backend unreachable", "", "start the server with sfn serve")
	require.EqualError(t, err, "backend unreachable")
}
