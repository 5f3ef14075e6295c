package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAngleWithBase_HidesLabelBeforeReveal(t *testing.T) {
	svg := string(AngleWithBase(137, 0, false))
	require.Contains(t, svg, "<svg")
	require.Contains(t, svg, "polyline")
	require.NotContains(t, svg, "<text")
	require.NotContains(t, svg, "&#176;")
}

func TestAngleWithBase_ShowsLabelOnReveal(t *testing.T) {
	svg := string(AngleWithBase(137, 45, true))
	require.Contains(t, svg, ">137&#176;</text>")
}

func TestAngleWithBase_DrawsTwoRays(t *testing.T) {
	svg := string(AngleWithBase(90, 10, false))
	require.Equal(t, 2, strings.Count(svg, "<line"))
}
