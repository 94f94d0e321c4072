package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDotEscapeLabel(t *testing.T) {
	assert.Equal(t, `plain`, DotEscapeLabel("plain"))
	assert.Equal(t, `say \"hi\"`, DotEscapeLabel(`say "hi"`))
	assert.Equal(t, `a\nb`, DotEscapeLabel("a\nb"))
}

func TestDotNodeID(t *testing.T) {
	assert.Equal(t, "n1234_main", DotNodeID("1234", "main"))
	assert.Equal(t, "n1234_main_sub_scope", DotNodeID("1234", "main", "sub scope"))
	assert.Equal(t, "n1234_a_b", DotNodeID("1234", "a:b"))
}
