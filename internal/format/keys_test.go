package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyAssembly(t *testing.T) {
	assert.Equal(t, "tid1234", ThreadKeyPrefix(1234))
	assert.Equal(t, "tid1234:.nPushNodeFailures", TreeMetaKey(1234, "nPushNodeFailures"))
	assert.Equal(t, "tid1234:main.parser.nBytesSelfAllocated",
		ScopeKey(1234, "main.parser", "nBytesSelfAllocated"))
}
