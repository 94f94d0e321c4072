package osinfo

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPID(t *testing.T) {
	assert.Equal(t, os.Getpid(), PID())
}

func TestGettid(t *testing.T) {
	assert.Greater(t, Gettid(), 0)
}

func TestThreadName(t *testing.T) {
	assert.NotEmpty(t, ThreadName())
}

func TestParseStatusKB(t *testing.T) {
	assert.Equal(t, uint64(123456*1024), parseStatusKB("VmSize:\t  123456 kB"))
	assert.Equal(t, uint64(0), parseStatusKB("VmSize:"))
	assert.Equal(t, uint64(0), parseStatusKB("VmSize: junk kB"))
}
