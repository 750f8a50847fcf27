package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoField(t *testing.T) {
	info := "# Memory\r\nused_memory:1048576\r\nused_memory_human:1.00M\r\n"

	raw, ok := infoField(info, "used_memory")
	assert.True(t, ok)
	assert.Equal(t, "1048576", raw)

	raw, ok = infoField(info, "used_memory_human")
	assert.True(t, ok)
	assert.Equal(t, "1.00M", raw)

	_, ok = infoField(info, "maxmemory")
	assert.False(t, ok)
}

func TestRedisStatsUsedMemoryMB(t *testing.T) {
	assert.Equal(t, "1.50 MB", RedisStats{UsedMemoryBytes: 1572864}.UsedMemoryMB())
	assert.Equal(t, "0.00 MB", RedisStats{}.UsedMemoryMB())
}
