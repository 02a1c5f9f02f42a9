package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSweepInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 15*time.Minute, sweepInterval(time.Hour))
	assert.Equal(t, time.Second, sweepInterval(2*time.Second))
}
