package metrics

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSystemSamplerSample(t *testing.T) {
	c := NewCollector(testIdentity())
	s := NewSystemSampler(c, zerolog.Nop(), time.Second)

	// must not panic regardless of what the host exposes
	s.Sample()
}

func TestSystemSamplerStartStop(t *testing.T) {
	c := NewCollector(testIdentity())
	s := NewSystemSampler(c, zerolog.Nop(), 10*time.Millisecond)

	s.Start()
	time.Sleep(25 * time.Millisecond)

	s.Stop()
	s.Stop() // idempotent
}

func TestSystemSamplerStopWithoutStart(t *testing.T) {
	c := NewCollector(testIdentity())
	s := NewSystemSampler(c, zerolog.Nop(), time.Second)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a sampler that was never started")
	}

	// Start after Stop stays stopped
	s.Start()
	assert.Nil(t, s.stop)
}
