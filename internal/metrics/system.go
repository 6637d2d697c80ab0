package metrics

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// SystemSampler periodically updates the system resource gauges on its own
// goroutine. Sampling failures are logged and skipped; the next tick tries
// again.
type SystemSampler struct {
	collector *Collector
	logger    zerolog.Logger
	interval  time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

// NewSystemSampler creates a sampler updating the CPU and memory gauges
// every interval.
func NewSystemSampler(collector *Collector, logger zerolog.Logger, interval time.Duration) *SystemSampler {
	return &SystemSampler{
		collector: collector,
		logger:    logger,
		interval:  interval,
	}
}

// Start launches the background sampling loop. Calling Start on a running
// or stopped sampler is a no-op.
func (s *SystemSampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil || s.stopped {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(s.stop, s.done)
}

func (s *SystemSampler) run(stop, done chan struct{}) {
	defer close(done)

	s.Sample()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Sample()
		}
	}
}

// Sample reads the current system utilization and updates the gauges once.
func (s *SystemSampler) Sample() {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		s.logger.Debug().Err(err).Msg("cpu sample unavailable")
	} else {
		s.collector.SetSystemCPU(percents[0])
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		s.logger.Debug().Err(err).Msg("memory sample unavailable")
		return
	}
	s.collector.SetSystemMemory(float64(vm.Used))
}

// Stop halts the sampling loop and waits for it to exit. Idempotent and
// safe when the sampler was never started.
func (s *SystemSampler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	stop, done := s.stop, s.done
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
