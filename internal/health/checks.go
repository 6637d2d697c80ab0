package health

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Utilization thresholds for the default system checks
const (
	cpuThresholdPercent    = 90.0
	memoryThresholdPercent = 90.0
	diskThresholdPercent   = 95.0
)

// RegisterDefaults installs the standard system resource checks. Each check
// reports healthy when the underlying system facility is unavailable rather
// than failing the scraper for a broken probe.
func (c *Checker) RegisterDefaults() {
	c.Register("cpu_usage", checkCPUUsage, "Check if CPU usage is below 90%")
	c.Register("memory_usage", checkMemoryUsage, "Check if memory usage is below 90%")
	c.Register("disk_space", checkDiskSpace, "Check if disk space is available")
}

func checkCPUUsage() (bool, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return true, nil
	}
	return percents[0] < cpuThresholdPercent, nil
}

func checkMemoryUsage() (bool, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return true, nil
	}
	return vm.UsedPercent < memoryThresholdPercent, nil
}

func checkDiskSpace() (bool, error) {
	usage, err := disk.Usage("/")
	if err != nil {
		return true, nil
	}
	return usage.UsedPercent < diskThresholdPercent, nil
}
