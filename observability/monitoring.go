// Package observability aggregates runtime counters for logging and
// the debug endpoint. Counters are side-channel bookkeeping only and
// never influence dispatch decisions.
package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/shirou/gopsutil/process"
)

// Stats is the point-in-time snapshot served by the debug endpoint.
type Stats struct {
	Events           uint64  `json:"events"`
	Commands         uint64  `json:"commands"`
	EditsModerated   uint64  `json:"edits_moderated"`
	MessagesScreened uint64  `json:"messages_screened"`
	PresenceClears   uint64  `json:"presence_clears"`
	Broadcasts       uint64  `json:"broadcasts"`
	DeliveryFailures uint64  `json:"delivery_failures"`
	AllocMemMb       uint64  `json:"alloc_mem_mb"`
	NumGC            uint32  `json:"num_gc"`
	CPUPercent       float64 `json:"cpu_percent"`
	RSSMb            uint64  `json:"rss_mb"`
}

// Monitor holds the atomic counters. Safe for concurrent use from
// every dispatch goroutine.
type Monitor struct {
	log *slog.Logger

	events           atomic.Uint64
	commands         atomic.Uint64
	editsModerated   atomic.Uint64
	messagesScreened atomic.Uint64
	presenceClears   atomic.Uint64
	broadcasts       atomic.Uint64
	deliveryFailures atomic.Uint64

	self *process.Process
}

func NewMonitor(log *slog.Logger) *Monitor {
	// Self-process handle for CPU/RSS; nil when the platform refuses
	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Self process stats unavailable", "error", err)
		self = nil
	}
	return &Monitor{log: log, self: self}
}

func (m *Monitor) IncrEvents()           { m.events.Add(1) }
func (m *Monitor) IncrCommands()         { m.commands.Add(1) }
func (m *Monitor) IncrEditsModerated()   { m.editsModerated.Add(1) }
func (m *Monitor) IncrMessagesScreened() { m.messagesScreened.Add(1) }
func (m *Monitor) IncrPresenceClears()   { m.presenceClears.Add(1) }
func (m *Monitor) IncrBroadcasts()       { m.broadcasts.Add(1) }

func (m *Monitor) AddDeliveryFailures(n int) {
	if n > 0 {
		m.deliveryFailures.Add(uint64(n))
	}
}

func (m *Monitor) Snapshot() Stats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := Stats{
		Events:           m.events.Load(),
		Commands:         m.commands.Load(),
		EditsModerated:   m.editsModerated.Load(),
		MessagesScreened: m.messagesScreened.Load(),
		PresenceClears:   m.presenceClears.Load(),
		Broadcasts:       m.broadcasts.Load(),
		DeliveryFailures: m.deliveryFailures.Load(),
		AllocMemMb:       memStats.Alloc / 1024 / 1024,
		NumGC:            memStats.NumGC,
	}
	if m.self != nil {
		if cpu, err := m.self.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
		if mem, err := m.self.MemoryInfo(); err == nil {
			stats.RSSMb = mem.RSS / 1024 / 1024
		}
	}
	return stats
}
