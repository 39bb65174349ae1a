package httpapi

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/budget"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
)

type StatusResponse struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	Arch          string  `json:"arch"`
	Uptime        string  `json:"uptime"`
	Goroutines    int     `json:"goroutines"`
	CPUUsage      float64 `json:"cpu_usage_percent"`
	MemUsage      float64 `json:"mem_usage_percent"`
	ProcessRSS    uint64  `json:"process_rss_bytes"`
	BaseID        string  `json:"base_id"`
	Sessions      int     `json:"sessions"`
	SessionTTL    string  `json:"session_ttl"`
	PendingAction int     `json:"pending_actions"`
	Budget        *Usage  `json:"budget,omitempty"`
}

type Usage struct {
	Used   int                     `json:"used_tokens"`
	Limit  int                     `json:"limit_tokens"`
	Today  *budget.Summary         `json:"today,omitempty"`
	Models []budget.ModelBreakdown `json:"models,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	hostname, _ := os.Hostname()
	sessions := s.agent.Sessions()
	stats := sessions.Stats()

	status := StatusResponse{
		Hostname:      hostname,
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		Uptime:        time.Since(s.started).Round(time.Second).String(),
		Goroutines:    runtime.NumGoroutine(),
		BaseID:        s.store.BaseID(),
		Sessions:      stats.Sessions,
		SessionTTL:    sessions.TTL().String(),
		PendingAction: stats.Pending,
	}

	// interval 0 compares against the previous call instead of blocking
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		status.CPUUsage = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status.MemUsage = vm.UsedPercent
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			status.ProcessRSS = info.RSS
		}
	}

	if s.budget != nil {
		used, limit := s.budget.Usage()
		status.Budget = &Usage{Used: used, Limit: limit}

		if store := s.budget.Store(); store != nil {
			if today, err := store.Today(); err == nil {
				status.Budget.Today = today
			} else {
				logger.Warn("usage summary failed", "error", err)
			}
			if models, err := store.TodayByModel(); err == nil {
				status.Budget.Models = models
			}
		}
	}

	s.metrics.SetState(stats.Sessions, stats.Pending)
	respondJSON(w, http.StatusOK, status)
}
