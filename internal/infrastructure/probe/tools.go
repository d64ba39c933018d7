// Package probe detects which interpreters and OS facts are present on the host.
package probe

import (
	"os/exec"
	"sync"
	"time"

	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/ports"
)

// DefaultTools are the interpreters the executor may use.
var DefaultTools = []string{"powershell.exe", "pwsh.exe", "cmd.exe", "wmic.exe"}

// ToolProbe implements ports.ToolProbe with a PATH lookup cached for a TTL.
type ToolProbe struct {
	names    []string
	ttl      time.Duration
	lookPath func(string) (string, error)
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedTool
}

type cachedTool struct {
	status    domain.ToolStatus
	expiresAt time.Time
}

// NewToolProbe reports on names (DefaultTools when empty). Extra names, such
// as a configured PowerShell path, can be probed through Available.
func NewToolProbe(names []string, ttl time.Duration) *ToolProbe {
	if len(names) == 0 {
		names = DefaultTools
	}
	if ttl <= 0 {
		ttl = domain.DefaultToolCacheDuration
	}
	return &ToolProbe{
		names:    dedupe(names),
		ttl:      ttl,
		lookPath: exec.LookPath,
		now:      time.Now,
		cache:    make(map[string]cachedTool),
	}
}

// Available implements ports.ToolProbe.
func (p *ToolProbe) Available(name string) bool {
	return p.status(name).Available
}

// Tools implements ports.ToolProbe.
func (p *ToolProbe) Tools() []domain.ToolStatus {
	statuses := make([]domain.ToolStatus, 0, len(p.names))
	for _, name := range p.names {
		statuses = append(statuses, p.status(name))
	}
	return statuses
}

// Refresh drops cached lookups.
func (p *ToolProbe) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.cache)
}

func (p *ToolProbe) status(name string) domain.ToolStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if cached, ok := p.cache[name]; ok && now.Before(cached.expiresAt) {
		return cached.status
	}
	status := domain.ToolStatus{Name: name}
	if path, err := p.lookPath(name); err == nil {
		status.Path = path
		status.Available = true
	}
	p.cache[name] = cachedTool{status: status, expiresAt: now.Add(p.ttl)}
	return status
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

var _ ports.ToolProbe = (*ToolProbe)(nil)
