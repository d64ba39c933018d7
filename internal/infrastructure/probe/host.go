package probe

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/ports"
)

// CurrentVersionKey holds the Windows build number.
const CurrentVersionKey = `HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion`

var buildRe = regexp.MustCompile(`(?i)build\s+(\d+)|^\d+\.\d+\.(\d+)`)

// HostProbe implements ports.HostProbe on gopsutil, asking the registry for
// the build number when a reader is available.
type HostProbe struct {
	registry ports.RegistryReader
	info     func(ctx context.Context) (*host.InfoStat, error)
}

// NewHostProbe builds a probe; registry may be nil.
func NewHostProbe(registry ports.RegistryReader) *HostProbe {
	return &HostProbe{registry: registry, info: host.InfoWithContext}
}

// Host implements ports.HostProbe.
func (p *HostProbe) Host(ctx context.Context) (domain.HostFacts, error) {
	info, err := p.info(ctx)
	if err != nil {
		return domain.HostFacts{}, err
	}
	facts := domain.HostFacts{
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
	}
	if p.registry != nil {
		if raw, err := p.registry.ReadString(CurrentVersionKey, "CurrentBuild"); err == nil {
			if build, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
				facts.Build = build
				return facts, nil
			}
		}
	}
	facts.Build = ParseBuild(info.PlatformVersion)
	if facts.Build == 0 {
		facts.Build = ParseBuild(info.KernelVersion)
	}
	return facts, nil
}

// ParseBuild extracts the build number from strings such as
// "10.0.26100 Build 26100" or "10.0.22631.4317". Zero means unknown.
func ParseBuild(version string) int {
	m := buildRe.FindStringSubmatch(strings.TrimSpace(version))
	if m == nil {
		return 0
	}
	for _, group := range m[1:] {
		if group == "" {
			continue
		}
		if n, err := strconv.Atoi(group); err == nil {
			return n
		}
	}
	return 0
}

var _ ports.HostProbe = (*HostProbe)(nil)
