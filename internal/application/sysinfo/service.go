// Package sysinfo gathers the system facts shown by `overview` and `monitor`.
package sysinfo

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/ports"
)

// Service queries services and disk capacity concurrently.
type Service struct {
	Provider ports.SystemInfoProvider
	Logger   ports.Logger
}

// Overview runs both queries in parallel. A failing query does not cancel
// the other; both errors are returned joined alongside whatever succeeded.
func (s *Service) Overview(ctx context.Context, drive string) (domain.Overview, error) {
	if s.Provider == nil {
		return domain.Overview{}, errors.New("sysinfo.Service dependencies not satisfied")
	}
	var (
		overview             domain.Overview
		servicesErr, diskErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		overview.Services, servicesErr = s.Provider.GetWindowsServices(ctx)
		return nil
	})
	g.Go(func() error {
		overview.Disk, diskErr = s.Provider.GetDiskSpace(ctx, drive)
		return nil
	})
	_ = g.Wait()

	if s.Logger != nil {
		if servicesErr != nil {
			s.Logger.Warn("services query failed", map[string]interface{}{"error": servicesErr.Error()})
		}
		if diskErr != nil {
			s.Logger.Warn("disk query failed", map[string]interface{}{"drive": drive, "error": diskErr.Error()})
		}
	}
	return overview, errors.Join(servicesErr, diskErr)
}

// Disks queries several drives concurrently, stopping at the first failure.
func (s *Service) Disks(ctx context.Context, drives []string) ([]domain.DiskSpace, error) {
	if s.Provider == nil {
		return nil, errors.New("sysinfo.Service dependencies not satisfied")
	}
	results := make([]domain.DiskSpace, len(drives))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, drive := range drives {
		i, drive := i, drive
		g.Go(func() error {
			disk, err := s.Provider.GetDiskSpace(gctx, drive)
			if err != nil {
				return err
			}
			results[i] = disk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// StatusCounts tallies services by status, e.g. Running: 112.
func StatusCounts(services []domain.Service) map[string]int {
	counts := make(map[string]int)
	for _, svc := range services {
		status := svc.Status
		if status == "" {
			status = "Unknown"
		}
		counts[status]++
	}
	return counts
}
