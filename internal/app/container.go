package app

import (
	"context"
	"time"

	"github.com/doeshing/wintool/internal/application/doctor"
	"github.com/doeshing/wintool/internal/application/sysinfo"
	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/infrastructure/config"
	"github.com/doeshing/wintool/internal/infrastructure/failures"
	"github.com/doeshing/wintool/internal/infrastructure/history"
	"github.com/doeshing/wintool/internal/infrastructure/metrics"
	"github.com/doeshing/wintool/internal/infrastructure/probe"
	"github.com/doeshing/wintool/internal/infrastructure/registry"
	"github.com/doeshing/wintool/internal/infrastructure/winexec"
	"github.com/doeshing/wintool/internal/pkg/logger"
	"github.com/doeshing/wintool/internal/ports"
)

// Options controls how the container is assembled.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	Executor       *winexec.Executor
	Classifier     *failures.Classifier
	ToolProbe      *probe.ToolProbe
	HostProbe      *probe.HostProbe
	Registry       ports.RegistryReader
	Metrics        *metrics.Recorder
	HistoryStore   ports.HistoryRepository
	DoctorService  *doctor.Service
	SysInfo        *sysinfo.Service
	Logger         ports.Logger

	journal *history.SQLiteStore
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(opts.Verbose)

	classifier, err := failures.NewClassifier(cfg.Classifier.RulesFile, cfg.KnownAbsentServices())
	if err != nil {
		log.Warn("falling back to built-in expected-failure rules", map[string]interface{}{
			"rules_file": cfg.Classifier.RulesFile,
			"error":      err.Error(),
		})
		classifier = failures.Default()
	}

	tools := probe.NewToolProbe(append(append([]string(nil), probe.DefaultTools...),
		cfg.PowerShellBinary(), cfg.CmdBinary()), domain.DefaultToolCacheDuration)
	reader := registry.NewReader()
	recorder := metrics.NewRecorder()

	c := &Container{
		Config:         cfg,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Classifier:     classifier,
		ToolProbe:      tools,
		HostProbe:      probe.NewHostProbe(reader),
		Registry:       reader,
		Metrics:        recorder,
		Logger:         log,
	}

	execOpts := winexec.Options{
		Classifier:        classifier,
		Probe:             tools,
		Metrics:           recorder,
		Logger:            log,
		Disk:              winexec.GopsutilDiskUsage,
		PowerShellPath:    cfg.PowerShellBinary(),
		CmdPath:           cfg.CmdBinary(),
		DefaultTimeout:    cfg.CommandTimeout(),
		MaxOutputBytes:    cfg.OutputLimit(),
		CacheTTL:          cfg.CacheTTL(),
		DisableCache:      !cfg.Cache.Enabled,
		UseEncodedCommand: cfg.Executor.UseEncodedCommand,
	}

	if cfg.History.Enabled {
		c.journal = history.NewSQLiteStore(cfg.History.Path)
		c.HistoryStore = c.journal
		execOpts.History = c.journal
		if c.journal.Degraded() {
			log.Warn("history database unavailable, journaling to JSONL", map[string]interface{}{
				"path": c.journal.Path(),
			})
		}
		if retention := cfg.HistoryRetention(); retention > 0 {
			if _, err := c.journal.Prune(time.Now().Add(-retention)); err != nil {
				log.Warn("history prune failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	c.Executor = winexec.New(execOpts)
	c.SysInfo = &sysinfo.Service{Provider: c.Executor, Logger: log}
	c.DoctorService = &doctor.Service{
		ConfigProvider: cfgLoader,
		Tools:          tools,
		Host:           c.HostProbe,
		History:        c.HistoryStore,
		Classifier:     classifier,
	}

	return c, nil
}

// Close cancels in-flight commands, drops the result cache and closes the journal.
func (c *Container) Close() error {
	if c.Executor != nil {
		c.Executor.Cleanup()
	}
	if c.journal != nil {
		return c.journal.Close()
	}
	return nil
}
