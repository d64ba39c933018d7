package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/doeshing/wintool/internal/domain"
)

var driveRe = regexp.MustCompile(`^[A-Za-z]:$`)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validateExecutor(cfg.Executor); err != nil {
		return err
	}
	if err := validateCache(cfg.Cache); err != nil {
		return err
	}
	if err := validateClassifier(cfg.Classifier); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	return validateMetrics(cfg.Metrics)
}

func validateExecutor(exec domain.ExecutorSettings) error {
	if exec.DefaultTimeout != "" {
		if err := positiveDuration("executor.default_timeout", exec.DefaultTimeout); err != nil {
			return err
		}
	}
	if exec.MaxOutputBytes < 0 {
		return fmt.Errorf("executor.max_output_bytes must be >= 0")
	}
	if exec.Drive != "" && !driveRe.MatchString(exec.Drive) {
		return fmt.Errorf("executor.drive must look like C:, got %s", exec.Drive)
	}
	return nil
}

func validateCache(cache domain.CacheSettings) error {
	if cache.TTL == "" {
		return nil
	}
	return positiveDuration("cache.ttl", cache.TTL)
}

func validateClassifier(classifier domain.ClassifierSettings) error {
	for _, name := range classifier.KnownAbsentServices {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " \t\"") {
			return fmt.Errorf("classifier.known_absent_services contains invalid service name %q", name)
		}
	}
	return nil
}

func validateHistory(history domain.HistorySettings) error {
	if history.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must be >= 0")
	}
	return nil
}

func validateMetrics(metrics domain.MetricsSettings) error {
	if metrics.Listen == "" {
		return nil
	}
	if !strings.Contains(metrics.Listen, ":") {
		return fmt.Errorf("metrics.listen must be host:port, got %s", metrics.Listen)
	}
	return nil
}

func positiveDuration(field, raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s invalid: %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}
