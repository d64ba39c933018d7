// Package failures decides whether a command failure is routine for the host.
//
// Each rule pairs a command category with the messages that are benign for
// that category only. "Access is denied" from `sc query` is a permission
// boundary worth ignoring; the same text from `dir` is a real problem.
package failures

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/wintool/assets"
	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/pkg/filesystem"
	"github.com/doeshing/wintool/internal/ports"
)

// Rule describes one command category.
type Rule struct {
	Category           string   `yaml:"category"`
	CommandPattern     string   `yaml:"command_pattern"`
	ServiceNamePattern string   `yaml:"service_name_pattern,omitempty"`
	MessagePatterns    []string `yaml:"message_patterns"`
}

// RulesFile is the YAML schema root.
type RulesFile struct {
	Rules struct {
		ExpectedFailures    []Rule   `yaml:"expected_failures"`
		KnownAbsentServices []string `yaml:"known_absent_services,omitempty"`
	} `yaml:"rules"`
}

type compiledRule struct {
	rule     Rule
	command  *regexp.Regexp
	service  *regexp.Regexp
	messages []*regexp.Regexp
}

// Classifier implements ports.FailureClassifier.
type Classifier struct {
	rules  []compiledRule
	absent map[string]bool
	source string
}

// NewClassifier loads rules from path, or the built-in rules when path is
// empty. knownAbsent overrides the service list; nil keeps the file's list or
// the built-in one.
func NewClassifier(path string, knownAbsent []string) (*Classifier, error) {
	rules, source, err := loadRules(path)
	if err != nil {
		return nil, err
	}
	return compile(rules, source, knownAbsent)
}

// Default returns a classifier with the built-in rules.
func Default() *Classifier {
	c, err := NewClassifier("", nil)
	if err != nil {
		panic(fmt.Sprintf("built-in expected-failure rules: %v", err))
	}
	return c
}

// Classify implements ports.FailureClassifier.
func (c *Classifier) Classify(command, message string) domain.FailureClassification {
	var result domain.FailureClassification
	if c == nil {
		return result
	}
	command = strings.TrimSpace(command)
	for _, r := range c.rules {
		if !r.command.MatchString(command) {
			continue
		}
		if result.Category == "" {
			result.Category = r.rule.Category
		}
		if r.service != nil {
			if m := r.service.FindStringSubmatch(command); len(m) > 1 && c.absent[strings.ToLower(m[1])] {
				return domain.FailureClassification{
					Expected: true,
					Category: r.rule.Category,
					Reason:   fmt.Sprintf("service %s is commonly absent", m[1]),
				}
			}
		}
		for _, msg := range r.messages {
			if msg.MatchString(message) {
				return domain.FailureClassification{
					Expected: true,
					Category: r.rule.Category,
					Reason:   "message matches " + strings.TrimPrefix(msg.String(), "(?i)"),
				}
			}
		}
	}
	if result.Category != "" {
		result.Reason = "no benign message for category " + result.Category
	}
	return result
}

// Rules returns the loaded rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	rules := make([]Rule, 0, len(c.rules))
	for _, r := range c.rules {
		rules = append(rules, r.rule)
	}
	return rules
}

// Source names where the rules came from: a path, or "built-in".
func (c *Classifier) Source() string {
	return c.source
}

func loadRules(path string) (RulesFile, string, error) {
	if strings.TrimSpace(path) == "" {
		rules, err := parseRules(assets.DefaultExpectedFailuresYAML)
		return rules, "built-in", err
	}
	path = expandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			rules, err := parseRules(assets.DefaultExpectedFailuresYAML)
			return rules, "built-in", err
		}
		return RulesFile{}, "", err
	}
	rules, err := parseRules(data)
	if err != nil {
		return RulesFile{}, "", fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rules.Rules.ExpectedFailures) == 0 {
		defaults, err := parseRules(assets.DefaultExpectedFailuresYAML)
		if err != nil {
			return RulesFile{}, "", err
		}
		rules.Rules.ExpectedFailures = defaults.Rules.ExpectedFailures
	}
	return rules, path, nil
}

func parseRules(data []byte) (RulesFile, error) {
	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RulesFile{}, err
	}
	return rules, nil
}

func compile(rules RulesFile, source string, knownAbsent []string) (*Classifier, error) {
	c := &Classifier{absent: make(map[string]bool), source: source}
	for _, rule := range rules.Rules.ExpectedFailures {
		if rule.Category == "" {
			return nil, errors.New("expected-failure rule without category")
		}
		compiled := compiledRule{rule: rule}
		var err error
		if compiled.command, err = compilePattern(rule.CommandPattern); err != nil {
			return nil, fmt.Errorf("rule %s: command_pattern: %w", rule.Category, err)
		}
		if rule.ServiceNamePattern != "" {
			if compiled.service, err = compilePattern(rule.ServiceNamePattern); err != nil {
				return nil, fmt.Errorf("rule %s: service_name_pattern: %w", rule.Category, err)
			}
		}
		for _, pattern := range rule.MessagePatterns {
			re, err := compilePattern(pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %s: message pattern %q: %w", rule.Category, pattern, err)
			}
			compiled.messages = append(compiled.messages, re)
		}
		c.rules = append(c.rules, compiled)
	}

	absent := knownAbsent
	if absent == nil {
		absent = rules.Rules.KnownAbsentServices
	}
	if absent == nil {
		absent = domain.DefaultKnownAbsentServices
	}
	for _, name := range absent {
		c.absent[strings.ToLower(strings.TrimSpace(name))] = true
	}
	return c, nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errors.New("empty pattern")
	}
	return regexp.Compile("(?i)" + pattern)
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.FailureClassifier = (*Classifier)(nil)
