package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/wintool/internal/app"
	configapp "github.com/doeshing/wintool/internal/application/config"
	"github.com/doeshing/wintool/internal/domain"
	configinfra "github.com/doeshing/wintool/internal/infrastructure/config"
)

// GetConfigLoader extracts the config loader from container with error handling
func GetConfigLoader(container *app.Container) (*configinfra.FileLoader, error) {
	if container.ConfigLoader == nil {
		return nil, errors.New("config loader unavailable")
	}
	return container.ConfigLoader, nil
}

// SaveConfigWithValidation validates and saves configuration with automatic backup
func SaveConfigWithValidation(container *app.Container, cfg domain.Config) error {
	loader, err := GetConfigLoader(container)
	if err != nil {
		return err
	}

	if err := configapp.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := createBackupIfExists(loader); err != nil {
		return err
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	return nil
}

// createBackupIfExists creates a backup of the config file if it exists
func createBackupIfExists(loader *configinfra.FileLoader) error {
	if _, err := os.Stat(loader.Path()); err == nil {
		if _, err := loader.Backup(); err != nil {
			return fmt.Errorf("failed to create configuration backup: %w", err)
		}
	}
	return nil
}

// ConfigDocument is the config file as a YAML node tree. Editing the tree
// instead of domain.Config keeps the user's comments and key order.
type ConfigDocument struct {
	root *yaml.Node
}

// ParseConfigDocument parses raw YAML; empty input yields an empty mapping.
func ParseConfigDocument(raw []byte) (*ConfigDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("config root must be a mapping")
	}
	return &ConfigDocument{root: &root}, nil
}

// ReadConfigDocument loads the document at path.
func ReadConfigDocument(path string) (*ConfigDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseConfigDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Lookup returns the node at keys, e.g. ["executor", "default_timeout"].
func (d *ConfigDocument) Lookup(keys []string) (*yaml.Node, bool) {
	node := d.root.Content[0]
	for _, key := range keys {
		if node.Kind != yaml.MappingNode {
			return nil, false
		}
		_, value := mappingEntry(node, key)
		if value == nil {
			return nil, false
		}
		node = value
	}
	return node, true
}

// Set replaces the value at keys with raw parsed as YAML, creating missing
// parent mappings. Comments attached to the old value are carried over.
func (d *ConfigDocument) Set(keys []string, raw string) error {
	if len(keys) == 0 {
		return errors.New("empty key")
	}
	value := ParseYAMLValue(raw)

	node := d.root.Content[0]
	for i, key := range keys {
		if node.Kind != yaml.MappingNode {
			return fmt.Errorf("%s is not a section", strings.Join(keys[:i], "."))
		}
		_, current := mappingEntry(node, key)
		last := i == len(keys)-1
		switch {
		case current == nil && last:
			node.Content = append(node.Content, scalarKey(key), value)
		case current == nil:
			child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, scalarKey(key), child)
			node = child
		case last:
			value.HeadComment = current.HeadComment
			value.LineComment = current.LineComment
			value.FootComment = current.FootComment
			*current = *value
		default:
			node = current
		}
	}
	return nil
}

// Decode converts the document to a domain.Config.
func (d *ConfigDocument) Decode() (domain.Config, error) {
	var cfg domain.Config
	if err := d.root.Decode(&cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Encode renders the document with two-space indentation.
func (d *ConfigDocument) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseYAMLValue parses a command-line value as YAML, so "[Fax, WSearch]"
// becomes a list and "45s" a string. Unparseable input is kept literally.
func ParseYAMLValue(input string) *yaml.Node {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(input), &doc); err != nil || len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: input}
	}
	return doc.Content[0]
}

// SplitKeyPath turns "executor.default_timeout" into its path segments.
func SplitKeyPath(keyPath string) []string {
	var keys []string
	for _, part := range strings.Split(keyPath, ".") {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, part)
		}
	}
	return keys
}

func mappingEntry(mapping *yaml.Node, key string) (*yaml.Node, *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i], mapping.Content[i+1]
		}
	}
	return nil, nil
}

func scalarKey(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}
