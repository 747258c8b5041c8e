package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider reads the configuration from a YAML file. The file is parsed
// once, on the first call that needs it.
type YAMLProvider struct {
	path string
	cfg  *ConfigData
}

func NewYAMLProvider(path string) *YAMLProvider {
	return &YAMLProvider{path: path}
}

// LoadConfig parses the file, rejecting keys that do not belong to the
// configuration so misspelled settings fail loudly instead of being ignored
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	raw, err := os.ReadFile(y.path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", y.path, err)
	}

	var cfg ConfigData
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config file %s: %w", y.path, err)
	}

	c, err := loaded(&cfg)
	if err != nil {
		return nil, err
	}
	y.cfg = c
	return c, nil
}

func (y *YAMLProvider) current() (*ConfigData, error) {
	if y.cfg != nil {
		return y.cfg, nil
	}
	return y.LoadConfig()
}

func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	cfg, err := y.current()
	if err != nil {
		return nil, err
	}
	return &cfg.Storage, nil
}

func (y *YAMLProvider) GetSegmentationConfig() (*SegmentationData, error) {
	cfg, err := y.current()
	if err != nil {
		return nil, err
	}
	return &cfg.Segmentation, nil
}

// IsReadOnly reports true; edits go through the SQLite provider
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

func (y *YAMLProvider) Close() error {
	return nil
}
