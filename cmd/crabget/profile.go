package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// request describes one request. Profiles are YAML files holding the same
// fields; command line flags override them.
type request struct {
	Method       string            `yaml:"method"`
	URL          string            `yaml:"url"`
	Headers      map[string]string `yaml:"headers"`
	Query        []queryParam      `yaml:"query"`
	Body         string            `yaml:"body"`
	TimeoutMS    uint64            `yaml:"timeout_ms"`
	MaxRedirects *uint64           `yaml:"max_redirects"`
	Insecure     bool              `yaml:"insecure"`
	JQ           string            `yaml:"jq"`
}

type queryParam struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

func loadProfile(path string) (request, error) {
	var r request
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return r, nil
}
