package seed

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

type Category struct {
	Name  string `yaml:"name"`
	Slug  string `yaml:"slug"`
	Order int    `yaml:"order"`
}

type Affirmation struct {
	Category string `yaml:"category"`
	Text     string `yaml:"text"`
	Order    int    `yaml:"order"`
}

type Voice struct {
	ExternalVoiceID string `yaml:"external_voice_id"`
	Slug            string `yaml:"slug"`
	Name            string `yaml:"name"`
	DisplayName     string `yaml:"display_name"`
	Gender          string `yaml:"gender"`
	IsDefault       bool   `yaml:"is_default"`
	Order           int    `yaml:"order"`
}

func Categories() ([]Category, error) {
	var out []Category
	if err := load("data/categories.yaml", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Affirmations() ([]Affirmation, error) {
	var out []Affirmation
	if err := load("data/affirmations.yaml", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Voices() ([]Voice, error) {
	var out []Voice
	if err := load("data/voices.yaml", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func load(name string, out any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read seed file %q: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse seed file %q: %w", name, err)
	}
	return nil
}
