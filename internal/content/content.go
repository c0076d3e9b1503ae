// Package content holds the portfolio's read-only display data: bio,
// projects, experience, tennis achievements and footer links.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed portfolio.yaml
var defaultYAML []byte

// ErrInvalid is returned when loaded content is missing required data.
var ErrInvalid = errors.New("invalid portfolio content")

type Image struct {
	URL string `yaml:"url"`
	Alt string `yaml:"alt"`
}

type Resume struct {
	Label    string `yaml:"label"`
	Filename string `yaml:"filename"`
}

type Project struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
}

type Experience struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type Footer struct {
	Copyright string `yaml:"copyright"`
	Links     []Link `yaml:"links"`
}

// Portfolio is everything the page shows besides the two interactive
// controls. It is never modified after Load.
type Portfolio struct {
	Name       string       `yaml:"name"`
	Tagline    string       `yaml:"tagline"`
	Portrait   Image        `yaml:"portrait"`
	Resume     Resume       `yaml:"resume"`
	About      []string     `yaml:"about"`
	Projects   []Project    `yaml:"projects"`
	Experience []Experience `yaml:"experience"`
	Tennis     []string     `yaml:"tennis"`
	Footer     Footer       `yaml:"footer"`
}

// Load reads content from path, or the embedded defaults when path is empty.
func Load(path string) (*Portfolio, error) {
	data := defaultYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read content %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes and validates YAML content.
func Parse(data []byte) (*Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	for i, proj := range p.Projects {
		if proj.Title == "" {
			return nil, fmt.Errorf("%w: projects[%d] has no title", ErrInvalid, i)
		}
	}
	if p.Resume.Label == "" {
		p.Resume.Label = "Download Resume"
	}
	return &p, nil
}
