package config

import (
	"fmt"
	"os"

	"github.com/fedestu/RPA-Challenge/scraper"
	"gopkg.in/yaml.v3"
)

// LoadSiteProfile loads a site selector profile from a YAML file. Fields the
// file leaves out keep the built-in Los Angeles Times values.
func LoadSiteProfile(path string) (*scraper.SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site profile: %w", err)
	}

	var site scraper.SiteConfig
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("failed to parse site profile: %w", err)
	}

	site.Merge(scraper.DefaultSiteConfig())
	return &site, nil
}
