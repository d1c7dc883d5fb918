package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fedestu/RPA-Challenge/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, BackendChrome, cfg.Browser.Backend)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1, cfg.Input.NumMonths)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, "output/images", cfg.Output.ImagesDir)
	assert.Equal(t, discovery.DefaultMaxIterations, cfg.Engine.MaxIterations)
	assert.Equal(t, discovery.DefaultMaxFilterAttempts, cfg.Engine.MaxFilterAttempts)
	assert.Equal(t, 30*time.Second, cfg.Engine.FilterWaitTimeout)
	assert.Equal(t, 2*time.Second, cfg.Engine.FilterSettleDelay)
	assert.Equal(t, 1, cfg.Engine.DownloadWorkers)
	assert.Zero(t, cfg.Engine.DownloadTimeout, "image downloads are unbounded by default")
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Error(t, cfg.ValidateInput(), "search phrase has no default")
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsreport.yaml")
	content := `input:
  search_phrase: "wildfire"
  category_name: "Story"
  num_months: 3
browser:
  backend: static
engine:
  filter_settle_delay: 500ms
  download_workers: 4
  download_timeout: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := NewViper()
	require.NoError(t, ReadFile(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "wildfire", cfg.Input.SearchPhrase)
	assert.Equal(t, "Story", cfg.Input.CategoryName)
	assert.Equal(t, 3, cfg.Input.NumMonths)
	assert.Equal(t, BackendStatic, cfg.Browser.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.FilterSettleDelay)
	assert.Equal(t, 4, cfg.Engine.DownloadWorkers)
	assert.Equal(t, 45*time.Second, cfg.Engine.DownloadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Engine.FilterWaitTimeout, "unset keys keep defaults")
	assert.NoError(t, cfg.ValidateInput())
}

func TestReadFile_Missing(t *testing.T) {
	v := NewViper()
	v.AddConfigPath(t.TempDir())

	assert.Error(t, ReadFile(v, filepath.Join(t.TempDir(), "absent.yaml")), "explicit path must exist")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsreport.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input:\n  search_phrase: from-file\n"), 0o600))
	t.Setenv("NEWSREPORT_INPUT_SEARCH_PHRASE", "from-env")
	t.Setenv("NEWSREPORT_ENGINE_MAX_ITERATIONS", "7")

	v := NewViper()
	require.NoError(t, ReadFile(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Input.SearchPhrase)
	assert.Equal(t, 7, cfg.Engine.MaxIterations)
}

func TestLoad_WorkItem(t *testing.T) {
	dir := t.TempDir()
	item := filepath.Join(dir, "work-item.json")
	require.NoError(t, os.WriteFile(item, []byte(`{"payload": {"search_phrase": "tariffs", "num_months": "2"}}`), 0o600))

	configPath := filepath.Join(dir, "newsreport.yaml")
	content := "input:\n  search_phrase: ignored\n  category_name: Story\n  work_item: " + item + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	v := NewViper()
	require.NoError(t, ReadFile(v, configPath))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "tariffs", cfg.Input.SearchPhrase)
	assert.Equal(t, 2, cfg.Input.NumMonths)
	assert.Equal(t, "Story", cfg.Input.CategoryName, "values the work item leaves out are kept")
}

func TestLoad_WorkItemMissing(t *testing.T) {
	v := NewViper()
	v.Set("input.work_item", filepath.Join(t.TempDir(), "none.json"))

	_, err := Load(v)

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown backend", func(c *Config) { c.Browser.Backend = "firefox" }, "browser.backend"},
		{"zero iterations", func(c *Config) { c.Engine.MaxIterations = 0 }, "engine.max_iterations"},
		{"zero attempts", func(c *Config) { c.Engine.MaxFilterAttempts = 0 }, "engine.max_filter_attempts"},
		{"zero wait", func(c *Config) { c.Engine.FilterWaitTimeout = 0 }, "engine.filter_wait_timeout"},
		{"negative settle", func(c *Config) { c.Engine.FilterSettleDelay = -time.Second }, "engine.filter_settle_delay"},
		{"zero workers", func(c *Config) { c.Engine.DownloadWorkers = 0 }, "engine.download_workers"},
		{"negative download timeout", func(c *Config) { c.Engine.DownloadTimeout = -time.Second }, "engine.download_timeout"},
		{"bad timezone", func(c *Config) { c.Engine.Timezone = "Mars/Olympus" }, "engine.timezone"},
		{"no output dir", func(c *Config) { c.Output.Dir = "" }, "output.dir"},
		{"no images dir", func(c *Config) { c.Output.ImagesDir = "" }, "output.images_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(NewViper())
			require.NoError(t, err)

			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg, err := Load(NewViper())
	require.NoError(t, err)
	cfg.Engine.Timezone = "UTC"
	cfg.Engine.MaxIterations = 5

	opts, err := cfg.EngineOptions()

	require.NoError(t, err)
	assert.Equal(t, 5, opts.MaxIterations)
	assert.Equal(t, discovery.DefaultMaxFilterAttempts, opts.MaxFilterAttempts)
	assert.Equal(t, time.UTC, opts.Location)
}

func TestLoadSite(t *testing.T) {
	cfg, err := Load(NewViper())
	require.NoError(t, err)

	site, err := cfg.LoadSite()
	require.NoError(t, err)
	assert.Equal(t, "https://www.latimes.com", site.BaseURL)

	cfg.Site.BaseURL = "http://127.0.0.1:9999"
	site, err = cfg.LoadSite()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999", site.BaseURL)

	cfg.Site.BaseURL = "ftp://example.com"
	_, err = cfg.LoadSite()
	assert.Error(t, err)
}
