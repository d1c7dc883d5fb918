package scraper

import (
	"errors"
	"strings"
)

// SiteConfig defines how to drive the search results interface of one news
// site. Every selector is a CSS selector evaluated by the browser backend.
type SiteConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	// SearchPath is appended to BaseURL; the query string is built from the
	// search phrase and SortParam.
	SearchPath string `json:"search_path" yaml:"search_path"`
	// SortParam requests newest-first ordering from the host. It is
	// required: collection stops at the first article older than the window.
	SortParam     string        `json:"sort_param" yaml:"sort_param"`
	NoResults     string        `json:"no_results_selector" yaml:"no_results_selector"`
	FilterConfig  FilterConfig  `json:"filter" yaml:"filter"`
	ListConfig    ListConfig    `json:"list" yaml:"list"`
	ArticleConfig ArticleConfig `json:"article" yaml:"article"`
}

// FilterConfig locates the category filter controls.
type FilterConfig struct {
	SectionSelector string `json:"section_selector" yaml:"section_selector"`
	LabelSelector   string `json:"label_selector" yaml:"label_selector"`
	// SectionLabel is the visible label of the section holding the category
	// checkboxes.
	SectionLabel     string `json:"section_label" yaml:"section_label"`
	OptionSelector   string `json:"option_selector" yaml:"option_selector"`
	CheckboxSelector string `json:"checkbox_selector" yaml:"checkbox_selector"`
	AppliedSelector  string `json:"applied_selector" yaml:"applied_selector"`
}

// ListConfig defines how to find articles and the next page on a results
// page.
type ListConfig struct {
	ArticleSelector    string `json:"article_selector" yaml:"article_selector"`
	PaginationSelector string `json:"pagination_selector" yaml:"pagination_selector"`
}

// ArticleConfig defines how to read fields out of one article element.
type ArticleConfig struct {
	TimestampSelector   string `json:"timestamp_selector" yaml:"timestamp_selector"`
	TimestampAttribute  string `json:"timestamp_attribute" yaml:"timestamp_attribute"`
	TitleSelector       string `json:"title_selector" yaml:"title_selector"`
	DescriptionSelector string `json:"description_selector" yaml:"description_selector"`
	ImageSelector       string `json:"image_selector" yaml:"image_selector"`
	ImageAttribute      string `json:"image_attribute" yaml:"image_attribute"`
}

// DefaultSiteConfig returns the selectors of the Los Angeles Times search
// page.
func DefaultSiteConfig() *SiteConfig {
	return &SiteConfig{
		BaseURL:    "https://www.latimes.com",
		SearchPath: "/search",
		SortParam:  "s=1",
		NoResults:  ".search-results-module-no-results",
		FilterConfig: FilterConfig{
			SectionSelector:  "div.search-filter",
			LabelSelector:    "p",
			SectionLabel:     "Type",
			OptionSelector:   "ps-toggler ul label.checkbox-input-label",
			CheckboxSelector: "input[type='checkbox']",
			AppliedSelector:  ".search-results-module-filters-selected[data-showing='true']",
		},
		ListConfig: ListConfig{
			ArticleSelector:    "ps-promo[data-content-type='article']",
			PaginationSelector: "div.search-results-module-next-page a",
		},
		ArticleConfig: ArticleConfig{
			TimestampSelector:   "p.promo-timestamp",
			TimestampAttribute:  "data-timestamp",
			TitleSelector:       "h3.promo-title a",
			DescriptionSelector: "p.promo-description",
			ImageSelector:       "img",
			ImageAttribute:      "src",
		},
	}
}

// Merge fills every empty field of c from defaults.
func (c *SiteConfig) Merge(defaults *SiteConfig) {
	setIfEmpty(&c.BaseURL, defaults.BaseURL)
	setIfEmpty(&c.SearchPath, defaults.SearchPath)
	setIfEmpty(&c.SortParam, defaults.SortParam)
	setIfEmpty(&c.NoResults, defaults.NoResults)

	f, df := &c.FilterConfig, defaults.FilterConfig
	setIfEmpty(&f.SectionSelector, df.SectionSelector)
	setIfEmpty(&f.LabelSelector, df.LabelSelector)
	setIfEmpty(&f.SectionLabel, df.SectionLabel)
	setIfEmpty(&f.OptionSelector, df.OptionSelector)
	setIfEmpty(&f.CheckboxSelector, df.CheckboxSelector)
	setIfEmpty(&f.AppliedSelector, df.AppliedSelector)

	setIfEmpty(&c.ListConfig.ArticleSelector, defaults.ListConfig.ArticleSelector)
	setIfEmpty(&c.ListConfig.PaginationSelector, defaults.ListConfig.PaginationSelector)

	a, da := &c.ArticleConfig, defaults.ArticleConfig
	setIfEmpty(&a.TimestampSelector, da.TimestampSelector)
	setIfEmpty(&a.TimestampAttribute, da.TimestampAttribute)
	setIfEmpty(&a.TitleSelector, da.TitleSelector)
	setIfEmpty(&a.DescriptionSelector, da.DescriptionSelector)
	setIfEmpty(&a.ImageSelector, da.ImageSelector)
	setIfEmpty(&a.ImageAttribute, da.ImageAttribute)
}

// Validate checks that the selectors the engine cannot work without are set.
func (c *SiteConfig) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return errors.New("base_url must use http or https scheme")
	}
	if c.SortParam == "" {
		return errors.New("sort_param is required")
	}
	if c.ListConfig.ArticleSelector == "" {
		return errors.New("list.article_selector is required")
	}
	if c.ArticleConfig.TimestampSelector == "" || c.ArticleConfig.TitleSelector == "" {
		return errors.New("article.timestamp_selector and article.title_selector are required")
	}
	return nil
}

func setIfEmpty(dst *string, val string) {
	if *dst == "" {
		*dst = val
	}
}
