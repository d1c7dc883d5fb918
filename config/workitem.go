package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// WorkItem holds run parameters handed over by an automation queue. The
// file is JSON, either flat or with the values under "payload".
type WorkItem struct {
	SearchPhrase string
	CategoryName string
	NumMonths    int
}

// LoadWorkItem reads a work item file.
func LoadWorkItem(path string) (*WorkItem, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read work item: %w", err)
	}

	prefix := ""
	if v.IsSet("payload") {
		prefix = "payload."
	}

	return &WorkItem{
		SearchPhrase: strings.TrimSpace(v.GetString(prefix + "search_phrase")),
		CategoryName: strings.TrimSpace(v.GetString(prefix + "category_name")),
		NumMonths:    v.GetInt(prefix + "num_months"),
	}, nil
}

// Settings returns the inputs the work item sets, keyed like the input
// section of the config.
func (w *WorkItem) Settings() map[string]any {
	settings := make(map[string]any)
	if w.SearchPhrase != "" {
		settings["search_phrase"] = w.SearchPhrase
	}
	if w.CategoryName != "" {
		settings["category_name"] = w.CategoryName
	}
	if w.NumMonths != 0 {
		settings["num_months"] = w.NumMonths
	}
	return settings
}
