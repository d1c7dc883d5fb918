package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fedestu/RPA-Challenge/browser"
	"github.com/fedestu/RPA-Challenge/logger"
)

var errCategoryNotFound = errors.New("category not found")

// SelectCategory ticks the category checkbox whose label contains category
// and waits for the site to confirm the filter. The control list is rendered
// client side and can be incomplete right after a load, so each failed
// attempt reloads the page before the next one. An empty category is a
// no-op.
func (s *Scraper) SelectCategory(ctx context.Context, category string) error {
	if category == "" {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxFilterAttempts; attempt++ {
		lastErr = s.applyCategory(ctx, category)
		if lastErr == nil {
			s.log.Info("filter has been applied and page updated", logger.String("category", category))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.log.Warn("category selection attempt failed",
			logger.Int("attempt", attempt),
			logger.String("category", category),
			logger.Error(lastErr),
		)

		if err := s.browser.Reload(ctx); err != nil {
			s.log.Warn("failed to reload search page", logger.Error(err))
		}
	}

	selErr := &CategorySelectionError{
		Category: category,
		Attempts: s.opts.MaxFilterAttempts,
		Err:      lastErr,
	}
	s.log.Error("terminating due to category selection failure", logger.Error(selErr))
	return selErr
}

// applyCategory is a single attempt.
func (s *Scraper) applyCategory(ctx context.Context, category string) error {
	options, err := s.categoryOptions(ctx)
	if err != nil {
		return err
	}

	found, err := s.clickCategoryCheckbox(ctx, options, category)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %q", errCategoryNotFound, category)
	}

	if err := s.browser.WaitVisible(ctx, s.site.FilterConfig.AppliedSelector, s.opts.FilterWaitTimeout); err != nil {
		return fmt.Errorf("filter not confirmed: %w", err)
	}

	return s.sleep(ctx, s.opts.FilterSettleDelay)
}

// categoryOptions returns the checkbox labels of the filter section whose
// label contains the configured section name.
func (s *Scraper) categoryOptions(ctx context.Context) ([]browser.Element, error) {
	cfg := s.site.FilterConfig

	sections, err := s.browser.FindAll(ctx, cfg.SectionSelector, nil)
	if err != nil {
		return nil, fmt.Errorf("find filter sections: %w", err)
	}

	for _, section := range sections {
		label, err := s.browser.FindOne(ctx, cfg.LabelSelector, section)
		if errors.Is(err, browser.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find filter label: %w", err)
		}

		text, err := s.browser.Text(ctx, label)
		if err != nil {
			return nil, fmt.Errorf("read filter label: %w", err)
		}
		if !strings.Contains(text, cfg.SectionLabel) {
			continue
		}

		options, err := s.browser.FindAll(ctx, cfg.OptionSelector, section)
		if err != nil {
			return nil, fmt.Errorf("find category options: %w", err)
		}
		return options, nil
	}

	return nil, fmt.Errorf("filter section %q not found", cfg.SectionLabel)
}

// clickCategoryCheckbox ticks the first option matching category unless it
// is already checked. It reports whether a matching option exists.
func (s *Scraper) clickCategoryCheckbox(ctx context.Context, options []browser.Element, category string) (bool, error) {
	for _, option := range options {
		text, err := s.browser.Text(ctx, option)
		if err != nil {
			return false, fmt.Errorf("read category option: %w", err)
		}
		if !strings.Contains(text, category) {
			continue
		}

		checkbox, err := s.browser.FindOne(ctx, s.site.FilterConfig.CheckboxSelector, option)
		if err != nil {
			return false, fmt.Errorf("find category checkbox: %w", err)
		}

		value, ok, err := s.browser.Attribute(ctx, checkbox, "checked")
		if err != nil {
			return false, fmt.Errorf("read category checkbox: %w", err)
		}
		if !browser.IsChecked(value, ok) {
			if err := s.browser.Click(ctx, checkbox); err != nil {
				return false, fmt.Errorf("click category checkbox: %w", err)
			}
			s.log.Info("category clicked", logger.String("category", category))
		}
		return true, nil
	}

	return false, nil
}
