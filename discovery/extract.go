package discovery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fedestu/RPA-Challenge/browser"
	"github.com/fedestu/RPA-Challenge/logger"
	"github.com/fedestu/RPA-Challenge/newsfeed"
)

// candidate is an article read from the page whose image is not fetched yet.
type candidate struct {
	record   newsfeed.ArticleRecord
	imageURL string
}

// ProcessArticles turns the article elements of one page into records.
// Elements are read in page order; the first one published before startMonth
// ends the batch and shouldStop is reported. Articles with an unreadable
// field or a failed image download are skipped with a warning.
func (s *Scraper) ProcessArticles(
	ctx context.Context,
	elements []browser.Element,
	searchPhrase string,
	startMonth time.Time,
) (records []newsfeed.ArticleRecord, shouldStop bool) {
	candidates := make([]candidate, 0, len(elements))

	for i, el := range elements {
		c, stop, err := s.readArticle(ctx, el, searchPhrase, startMonth)
		if stop {
			s.log.Info("reached articles older than the extraction window",
				logger.Int("position", i),
				logger.Time("start_month", startMonth),
			)
			shouldStop = true
			break
		}
		if err != nil {
			s.skipped++
			s.log.Warn("skipping article", logger.Int("position", i), logger.Error(err))
			continue
		}
		candidates = append(candidates, *c)
	}

	records = make([]newsfeed.ArticleRecord, 0, len(candidates))
	if len(candidates) == 0 {
		return records, shouldStop
	}

	jobs := make([]imageJob, len(candidates))
	for i, c := range candidates {
		jobs[i] = imageJob{url: c.imageURL, filename: c.record.ImageFilename}
	}

	errs := s.media.downloadAll(ctx, jobs)
	for i, c := range candidates {
		if errs[i] != nil {
			s.skipped++
			s.log.Warn("skipping article",
				logger.String("title", c.record.Title),
				logger.Error(errs[i]),
			)
			continue
		}
		records = append(records, c.record)
	}

	return records, shouldStop
}

// readArticle extracts the fields of one article element. stop is set when
// the article predates startMonth; the other fields are not read then.
func (s *Scraper) readArticle(
	ctx context.Context,
	el browser.Element,
	searchPhrase string,
	startMonth time.Time,
) (c *candidate, stop bool, err error) {
	cfg := s.site.ArticleConfig

	published, err := s.readTimestamp(ctx, el)
	if err != nil {
		return nil, false, err
	}
	s.checkOrder(published)
	if published.Before(startMonth) {
		return nil, true, nil
	}

	title, err := s.readText(ctx, el, cfg.TitleSelector)
	if err != nil {
		return nil, false, &ArticleFieldError{Field: "title", Err: err}
	}
	if title == "" {
		return nil, false, &ArticleFieldError{Field: "title", Err: errors.New("empty title")}
	}

	description, err := s.readText(ctx, el, cfg.DescriptionSelector)
	if errors.Is(err, browser.ErrNotFound) {
		description = ""
	} else if err != nil {
		return nil, false, &ArticleFieldError{Field: "description", Err: err}
	}

	imageURL, err := s.readAttribute(ctx, el, cfg.ImageSelector, cfg.ImageAttribute)
	if err != nil {
		return nil, false, &ArticleFieldError{Field: "image", Err: err}
	}

	return &candidate{
		record: newsfeed.ArticleRecord{
			Title:             title,
			PublishedDate:     published,
			Description:       description,
			ImageFilename:     ImageFilename(title),
			SearchPhraseCount: CountPhrase(searchPhrase, title, description),
			ContainsMoney:     ContainsMoney(title + description),
		},
		imageURL: imageURL,
	}, false, nil
}

// readTimestamp parses the epoch-milliseconds attribute of the timestamp
// element into a date in the configured location.
func (s *Scraper) readTimestamp(ctx context.Context, el browser.Element) (time.Time, error) {
	cfg := s.site.ArticleConfig

	raw, err := s.readAttribute(ctx, el, cfg.TimestampSelector, cfg.TimestampAttribute)
	if err != nil {
		return time.Time{}, &ArticleFieldError{Field: "timestamp", Err: err}
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, &ArticleFieldError{Field: "timestamp", Err: fmt.Errorf("invalid value %q: %w", raw, err)}
	}

	return truncateToDate(time.UnixMilli(ms), s.opts.Location), nil
}

func (s *Scraper) readText(ctx context.Context, scope browser.Element, selector string) (string, error) {
	node, err := s.browser.FindOne(ctx, selector, scope)
	if err != nil {
		return "", err
	}
	text, err := s.browser.Text(ctx, node)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *Scraper) readAttribute(ctx context.Context, scope browser.Element, selector, name string) (string, error) {
	node, err := s.browser.FindOne(ctx, selector, scope)
	if err != nil {
		return "", err
	}
	value, ok, err := s.browser.Attribute(ctx, node, name)
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", fmt.Errorf("attribute %q missing on %s", name, selector)
	}
	return value, nil
}

// checkOrder warns when a date is newer than the one read before it. The
// early stop assumes newest-first results; records are never re-sorted.
func (s *Scraper) checkOrder(published time.Time) {
	if !s.lastDate.IsZero() && published.After(s.lastDate) {
		s.log.Warn("results are not in newest-first order",
			logger.String("previous", s.lastDate.Format(newsfeed.DateLayout)),
			logger.String("current", published.Format(newsfeed.DateLayout)),
		)
	}
	s.lastDate = published
}
