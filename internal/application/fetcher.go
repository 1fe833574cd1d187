// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

// DirectoryFetcher walks the paged application collection to the end.
type DirectoryFetcher struct {
	pager driven.ApplicationPager
}

// NewDirectoryFetcher creates a fetcher over pager.
func NewDirectoryFetcher(pager driven.ApplicationPager) *DirectoryFetcher {
	return &DirectoryFetcher{pager: pager}
}

// FetchAllApplications follows next links one page at a time until none
// remains, then sorts the result by display name (ordinal, stable). Any page
// failure fails the whole fetch with *model.FetchError, except token failures,
// which keep their *model.AuthError identity. A next link that was already
// followed is reported as an error rather than looped on.
func (f *DirectoryFetcher) FetchAllApplications(ctx context.Context) ([]model.Application, error) {
	var apps []model.Application
	followed := make(map[string]bool)
	link := ""

	for page := 1; ; page++ {
		p, err := f.pager.FetchApplicationsPage(ctx, link)
		if err != nil {
			var authErr *model.AuthError
			if errors.As(err, &authErr) {
				return nil, fmt.Errorf("fetch applications (page %d): %w", page, err)
			}
			return nil, &model.FetchError{Page: page, Err: err}
		}

		apps = append(apps, p.Applications...)

		if p.NextLink == "" {
			break
		}
		if followed[p.NextLink] {
			return nil, &model.FetchError{Page: page, Err: fmt.Errorf("next link repeats an earlier page: %s", p.NextLink)}
		}
		followed[p.NextLink] = true
		link = p.NextLink
	}

	slices.SortStableFunc(apps, func(a, b model.Application) int {
		return strings.Compare(a.DisplayName, b.DisplayName)
	})

	if apps == nil {
		apps = []model.Application{}
	}
	return apps, nil
}
