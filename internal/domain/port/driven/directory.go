package driven

import (
	"context"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

// ApplicationPager reads the directory's application collection one page at
// a time. An empty pageURL requests the first page selecting exactly id,
// displayName, and passwordCredentials; a non-empty pageURL must be a
// NextLink returned by a previous page.
type ApplicationPager interface {
	FetchApplicationsPage(ctx context.Context, pageURL string) (model.ApplicationPage, error)
}
