// Package report renders classified credentials as the HTML body of the
// expiry notification mail.
package report

//go:generate go tool templ generate

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

// Section titles, completed by the summary line as "{count} {title}.".
const (
	TitleExpired  = "secrets are expired"
	TitleCritical = "secrets are set to expire in less than 14 days"
	TitleWarning  = "secrets are set to expire between 14 and 30 days"
)

// Summary line colors, as written in section.templ. Warning is the only
// severity rendered without the alert color.
const (
	AlertColor   = "#ff0000"
	WarningColor = "#000000"
)

// ExpiryLayout formats credential expiry instants, always in UTC.
const ExpiryLayout = "2006-01-02 15:04 MST"

// sectionOrder is the fixed order of sections in the report body.
var sectionOrder = []model.RiskBucket{model.BucketExpired, model.BucketCritical, model.BucketWarning}

// SectionTitle returns the summary title for a bucket.
func SectionTitle(b model.RiskBucket) string {
	switch b {
	case model.BucketExpired:
		return TitleExpired
	case model.BucketCritical:
		return TitleCritical
	default:
		return TitleWarning
	}
}

// RenderSection renders one bucket: a colored summary line with the total
// credential count, then one table per application in the given order.
// Credentials within each table are sorted by display name; apps is not modified.
func RenderSection(apps []model.Application, title string, severity model.RiskBucket) string {
	return renderString(section(summaryLine(apps, title), severity, apps))
}

// Render concatenates the Expired, Critical and Warning sections. A non-empty
// note is rendered from Markdown and appended after the sections.
func Render(r model.RiskReport, note string) string {
	var b strings.Builder
	for _, bucket := range sectionOrder {
		b.WriteString(RenderSection(r.Bucket(bucket), SectionTitle(bucket), bucket))
	}
	if html := RenderMarkdown(note); html != "" {
		b.WriteString("<hr />\n")
		b.WriteString(html)
	}
	return b.String()
}

func renderString(c templ.Component) string {
	var b strings.Builder
	// strings.Builder never fails a write.
	_ = c.Render(context.Background(), &b)
	return b.String()
}

func summaryLine(apps []model.Application, title string) string {
	count := 0
	for _, app := range apps {
		count += len(app.Credentials)
	}
	return fmt.Sprintf("%d %s.", count, title)
}

func sortedCredentials(creds []model.Credential) []model.Credential {
	sorted := slices.Clone(creds)
	slices.SortStableFunc(sorted, func(a, b model.Credential) int {
		return strings.Compare(a.DisplayName, b.DisplayName)
	})
	return sorted
}

func formatExpiry(t time.Time) string {
	return t.UTC().Format(ExpiryLayout)
}
