package application

import (
	"time"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

// bucketBuilder accumulates one bucket, merging credentials by application ID.
type bucketBuilder struct {
	apps  []model.Application
	index map[string]int
}

func (b *bucketBuilder) add(app model.Application, cred model.Credential) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[app.ID]; ok {
		b.apps[i].Credentials = append(b.apps[i].Credentials, cred)
		return
	}
	b.index[app.ID] = len(b.apps)
	b.apps = append(b.apps, model.Application{
		ID:          app.ID,
		DisplayName: app.DisplayName,
		Credentials: []model.Credential{cred},
	})
}

// Classify partitions every credential into the Expired, Critical or Warning
// bucket by whole days remaining at now; credentials 30 or more days out are
// dropped. Each bucket holds at most one entry per application ID, in
// first-seen order, carrying only that bucket's credentials in input order.
// Classify does not modify apps and reads no clock.
func Classify(apps []model.Application, now time.Time) model.RiskReport {
	var expired, critical, warning bucketBuilder

	for _, app := range apps {
		for _, cred := range app.Credentials {
			bucket, ok := model.BucketFor(model.DaysRemaining(cred.ExpiresAt, now))
			if !ok {
				continue
			}
			switch bucket {
			case model.BucketExpired:
				expired.add(app, cred)
			case model.BucketCritical:
				critical.add(app, cred)
			case model.BucketWarning:
				warning.add(app, cred)
			}
		}
	}

	return model.RiskReport{
		GeneratedAt: now,
		Expired:     expired.apps,
		Critical:    critical.apps,
		Warning:     warning.apps,
	}
}
