package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/secretwatch/internal/application"
	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

const day = 24 * time.Hour

var now = time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

func cred(name string, expiresAt time.Time) model.Credential {
	return model.Credential{DisplayName: name, ExpiresAt: expiresAt}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		bucket    model.RiskBucket
		included  bool
	}{
		{"one second ago", now.Add(-time.Second), model.BucketExpired, true},
		{"minus one day", now.Add(-day), model.BucketExpired, true},
		{"minus thirty days", now.Add(-30 * day), model.BucketExpired, true},
		{"exactly now", now, model.BucketCritical, true},
		{"zero days", now.Add(day - time.Second), model.BucketCritical, true},
		{"thirteen days", now.Add(13 * day), model.BucketCritical, true},
		{"just under fourteen", now.Add(14*day - time.Second), model.BucketCritical, true},
		{"fourteen days", now.Add(14 * day), model.BucketWarning, true},
		{"twenty nine days", now.Add(29 * day), model.BucketWarning, true},
		{"just under thirty", now.Add(30*day - time.Second), model.BucketWarning, true},
		{"thirty days", now.Add(30 * day), 0, false},
		{"a year out", now.Add(365 * day), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps := []model.Application{{ID: "a", DisplayName: "App", Credentials: []model.Credential{cred("s", tt.expiresAt)}}}

			got := application.Classify(apps, now)

			total := len(got.Expired) + len(got.Critical) + len(got.Warning)
			if !tt.included {
				assert.Zero(t, total)
				return
			}
			require.Equal(t, 1, total, "credential must land in exactly one bucket")
			require.Len(t, got.Bucket(tt.bucket), 1)
			assert.Equal(t, "s", got.Bucket(tt.bucket)[0].Credentials[0].DisplayName)
		})
	}
}

func TestClassify_MergesCredentialsOfSameApplication(t *testing.T) {
	apps := []model.Application{
		{ID: "a", DisplayName: "App", Credentials: []model.Credential{
			cred("first", now.Add(2*day)),
			cred("far", now.Add(90*day)),
			cred("second", now.Add(5*day)),
		}},
	}

	got := application.Classify(apps, now)

	require.Len(t, got.Critical, 1)
	assert.Equal(t, "a", got.Critical[0].ID)
	assert.Equal(t, []model.Credential{cred("first", now.Add(2*day)), cred("second", now.Add(5*day))}, got.Critical[0].Credentials)
	assert.Empty(t, got.Expired)
	assert.Empty(t, got.Warning)
}

func TestClassify_MergesRepeatedApplicationIDs(t *testing.T) {
	apps := []model.Application{
		{ID: "a", DisplayName: "App", Credentials: []model.Credential{cred("one", now.Add(-day))}},
		{ID: "b", DisplayName: "Other", Credentials: []model.Credential{cred("x", now.Add(-day))}},
		{ID: "a", DisplayName: "App", Credentials: []model.Credential{cred("two", now.Add(-2*day))}},
	}

	got := application.Classify(apps, now)

	require.Len(t, got.Expired, 2)
	assert.Equal(t, "a", got.Expired[0].ID)
	assert.Len(t, got.Expired[0].Credentials, 2)
	assert.Equal(t, "b", got.Expired[1].ID)
}

func TestClassify_WarningBucketMergesWithinItself(t *testing.T) {
	apps := []model.Application{
		{ID: "a", DisplayName: "App", Credentials: []model.Credential{
			cred("crit", now.Add(3*day)),
			cred("warn1", now.Add(15*day)),
			cred("warn2", now.Add(20*day)),
		}},
	}

	got := application.Classify(apps, now)

	require.Len(t, got.Critical, 1)
	require.Len(t, got.Warning, 1)
	assert.Len(t, got.Critical[0].Credentials, 1)
	assert.Len(t, got.Warning[0].Credentials, 2)
}

func TestClassify_ApplicationWithoutCredentials(t *testing.T) {
	apps := []model.Application{{ID: "empty", DisplayName: "Empty"}}

	got := application.Classify(apps, now)

	assert.Empty(t, got.Expired)
	assert.Empty(t, got.Critical)
	assert.Empty(t, got.Warning)
	assert.Equal(t, now, got.GeneratedAt)
}

func TestClassify_EndToEndExample(t *testing.T) {
	apps := []model.Application{
		{ID: "B", DisplayName: "Alpha", Credentials: []model.Credential{cred("s2", now.Add(10*day)), cred("s3", now.Add(20*day))}},
		{ID: "A", DisplayName: "Zeta", Credentials: []model.Credential{cred("s1", now.Add(-day))}},
	}

	got := application.Classify(apps, now)

	assert.Equal(t, []model.Application{{ID: "A", DisplayName: "Zeta", Credentials: []model.Credential{cred("s1", now.Add(-day))}}}, got.Expired)
	assert.Equal(t, []model.Application{{ID: "B", DisplayName: "Alpha", Credentials: []model.Credential{cred("s2", now.Add(10*day))}}}, got.Critical)
	assert.Equal(t, []model.Application{{ID: "B", DisplayName: "Alpha", Credentials: []model.Credential{cred("s3", now.Add(20*day))}}}, got.Warning)
	assert.Equal(t, 1, got.CredentialCount(model.BucketExpired))
	assert.Equal(t, 1, got.CredentialCount(model.BucketCritical))
	assert.Equal(t, 1, got.CredentialCount(model.BucketWarning))
}

func TestClassify_FirstSeenOrder(t *testing.T) {
	apps := []model.Application{
		{ID: "1", DisplayName: "Alpha", Credentials: []model.Credential{cred("a", now.Add(day))}},
		{ID: "2", DisplayName: "Beta", Credentials: []model.Credential{cred("b", now.Add(day))}},
		{ID: "3", DisplayName: "Gamma", Credentials: []model.Credential{cred("c", now.Add(day))}},
	}

	got := application.Classify(apps, now)

	require.Len(t, got.Critical, 3)
	assert.Equal(t, "Alpha", got.Critical[0].DisplayName)
	assert.Equal(t, "Beta", got.Critical[1].DisplayName)
	assert.Equal(t, "Gamma", got.Critical[2].DisplayName)
}

func TestClassify_IdempotentAndPure(t *testing.T) {
	apps := []model.Application{
		{ID: "a", DisplayName: "App", Credentials: []model.Credential{cred("x", now.Add(-day)), cred("y", now.Add(20*day))}},
		{ID: "b", DisplayName: "Bee", Credentials: []model.Credential{cred("z", now.Add(3*day))}},
	}
	before := make([]model.Application, len(apps))
	for i, app := range apps {
		before[i] = model.Application{ID: app.ID, DisplayName: app.DisplayName, Credentials: append([]model.Credential(nil), app.Credentials...)}
	}

	first := application.Classify(apps, now)
	second := application.Classify(apps, now)

	assert.Equal(t, first, second)
	assert.Equal(t, before, apps, "input must not be modified")
}
