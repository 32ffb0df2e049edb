package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"learnboard_backend/internal/realtime"
	"learnboard_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanAwardsBadgeAndCertificate(t *testing.T) {
	f := newFixture(t)
	f.putCourse("bio-101", "Intro to Biology", 10)
	f.putProgress("u1", "bio-101", 100, time.Now())

	svc := f.awardService(nil)
	result, err := svc.Scan(sessionCtx("u1"))
	require.NoError(t, err)
	require.Len(t, result.Awarded, 1)
	assert.Empty(t, result.Failed)

	ctx := context.Background()
	badges, err := f.badges.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, badges, 1)
	b := badges[0]
	assert.Equal(t, "Intro to Biology Completion", b.Name)
	assert.Equal(t, "Completed the Intro to Biology course", b.Description)
	assert.Equal(t, "https://api.dicebear.com/6.x/shapes/svg?seed=Intro+to+Biology", b.ImageURL)
	assert.EqualValues(t, "gold", b.Tier)
	assert.EqualValues(t, "course", b.Category)
	assert.Equal(t, "course", b.SourceType)
	assert.Equal(t, "bio-101", b.SourceID)

	certs, err := f.certs.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, "Intro to Biology", certs[0].Name)
	assert.Equal(t, "Successfully completed Intro to Biology with a score of 100%", certs[0].Description)
	assert.Equal(t, "/certificates/bio-101.pdf", certs[0].DownloadURL)

	assert.Equal(t, 1, f.notifier.count())
	assert.Contains(t, f.notifier.sent[0].Message, "Intro to Biology Completion")

	require.Equal(t, 1, f.publisher.count())
	assert.Equal(t, realtime.AchievementsChannel("u1"), f.publisher.channels[0])
	assert.Equal(t, realtime.TypeInvalidate, f.publisher.events[0].Type)
}

func TestScanReportsCertificateIssuedByConcurrentWriter(t *testing.T) {
	f := newFixture(t)
	f.putCourse("bio-101", "Intro to Biology", 10)
	f.putProgress("u1", "bio-101", 100, time.Now())

	certs := &racingCertificates{CertificateStore: f.certs}
	result, err := f.awardService(certs).ScanUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, result.Awarded, 1)
	assert.Empty(t, result.Failed)

	got := result.Awarded[0]
	require.NotNil(t, got.Badge)
	require.NotNil(t, got.Certificate)
	require.Len(t, certs.issued, 1)
	assert.Equal(t, certs.issued[0].ID, got.Certificate.ID)
	assert.Equal(t, "issued by another writer", got.Certificate.Description)

	stored, err := f.certs.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestScanIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.putCourse("bio-101", "Intro to Biology", 10)
	f.putProgress("u1", "bio-101", 100, time.Now())
	svc := f.awardService(nil)

	_, err := svc.Scan(sessionCtx("u1"))
	require.NoError(t, err)
	second, err := svc.Scan(sessionCtx("u1"))
	require.NoError(t, err)

	assert.Empty(t, second.Awarded)
	assert.Empty(t, second.Repaired)
	n, err := f.badges.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, 1, f.publisher.count())
}

func TestConcurrentScansAwardOnce(t *testing.T) {
	f := newFixture(t)
	f.putCourse("bio-101", "Intro to Biology", 10)
	f.putCourse("chem-101", "Chemistry", 10)
	f.putProgress("u1", "bio-101", 100, time.Now())
	f.putProgress("u1", "chem-101", 100, time.Now())

	// separate services stand in for separate processes sharing one store
	services := []*AwardService{f.awardService(nil), f.awardService(nil), f.awardService(nil)}

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(svc *AwardService) {
			defer wg.Done()
			_, err := svc.ScanUser(context.Background(), "u1")
			assert.NoError(t, err)
		}(services[i%len(services)])
	}
	wg.Wait()

	ctx := context.Background()
	badges, err := f.badges.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, badges, 2)
	certs, err := f.certs.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, certs, 2)
	assert.Equal(t, 2, f.notifier.count())
}

func TestScanRepairsMissingCertificate(t *testing.T) {
	f := newFixture(t)
	f.putCourse("bio-101", "Intro to Biology", 10)
	f.putProgress("u1", "bio-101", 100, time.Now())

	certs := &failingCertificates{CertificateStore: f.certs}
	certs.setFail(true)
	svc := f.awardService(certs)

	first, err := svc.ScanUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, first.Awarded)
	require.Len(t, first.Failed, 1)
	assert.NotNil(t, first.Failed[0].Badge, "badge is kept when the certificate fails")
	assert.NotEmpty(t, first.Failed[0].Error)

	certs.setFail(false)
	second, err := svc.ScanUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, second.Awarded)
	require.Len(t, second.Repaired, 1)
	assert.Equal(t, "/certificates/bio-101.pdf", second.Repaired[0].Certificate.DownloadURL)

	n, err := f.badges.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	// the badge notification is not repeated by the repair
	assert.Equal(t, 1, f.notifier.count())
}

func TestScanSkipsMissingCourse(t *testing.T) {
	f := newFixture(t)
	f.putProgress("u1", "gone", 100, time.Now())

	result, err := f.awardService(nil).ScanUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"gone"}, result.Skipped)
	assert.Zero(t, f.publisher.count())
}

func TestScanRequiresSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.awardService(nil).Scan(context.Background())
	assert.ErrorIs(t, err, util.ErrNotAuthenticated)
}

func TestScanStoreUnavailable(t *testing.T) {
	f := newFixture(t)
	detector := NewCompletionDetector(unavailableProgress{f.progress}, f.badges, f.certs)
	svc := NewAwardService(detector, f.courses, f.badges, f.certs, f.notifier, f.publisher, testAwardConfig())

	_, err := svc.ScanUser(context.Background(), "u1")
	assert.ErrorIs(t, err, util.ErrStoreUnavailable)
}

func TestScanInBackground(t *testing.T) {
	f := newFixture(t)
	f.putCourse("bio-101", "Intro to Biology", 10)
	f.putProgress("u1", "bio-101", 100, time.Now())
	svc := f.awardService(nil)

	svc.ScanInBackground("u1")
	svc.Wait()

	n, err := f.badges.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdateConfigChangesCertificateURL(t *testing.T) {
	f := newFixture(t)
	f.putCourse("bio-101", "Intro to Biology", 10)
	f.putProgress("u1", "bio-101", 100, time.Now())
	svc := f.awardService(nil)

	cfg := testAwardConfig()
	cfg.CertificateURL = "https://cdn.example.com/certs/%s.pdf"
	svc.UpdateConfig(cfg)

	result, err := svc.ScanUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, result.Awarded, 1)
	assert.Equal(t, "https://cdn.example.com/certs/bio-101.pdf", result.Awarded[0].Certificate.DownloadURL)
}
