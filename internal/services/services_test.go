package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/idhub/backend/internal/models"
	"github.com/idhub/backend/internal/queue"
	"github.com/idhub/backend/internal/repository"
	"github.com/idhub/backend/internal/storage"
	"github.com/idhub/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublisher records published messages and fails when err is set.
type fakePublisher struct {
	mu       sync.Mutex
	err      error
	messages []queue.AnalysisMessage
}

func (f *fakePublisher) PublishAnalysis(_ context.Context, msg queue.AnalysisMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakePublisher) Ping(context.Context) error { return f.err }
func (f *fakePublisher) Close() error               { return nil }

// cancellingPublisher cancels the caller's context mid-publish, like a client
// disconnecting while the broker confirm is pending.
type cancellingPublisher struct {
	cancel context.CancelFunc
}

func (p *cancellingPublisher) PublishAnalysis(ctx context.Context, _ queue.AnalysisMessage) error {
	p.cancel()
	<-ctx.Done()
	return ctx.Err()
}

func (p *cancellingPublisher) Ping(context.Context) error { return nil }
func (p *cancellingPublisher) Close() error               { return nil }

// failingUpdates wraps a store and fails every Update.
type failingUpdates struct {
	AnalysisResultStore
}

func (failingUpdates) Update(context.Context, *models.AnalysisResult) error {
	return errors.New("database is read-only")
}

type fixture struct {
	sources   *repository.DataSourceRepository
	results   *repository.AnalysisResultRepository
	publisher *fakePublisher
	files     *storage.LocalStorage
	dsService *DataSourceService
	analysis  *AnalysisService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewTestDB(t)
	files, err := storage.NewLocalStorage(t.TempDir() + "/uploads")
	require.NoError(t, err)

	f := &fixture{
		sources:   repository.NewDataSourceRepository(gdb),
		results:   repository.NewAnalysisResultRepository(gdb),
		publisher: &fakePublisher{},
		files:     files,
	}
	f.dsService = NewDataSourceService(f.sources, f.files)
	f.analysis = NewAnalysisService(f.sources, f.results, f.publisher)
	return f
}

func (f *fixture) registerWithFile(t *testing.T, name, sourceType string) *models.DataSource {
	t.Helper()
	ctx := context.Background()
	ds, err := f.dsService.Register(ctx, RegisterInput{Name: name, SourceType: sourceType})
	require.NoError(t, err)
	content := "timestamp,value\n1,0.5\n"
	ds, err = f.dsService.AttachFile(ctx, ds.ID, "readings.csv", int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)
	return ds
}

func (f *fixture) jobCount(t *testing.T, dataSourceID uint) int64 {
	t.Helper()
	n, err := f.results.Count(context.Background(), dataSourceID)
	require.NoError(t, err)
	return n
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	desc := "vibration sensor"

	ds, err := f.dsService.Register(ctx, RegisterInput{Name: "sensor-a", SourceType: models.SourceTypeCSVUpload, Description: &desc})
	require.NoError(t, err)
	assert.NotZero(t, ds.ID)
	assert.Nil(t, ds.Location)
	require.NotNil(t, ds.Description)
	assert.Equal(t, desc, *ds.Description)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.dsService.Register(ctx, RegisterInput{Name: "sensor-a", SourceType: models.SourceTypeCSVUpload})
	require.NoError(t, err)

	_, err = f.dsService.Register(ctx, RegisterInput{Name: "sensor-a", SourceType: models.SourceTypeRULPrediction})
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := f.dsService.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTypeCSVUpload, stored.SourceType)
	assert.Equal(t, first.CreatedAt.Unix(), stored.CreatedAt.Unix())

	all, err := f.dsService.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterRequiresNameAndType(t *testing.T) {
	f := newFixture(t)

	_, err := f.dsService.Register(context.Background(), RegisterInput{Name: " ", SourceType: models.SourceTypeCSVUpload})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.dsService.Register(context.Background(), RegisterInput{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAttachFile(t *testing.T) {
	f := newFixture(t)
	ds := f.registerWithFile(t, "sensor-a", models.SourceTypeCSVUpload)

	require.NotNil(t, ds.Location)
	assert.Equal(t, "uploads/source_1_readings.csv", *ds.Location)

	stored, err := f.dsService.Get(context.Background(), ds.ID)
	require.NoError(t, err)
	assert.Equal(t, *ds.Location, *stored.Location)
}

func TestAttachFileErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.dsService.AttachFile(ctx, 404, "a.csv", 3, strings.NewReader("abc"))
	assert.ErrorIs(t, err, ErrNotFound)

	ds, err := f.dsService.Register(ctx, RegisterInput{Name: "empty", SourceType: models.SourceTypeCSVUpload})
	require.NoError(t, err)

	_, err = f.dsService.AttachFile(ctx, ds.ID, "a.csv", 0, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidInput)

	stored, err := f.dsService.Get(ctx, ds.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Location)
}

func TestDispatchAccepted(t *testing.T) {
	f := newFixture(t)
	ds := f.registerWithFile(t, "sensor-a", models.SourceTypeRULPrediction)

	job, err := f.analysis.Dispatch(context.Background(), ds.ID)
	require.NoError(t, err)

	assert.NotZero(t, job.ID)
	assert.Equal(t, ds.ID, job.DataSourceID)
	assert.Equal(t, models.AnalysisStatusPending, job.Status)
	assert.Equal(t, models.AnalysisTypeAnomalyDetection, job.AnalysisType)
	assert.Nil(t, job.ErrorMessage)
	assert.Equal(t, int64(1), f.jobCount(t, ds.ID))

	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, queue.AnalysisMessage{
		AnalysisResultID: job.ID,
		DataSourceID:     ds.ID,
		FilePath:         *ds.Location,
		AnalysisType:     models.SourceTypeRULPrediction,
	}, f.publisher.messages[0])

	stored, err := f.results.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusPending, stored.Status)
}

func TestDispatchPublishFailureMarksSameRowFailed(t *testing.T) {
	f := newFixture(t)
	ds := f.registerWithFile(t, "sensor-a", models.SourceTypeCSVUpload)
	f.publisher.err = errors.New("connection refused")

	job, err := f.analysis.Dispatch(context.Background(), ds.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDownstream)
	require.NotNil(t, job)

	assert.Equal(t, models.AnalysisStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "connection refused")
	assert.Equal(t, int64(1), f.jobCount(t, ds.ID), "no second row")

	stored, err := f.results.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.NotEmpty(t, *stored.ErrorMessage)
}

func TestDispatchCompensationFailureStillReturnsFailedRow(t *testing.T) {
	f := newFixture(t)
	ds := f.registerWithFile(t, "sensor-a", models.SourceTypeCSVUpload)
	f.publisher.err = errors.New("channel closed")
	svc := NewAnalysisService(f.sources, failingUpdates{f.results}, f.publisher)

	job, err := svc.Dispatch(context.Background(), ds.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDownstream)
	assert.ErrorIs(t, err, ErrStorage)
	require.NotNil(t, job)
	assert.Equal(t, models.AnalysisStatusFailed, job.Status)
}

func TestDispatchCancelledDuringPublishStoresFailedRow(t *testing.T) {
	f := newFixture(t)
	ds := f.registerWithFile(t, "sensor-a", models.SourceTypeCSVUpload)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := NewAnalysisService(f.sources, f.results, &cancellingPublisher{cancel: cancel})

	job, err := svc.Dispatch(ctx, ds.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDownstream)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrStorage)
	require.NotNil(t, job)
	assert.Equal(t, models.AnalysisStatusFailed, job.Status)

	stored, err := f.results.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "context canceled")
	assert.Equal(t, int64(1), f.jobCount(t, ds.ID))
}

func TestDispatchWithoutLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ds, err := f.dsService.Register(ctx, RegisterInput{Name: "no-file", SourceType: models.SourceTypeCSVUpload})
	require.NoError(t, err)

	job, err := f.analysis.Dispatch(ctx, ds.ID)
	assert.Nil(t, job)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, int64(0), f.jobCount(t, ds.ID))
	assert.Empty(t, f.publisher.messages)

	empty := ""
	ds.Location = &empty
	require.NoError(t, f.sources.Update(ctx, ds))

	_, err = f.analysis.Dispatch(ctx, ds.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, int64(0), f.jobCount(t, ds.ID))
}

func TestDispatchUnknownDataSource(t *testing.T) {
	f := newFixture(t)

	job, err := f.analysis.Dispatch(context.Background(), 77)
	assert.Nil(t, job)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(0), f.jobCount(t, 77))
	assert.Empty(t, f.publisher.messages)
}

func TestDispatchTwiceCreatesIndependentJobs(t *testing.T) {
	f := newFixture(t)
	ds := f.registerWithFile(t, "sensor-a", models.SourceTypeCSVUpload)

	first, err := f.analysis.Dispatch(context.Background(), ds.ID)
	require.NoError(t, err)
	second, err := f.analysis.Dispatch(context.Background(), ds.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, int64(2), f.jobCount(t, ds.ID))
	assert.Len(t, f.publisher.messages, 2)

	latest, err := f.analysis.LatestResult(context.Background(), ds.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestLatestResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds := f.registerWithFile(t, "sensor-a", models.SourceTypeCSVUpload)

	_, err := f.analysis.LatestResult(ctx, ds.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	job, err := f.analysis.Dispatch(ctx, ds.ID)
	require.NoError(t, err)

	a, err := f.analysis.LatestResult(ctx, ds.ID)
	require.NoError(t, err)
	b, err := f.analysis.LatestResult(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, a.ID)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.Status, b.Status)
	assert.True(t, a.UpdatedAt.Equal(b.UpdatedAt))

	// the worker writes a newer row for the same source
	newer := models.NewPendingAnalysis(ds.ID)
	newer.Status = models.AnalysisStatusCompleted
	newer.CreatedAt = job.CreatedAt.Add(time.Second)
	require.NoError(t, f.results.Create(ctx, newer))

	latest, err := f.analysis.LatestResult(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)
	assert.Equal(t, models.AnalysisStatusCompleted, latest.Status)
}

func TestHistoryAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds := f.registerWithFile(t, "sensor-a", models.SourceTypeCSVUpload)

	_, err := f.analysis.History(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := f.analysis.History(ctx, ds.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	job, err := f.analysis.Dispatch(ctx, ds.ID)
	require.NoError(t, err)

	history, err = f.analysis.History(ctx, ds.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, job.ID, history[0].ID)

	got, err := f.analysis.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	_, err = f.analysis.Get(ctx, job.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)
}
