package encodingresults_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/pstest"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"
	"github.com/bionicotaku/lingo-services-media/internal/services"
	encodingresults "github.com/bionicotaku/lingo-services-media/internal/tasks/encoding_results"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/docker/go-connections/nat"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// countingProcessor 统计真正进入用例的通知数。
type countingProcessor struct {
	inner *services.ProcessMediaService
	calls atomic.Int32
}

func (p *countingProcessor) ProcessInTx(ctx context.Context, sess txmanager.Session, input services.ProcessMediaInput) (services.ProcessOutcome, error) {
	p.calls.Add(1)
	return p.inner.ProcessInTx(ctx, sess, input)
}

type inboxTestEnv struct {
	pool      *pgxpool.Pool
	videos    *repositories.VideoRepository
	inbox     *repositories.InboxRepository
	tx        txmanager.Manager
	processor *countingProcessor
	logger    log.Logger
}

func newInboxTestEnv(ctx context.Context, t *testing.T) *inboxTestEnv {
	t.Helper()

	dsn, terminate := startPostgres(ctx, t)
	t.Cleanup(terminate)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	applyMigrations(ctx, t, pool)

	logger := log.NewStdLogger(io.Discard)
	txMgr, err := txmanager.NewManager(pool, txmanager.Config{}, txmanager.Dependencies{Logger: logger})
	require.NoError(t, err)

	videos := repositories.NewVideoRepository(pool, logger)
	return &inboxTestEnv{
		pool:   pool,
		videos: videos,
		inbox:  repositories.NewInboxRepository(pool, logger, outboxcfg.Config{Schema: "media"}),
		tx:     txMgr,
		processor: &countingProcessor{
			inner: services.NewProcessMediaService(videos, txMgr, services.StalePolicyLastWriteWins, logger),
		},
		logger: logger,
	}
}

func (e *inboxTestEnv) newRunner(t *testing.T, sub gcpubsub.Subscriber, dlq gcpubsub.Publisher) *encodingresults.Runner {
	t.Helper()
	runner, err := encodingresults.NewRunner(encodingresults.RunnerParams{
		Subscriber: sub,
		InboxRepo:  e.inbox,
		Processor:  e.processor,
		TxManager:  e.tx,
		DeadLetter: dlq,
		Logger:     e.logger,
		Config:     outboxcfg.InboxConfig{SourceService: "media-encoder", MaxConcurrency: 1},
	})
	require.NoError(t, err)
	return runner
}

func (e *inboxTestEnv) seedPendingVideo(ctx context.Context, t *testing.T) uuid.UUID {
	t.Helper()
	video, err := po.NewVideo(uuid.New(), "Inbox Video", "desc", 2023, 95, po.RatingAge12, false, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, video.ReplaceSlot(po.NewAudioVideoSlot(po.NewPendingAudioVideoMedia("movie.mp4", "memory://movie.mp4", po.MediaTypeVideo))))
	require.NoError(t, e.videos.Save(ctx, nil, video))
	return video.ID
}

func (e *inboxTestEnv) slot(ctx context.Context, t *testing.T, videoID uuid.UUID) po.AudioVideoMedia {
	t.Helper()
	video, err := e.videos.GetByID(ctx, nil, videoID)
	require.NoError(t, err)
	media, ok := video.AudioVideo(po.MediaTypeVideo)
	require.True(t, ok)
	return media
}

func (e *inboxTestEnv) processedInboxEvents(ctx context.Context, t *testing.T, videoID uuid.UUID) int {
	t.Helper()
	var n int
	err := e.pool.QueryRow(ctx, `select count(*) from media.inbox_events where aggregate_id = $1 and processed_at is not null`, videoID.String()).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestRunner_DedupsRedeliveredNotification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newInboxTestEnv(ctx, t)
	videoID := env.seedPendingVideo(ctx, t)

	payload := completedPayload(videoID)
	sub := &stubSubscriber{messages: []*gcpubsub.Message{
		{ID: "delivery-1", Data: payload},
		{ID: "delivery-1", Data: payload},
		{ID: "broken", Data: []byte(`{"status":"ERROR","video":{"resource_id":"broken"}}`)},
	}}
	dlq := &stubDeadLetter{}

	require.NoError(t, env.newRunner(t, sub, dlq).Run(ctx))

	require.Equal(t, int32(1), env.processor.calls.Load())
	require.Equal(t, 1, env.processedInboxEvents(ctx, t, videoID))
	require.Len(t, dlq.messages, 1)
	require.Equal(t, "NOTIFICATION_MALFORMED", dlq.messages[0].Attributes["error_reason"])

	media := env.slot(ctx, t, videoID)
	require.Equal(t, po.MediaStatusCompleted, media.Status)
	require.Equal(t, "/enc/path", media.EncodedLocation)
}

func TestRunner_UnknownVideoIsDeadLetteredAndMarkedProcessed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newInboxTestEnv(ctx, t)
	missing := uuid.New()

	sub := &stubSubscriber{messages: []*gcpubsub.Message{{ID: "orphan", Data: completedPayload(missing)}}}
	dlq := &stubDeadLetter{}
	require.NoError(t, env.newRunner(t, sub, dlq).Run(ctx))

	require.Len(t, dlq.messages, 1)
	require.Equal(t, services.ReasonVideoNotFound, dlq.messages[0].Attributes["error_reason"])
	require.Equal(t, 1, env.processedInboxEvents(ctx, t, missing))
}

func TestRunner_ConsumesFromPubSub(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newInboxTestEnv(ctx, t)
	videoID := env.seedPendingVideo(ctx, t)

	server := pstest.NewServer()
	t.Cleanup(func() { _ = server.Close() })

	projectID := "test-project"
	resultsTopic := "media-encoding-results"
	subscriptionID := "media-encoding-results-sub"
	deadLetterTopic := "media-encoding-results-dlq"

	resultsTopicName := fmt.Sprintf("projects/%s/topics/%s", projectID, resultsTopic)
	deadLetterTopicName := fmt.Sprintf("projects/%s/topics/%s", projectID, deadLetterTopic)
	_, err := server.GServer.CreateTopic(ctx, &pubsubpb.Topic{Name: resultsTopicName})
	require.NoError(t, err)
	_, err = server.GServer.CreateTopic(ctx, &pubsubpb.Topic{Name: deadLetterTopicName})
	require.NoError(t, err)
	_, err = server.GServer.CreateSubscription(ctx, &pubsubpb.Subscription{
		Name:  fmt.Sprintf("projects/%s/subscriptions/%s", projectID, subscriptionID),
		Topic: resultsTopicName,
	})
	require.NoError(t, err)

	disabled := false
	results, cleanupResults, err := gcpubsub.NewComponent(ctx, gcpubsub.Config{
		ProjectID:        projectID,
		TopicID:          resultsTopic,
		SubscriptionID:   subscriptionID,
		EnableLogging:    &disabled,
		EnableMetrics:    &disabled,
		EmulatorEndpoint: server.Addr,
	}, gcpubsub.Dependencies{Logger: env.logger})
	require.NoError(t, err)
	t.Cleanup(cleanupResults)

	dlq, cleanupDLQ, err := gcpubsub.NewComponent(ctx, gcpubsub.Config{
		ProjectID:        projectID,
		TopicID:          deadLetterTopic,
		EnableLogging:    &disabled,
		EnableMetrics:    &disabled,
		EmulatorEndpoint: server.Addr,
	}, gcpubsub.Dependencies{Logger: env.logger})
	require.NoError(t, err)
	t.Cleanup(cleanupDLQ)

	runner := env.newRunner(t, gcpubsub.ProvideSubscriber(results), gcpubsub.ProvidePublisher(dlq))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(runCtx) }()

	encoder := gcpubsub.ProvidePublisher(results)
	_, err = encoder.Publish(ctx, gcpubsub.Message{Data: completedPayload(videoID)})
	require.NoError(t, err)
	_, err = encoder.Publish(ctx, gcpubsub.Message{Data: []byte(`{"status":"ERROR","video":{"resource_id":"broken"}}`)})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		var n int
		if err := env.pool.QueryRow(ctx, `select count(*) from media.inbox_events where aggregate_id = $1 and processed_at is not null`, videoID.String()).Scan(&n); err != nil {
			return false
		}
		return n == 1 && countMessages(server, deadLetterTopicName) == 1
	}, 10*time.Second, 100*time.Millisecond)

	require.Equal(t, po.MediaStatusCompleted, env.slot(ctx, t, videoID).Status)

	cancel()
	select {
	case err := <-errCh:
		require.True(t, err == nil || errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop in time")
	}
}

func countMessages(server *pstest.Server, topic string) int {
	n := 0
	for _, msg := range server.Messages() {
		if msg.Topic == topic {
			n++
		}
	}
	return n
}

func startPostgres(ctx context.Context, t *testing.T) (string, func()) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "media",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
			return fmt.Sprintf("postgres://postgres:postgres@%s:%s/media?sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("skip encoding results inbox test: cannot start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/media?sslmode=disable", host, port.Port())
	cleanup := func() {
		termCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(termCtx)
	}
	return dsn, cleanup
}

func applyMigrations(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	migrationsDir := filepath.Join("..", "..", "..", "..", "migrations")
	files, err := os.ReadDir(migrationsDir)
	require.NoError(t, err)

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".sql" {
			continue
		}
		paths = append(paths, filepath.Join(migrationsDir, f.Name()))
	}
	sort.Strings(paths)

	for _, path := range paths {
		sqlBytes, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		_, execErr := pool.Exec(ctx, string(sqlBytes))
		require.NoErrorf(t, execErr, "apply migration %s", filepath.Base(path))
	}
}
