package repositories_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestVideoRepositoryIntegration_SaveAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(ctx, t)
	repo := repositories.NewVideoRepository(pool, log.NewStdLogger(io.Discard))

	category, genre, cast := uuid.New(), uuid.New(), uuid.New()
	insertReference(ctx, t, pool, po.ReferenceCategory, category, true)
	insertReference(ctx, t, pool, po.ReferenceGenre, genre, true)
	insertReference(ctx, t, pool, po.ReferenceCastMember, cast, true)

	video := newSampleVideo(t)
	video.Categories = []uuid.UUID{category}
	video.Genres = []uuid.UUID{genre}
	video.CastMembers = []uuid.UUID{cast}
	require.NoError(t, video.ReplaceSlot(po.NewAudioVideoSlot(po.NewPendingAudioVideoMedia("movie.mp4", "memory://movie.mp4", po.MediaTypeVideo))))
	require.NoError(t, video.ReplaceSlot(po.NewImageSlot(po.MediaTypeBanner, po.ImageMedia{Name: "banner.png", RawLocation: "memory://banner.png"})))

	require.NoError(t, repo.Save(ctx, nil, video))
	require.False(t, video.CreatedAt.IsZero())

	loaded, err := repo.GetByID(ctx, nil, video.ID)
	require.NoError(t, err)
	require.Equal(t, video.Title, loaded.Title)
	require.Equal(t, video.Rating, loaded.Rating)
	require.InDelta(t, video.Duration, loaded.Duration, 0.001)
	require.Equal(t, []uuid.UUID{category}, loaded.Categories)
	require.Equal(t, []uuid.UUID{genre}, loaded.Genres)
	require.Equal(t, []uuid.UUID{cast}, loaded.CastMembers)

	media, ok := loaded.AudioVideo(po.MediaTypeVideo)
	require.True(t, ok)
	require.Equal(t, po.MediaStatusPending, media.Status)
	require.Equal(t, "memory://movie.mp4", media.RawLocation)
	require.Empty(t, media.EncodedLocation)

	banner, ok := loaded.Slot(po.MediaTypeBanner)
	require.True(t, ok)
	require.NotNil(t, banner.Image)
	require.Equal(t, "banner.png", banner.Image.Name)

	_, ok = loaded.Slot(po.MediaTypeTrailer)
	require.False(t, ok)
}

func TestVideoRepositoryIntegration_SlotTransitionsPersist(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(ctx, t)
	repo := repositories.NewVideoRepository(pool, log.NewStdLogger(io.Discard))
	mgr := newTxManager(t, pool)

	video := newSampleVideo(t)
	require.NoError(t, video.ReplaceSlot(po.NewAudioVideoSlot(po.NewPendingAudioVideoMedia("movie.mp4", "raw/movie.mp4", po.MediaTypeVideo))))
	require.NoError(t, video.ReplaceSlot(po.NewAudioVideoSlot(po.NewPendingAudioVideoMedia("trailer.mp4", "raw/trailer.mp4", po.MediaTypeTrailer))))
	require.NoError(t, repo.Save(ctx, nil, video))

	err := mgr.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		locked, err := repo.GetForUpdate(txCtx, sess, video.ID)
		if err != nil {
			return err
		}
		current, _ := locked.AudioVideo(po.MediaTypeVideo)
		completed, err := current.Complete("/encoded/movie")
		if err != nil {
			return err
		}
		if err := locked.ReplaceSlot(po.NewAudioVideoSlot(completed)); err != nil {
			return err
		}
		return repo.Save(txCtx, sess, locked)
	})
	require.NoError(t, err)

	loaded, err := repo.GetByID(ctx, nil, video.ID)
	require.NoError(t, err)
	movie, _ := loaded.AudioVideo(po.MediaTypeVideo)
	require.Equal(t, po.MediaStatusCompleted, movie.Status)
	require.Equal(t, "/encoded/movie", movie.EncodedLocation)

	trailer, _ := loaded.AudioVideo(po.MediaTypeTrailer)
	require.Equal(t, po.MediaStatusPending, trailer.Status)
	require.Equal(t, "raw/trailer.mp4", trailer.RawLocation)
}

func TestVideoRepositoryIntegration_ListAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(ctx, t)
	repo := repositories.NewVideoRepository(pool, log.NewStdLogger(io.Discard))

	first := newSampleVideo(t)
	second := newSampleVideo(t)
	require.NoError(t, repo.Save(ctx, nil, first))
	require.NoError(t, repo.Save(ctx, nil, second))

	videos, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, videos, 2)

	require.NoError(t, repo.Delete(ctx, nil, first.ID))
	err = repo.Delete(ctx, nil, first.ID)
	require.True(t, errors.Is(err, repositories.ErrVideoNotFound))

	_, err = repo.GetByID(ctx, nil, first.ID)
	require.True(t, errors.Is(err, repositories.ErrVideoNotFound))

	videos, err = repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	require.Equal(t, second.ID, videos[0].ID)
}

func TestVideoRepositoryIntegration_StalePending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(ctx, t)
	repo := repositories.NewVideoRepository(pool, log.NewStdLogger(io.Discard))

	stuck := newSampleVideo(t)
	require.NoError(t, stuck.ReplaceSlot(po.NewAudioVideoSlot(po.NewPendingAudioVideoMedia("movie.mp4", "raw/stuck.mp4", po.MediaTypeVideo))))
	require.NoError(t, repo.Save(ctx, nil, stuck))

	done := newSampleVideo(t)
	completed, err := po.NewPendingAudioVideoMedia("movie.mp4", "raw/done.mp4", po.MediaTypeVideo).Complete("/enc/done")
	require.NoError(t, err)
	require.NoError(t, done.ReplaceSlot(po.NewAudioVideoSlot(completed)))
	require.NoError(t, repo.Save(ctx, nil, done))

	items, err := repo.ListStalePending(ctx, nil, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, stuck.ID, items[0].VideoID)
	require.Equal(t, po.MediaTypeVideo, items[0].MediaType)
	require.Equal(t, "raw/stuck.mp4", items[0].RawLocation)

	items, err = repo.ListStalePending(ctx, nil, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Empty(t, items)

	touched, err := repo.TouchPending(ctx, nil, po.PendingMedia{VideoID: stuck.ID, MediaType: po.MediaTypeVideo, RawLocation: "raw/stuck.mp4"})
	require.NoError(t, err)
	require.True(t, touched)

	touched, err = repo.TouchPending(ctx, nil, po.PendingMedia{VideoID: stuck.ID, MediaType: po.MediaTypeVideo, RawLocation: "raw/replaced.mp4"})
	require.NoError(t, err)
	require.False(t, touched)
}

func TestReferenceRepositoryIntegration_MissingIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(ctx, t)
	repo := repositories.NewReferenceRepository(pool, log.NewStdLogger(io.Discard))

	active, inactive, unknown := uuid.New(), uuid.New(), uuid.New()
	insertReference(ctx, t, pool, po.ReferenceGenre, active, true)
	insertReference(ctx, t, pool, po.ReferenceGenre, inactive, false)

	missing, err := repo.MissingIDs(ctx, nil, po.ReferenceGenre, []uuid.UUID{active, inactive, unknown})
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{inactive, unknown}, missing)

	missing, err = repo.MissingIDs(ctx, nil, po.ReferenceGenre, nil)
	require.NoError(t, err)
	require.Empty(t, missing)
}
