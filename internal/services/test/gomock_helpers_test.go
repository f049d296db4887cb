package services_test

import (
	"context"
	"testing"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type fakeTxManager struct{}

type fakeSession struct{ ctx context.Context }

func (fakeTxManager) WithinTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, fakeSession{ctx: ctx})
}

func (fakeTxManager) WithinReadOnlyTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, fakeSession{ctx: ctx})
}

func (fakeSession) Tx() pgx.Tx { return nil }

func (s fakeSession) Context() context.Context { return s.ctx }

func newVideo(t *testing.T) *po.Video {
	t.Helper()
	video, err := po.NewVideo(uuid.New(), "Sample Video", "A test video", 2022, 120.5, po.RatingAge12, false, nil, nil, nil)
	require.NoError(t, err)
	return video
}

func withAudioVideo(t *testing.T, video *po.Video, media po.AudioVideoMedia) *po.Video {
	t.Helper()
	require.NoError(t, video.ReplaceSlot(po.NewAudioVideoSlot(media)))
	return video
}
