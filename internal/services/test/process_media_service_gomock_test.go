package services_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"
	"github.com/bionicotaku/lingo-services-media/internal/services"
	"github.com/bionicotaku/lingo-services-media/internal/services/mocks"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newProcessService(t *testing.T, policy services.StalePolicy) (*services.ProcessMediaService, *mocks.MockVideoRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockVideoRepository(ctrl)
	return services.NewProcessMediaService(repo, fakeTxManager{}, policy, log.NewStdLogger(io.Discard)), repo
}

func TestProcessMediaService_PendingToCompleted(t *testing.T) {
	t.Parallel()

	svc, repo := newProcessService(t, services.StalePolicyLastWriteWins)
	video := withAudioVideo(t, newVideo(t), po.NewPendingAudioVideoMedia("movie.mp4", "raw/movie", po.MediaTypeVideo))

	repo.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), video.ID).Return(video, nil)
	repo.EXPECT().Save(gomock.Any(), gomock.Any(), video).Return(nil)

	outcome, err := svc.Process(context.Background(), services.ProcessMediaInput{
		VideoID:         video.ID,
		MediaType:       po.MediaTypeVideo,
		Status:          po.MediaStatusCompleted,
		EncodedLocation: "/enc/path",
	})
	require.NoError(t, err)
	require.Equal(t, services.OutcomeApplied, outcome)

	media, ok := video.AudioVideo(po.MediaTypeVideo)
	require.True(t, ok)
	require.Equal(t, po.MediaStatusCompleted, media.Status)
	require.Equal(t, "/enc/path", media.EncodedLocation)
	require.Equal(t, "raw/movie", media.RawLocation)
}

func TestProcessMediaService_PendingToError(t *testing.T) {
	t.Parallel()

	svc, repo := newProcessService(t, services.StalePolicyLastWriteWins)
	video := withAudioVideo(t, newVideo(t), po.NewPendingAudioVideoMedia("t.mp4", "raw/t", po.MediaTypeTrailer))

	repo.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), video.ID).Return(video, nil)
	repo.EXPECT().Save(gomock.Any(), gomock.Any(), video).Return(nil)

	outcome, err := svc.Process(context.Background(), services.ProcessMediaInput{
		VideoID:   video.ID,
		MediaType: po.MediaTypeTrailer,
		Status:    po.MediaStatusError,
	})
	require.NoError(t, err)
	require.Equal(t, services.OutcomeApplied, outcome)

	media, _ := video.AudioVideo(po.MediaTypeTrailer)
	require.Equal(t, po.MediaStatusError, media.Status)
	require.Empty(t, media.EncodedLocation)
}

func TestProcessMediaService_UnknownVideoDoesNotSave(t *testing.T) {
	t.Parallel()

	svc, repo := newProcessService(t, services.StalePolicyLastWriteWins)
	videoID := uuid.New()
	repo.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), videoID).Return(nil, repositories.ErrVideoNotFound)

	_, err := svc.Process(context.Background(), services.ProcessMediaInput{
		VideoID:         videoID,
		MediaType:       po.MediaTypeVideo,
		Status:          po.MediaStatusCompleted,
		EncodedLocation: "/enc/path",
	})
	require.ErrorIs(t, err, services.ErrVideoNotFound)
}

func TestProcessMediaService_MissingSlot(t *testing.T) {
	t.Parallel()

	svc, repo := newProcessService(t, services.StalePolicyLastWriteWins)
	video := newVideo(t)
	repo.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), video.ID).Return(video, nil)

	_, err := svc.Process(context.Background(), services.ProcessMediaInput{
		VideoID:   video.ID,
		MediaType: po.MediaTypeVideo,
		Status:    po.MediaStatusError,
	})
	require.ErrorIs(t, err, services.ErrMediaNotFound)
}

func TestProcessMediaService_DuplicateCompletedIsUnchanged(t *testing.T) {
	t.Parallel()

	svc, repo := newProcessService(t, services.StalePolicyLastWriteWins)
	completed, err := po.NewPendingAudioVideoMedia("movie.mp4", "raw", po.MediaTypeVideo).Complete("/enc/path")
	require.NoError(t, err)
	video := withAudioVideo(t, newVideo(t), completed)

	repo.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), video.ID).Return(video, nil)

	outcome, err := svc.Process(context.Background(), services.ProcessMediaInput{
		VideoID:         video.ID,
		MediaType:       po.MediaTypeVideo,
		Status:          po.MediaStatusCompleted,
		EncodedLocation: "/enc/path",
	})
	require.NoError(t, err)
	require.Equal(t, services.OutcomeUnchanged, outcome)

	media, _ := video.AudioVideo(po.MediaTypeVideo)
	require.Equal(t, completed, media)
}

func TestProcessMediaService_StalePolicies(t *testing.T) {
	t.Parallel()

	completed, err := po.NewPendingAudioVideoMedia("movie.mp4", "raw", po.MediaTypeVideo).Complete("/enc/old")
	require.NoError(t, err)
	failed := po.NewPendingAudioVideoMedia("movie.mp4", "raw", po.MediaTypeVideo).Fail()

	cases := []struct {
		name       string
		policy     services.StalePolicy
		current    po.AudioVideoMedia
		input      services.ProcessMediaInput
		outcome    services.ProcessOutcome
		wantStatus po.MediaStatus
		wantLoc    string
	}{
		{
			name:       "error overwrites completed and keeps location",
			policy:     services.StalePolicyLastWriteWins,
			current:    completed,
			input:      services.ProcessMediaInput{Status: po.MediaStatusError},
			outcome:    services.OutcomeApplied,
			wantStatus: po.MediaStatusError,
			wantLoc:    "/enc/old",
		},
		{
			name:       "completed after error",
			policy:     services.StalePolicyLastWriteWins,
			current:    failed,
			input:      services.ProcessMediaInput{Status: po.MediaStatusCompleted, EncodedLocation: "/enc/new"},
			outcome:    services.OutcomeApplied,
			wantStatus: po.MediaStatusCompleted,
			wantLoc:    "/enc/new",
		},
		{
			name:       "completed with a new location",
			policy:     services.StalePolicyLastWriteWins,
			current:    completed,
			input:      services.ProcessMediaInput{Status: po.MediaStatusCompleted, EncodedLocation: "/enc/new"},
			outcome:    services.OutcomeApplied,
			wantStatus: po.MediaStatusCompleted,
			wantLoc:    "/enc/new",
		},
		{
			name:       "keep terminal ignores error after completed",
			policy:     services.StalePolicyKeepTerminal,
			current:    completed,
			input:      services.ProcessMediaInput{Status: po.MediaStatusError},
			outcome:    services.OutcomeSkipped,
			wantStatus: po.MediaStatusCompleted,
			wantLoc:    "/enc/old",
		},
		{
			name:       "keep terminal ignores completed after error",
			policy:     services.StalePolicyKeepTerminal,
			current:    failed,
			input:      services.ProcessMediaInput{Status: po.MediaStatusCompleted, EncodedLocation: "/enc/new"},
			outcome:    services.OutcomeSkipped,
			wantStatus: po.MediaStatusError,
		},
		{
			name:       "duplicate error",
			policy:     services.StalePolicyLastWriteWins,
			current:    failed,
			input:      services.ProcessMediaInput{Status: po.MediaStatusError},
			outcome:    services.OutcomeUnchanged,
			wantStatus: po.MediaStatusError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, repo := newProcessService(t, tc.policy)
			video := withAudioVideo(t, newVideo(t), tc.current)
			repo.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), video.ID).Return(video, nil)
			if tc.outcome == services.OutcomeApplied {
				repo.EXPECT().Save(gomock.Any(), gomock.Any(), video).Return(nil)
			}

			input := tc.input
			input.VideoID = video.ID
			input.MediaType = po.MediaTypeVideo
			outcome, err := svc.Process(context.Background(), input)
			require.NoError(t, err)
			require.Equal(t, tc.outcome, outcome)

			media, _ := video.AudioVideo(po.MediaTypeVideo)
			require.Equal(t, tc.wantStatus, media.Status)
			require.Equal(t, tc.wantLoc, media.EncodedLocation)
		})
	}
}

func TestProcessMediaService_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	svc, _ := newProcessService(t, "")
	ctx := context.Background()
	videoID := uuid.New()

	_, err := svc.Process(ctx, services.ProcessMediaInput{VideoID: videoID, MediaType: po.MediaTypeBanner, Status: po.MediaStatusError})
	require.ErrorIs(t, err, services.ErrInvalidMediaType)

	_, err = svc.Process(ctx, services.ProcessMediaInput{VideoID: videoID, MediaType: po.MediaTypeVideo, Status: po.MediaStatusCompleted})
	require.ErrorIs(t, err, services.ErrInvalidMediaTransition)

	_, err = svc.Process(ctx, services.ProcessMediaInput{VideoID: videoID, MediaType: po.MediaTypeVideo, Status: po.MediaStatusProcessing})
	require.ErrorIs(t, err, services.ErrInvalidMediaTransition)
}

func TestProcessMediaService_SaveFailure(t *testing.T) {
	t.Parallel()

	svc, repo := newProcessService(t, services.StalePolicyLastWriteWins)
	video := withAudioVideo(t, newVideo(t), po.NewPendingAudioVideoMedia("movie.mp4", "raw", po.MediaTypeVideo))
	repo.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), video.ID).Return(video, nil)
	repo.EXPECT().Save(gomock.Any(), gomock.Any(), video).Return(errors.New("db down"))

	_, err := svc.Process(context.Background(), services.ProcessMediaInput{
		VideoID:   video.ID,
		MediaType: po.MediaTypeVideo,
		Status:    po.MediaStatusError,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), services.ReasonVideoPersistFailed)
}

func TestProcessMediaService_ProcessInTxUsesCallerSession(t *testing.T) {
	t.Parallel()

	svc, repo := newProcessService(t, services.StalePolicyLastWriteWins)
	video := withAudioVideo(t, newVideo(t), po.NewPendingAudioVideoMedia("movie.mp4", "raw/movie", po.MediaTypeVideo))
	ctx := context.Background()
	sess := fakeSession{ctx: ctx}

	repo.EXPECT().GetForUpdate(gomock.Any(), sess, video.ID).Return(video, nil)
	repo.EXPECT().Save(gomock.Any(), sess, video).Return(nil)

	outcome, err := svc.ProcessInTx(ctx, sess, services.ProcessMediaInput{
		VideoID:         video.ID,
		MediaType:       po.MediaTypeVideo,
		Status:          po.MediaStatusCompleted,
		EncodedLocation: "/enc/path",
	})
	require.NoError(t, err)
	require.Equal(t, services.OutcomeApplied, outcome)

	repo.EXPECT().GetForUpdate(gomock.Any(), sess, gomock.Any()).Return(nil, repositories.ErrVideoNotFound)
	_, err = svc.ProcessInTx(ctx, sess, services.ProcessMediaInput{
		VideoID:   uuid.New(),
		MediaType: po.MediaTypeTrailer,
		Status:    po.MediaStatusError,
	})
	require.ErrorIs(t, err, services.ErrVideoNotFound)

	_, err = svc.ProcessInTx(ctx, sess, services.ProcessMediaInput{VideoID: video.ID, MediaType: po.MediaTypeBanner, Status: po.MediaStatusError})
	require.ErrorIs(t, err, services.ErrInvalidMediaType)
}

func TestParseStalePolicy(t *testing.T) {
	t.Parallel()

	policy, err := services.ParseStalePolicy("")
	require.NoError(t, err)
	require.Equal(t, services.StalePolicyLastWriteWins, policy)

	policy, err = services.ParseStalePolicy(" KEEP_TERMINAL ")
	require.NoError(t, err)
	require.Equal(t, services.StalePolicyKeepTerminal, policy)

	_, err = services.ParseStalePolicy("first_wins")
	require.Error(t, err)
}
