package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/models/vo"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// CreateVideoInput 描述新建视频所需的元数据。
type CreateVideoInput struct {
	Title       string
	Description string
	LaunchYear  int
	Duration    float64
	Rating      string
	Opened      bool
	Categories  []uuid.UUID
	Genres      []uuid.UUID
	CastMembers []uuid.UUID
}

// VideoCatalogService 提供视频的创建、查询与删除。
type VideoCatalogService struct {
	repo       VideoRepository
	references ReferenceChecker
	txManager  txmanager.Manager
	log        *log.Helper
}

// NewVideoCatalogService 构造目录用例。
func NewVideoCatalogService(repo VideoRepository, references ReferenceChecker, tx txmanager.Manager, logger log.Logger) *VideoCatalogService {
	return &VideoCatalogService{
		repo:       repo,
		references: references,
		txManager:  tx,
		log:        log.NewHelper(logger),
	}
}

// CreateVideo 校验元数据与引用实体后创建不含媒体的视频。
func (s *VideoCatalogService) CreateVideo(ctx context.Context, input CreateVideoInput) (*vo.VideoCreated, error) {
	rating, err := po.ParseRating(input.Rating)
	if err != nil {
		rating = po.Rating(input.Rating)
	}
	video, err := po.NewVideo(uuid.New(), input.Title, input.Description, input.LaunchYear, input.Duration, rating, input.Opened,
		input.Categories, input.Genres, input.CastMembers)
	if err != nil {
		return nil, ErrInvalidVideo.WithCause(err)
	}

	err = s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		if err := s.checkReferences(txCtx, sess, video); err != nil {
			return err
		}
		return s.repo.Save(txCtx, sess, video)
	})
	if err != nil {
		if errors.Is(err, ErrRelatedEntitiesNotFound) {
			return nil, err
		}
		return nil, collaboratorError(ctx, s.log, ReasonVideoPersistFailed, "create video", err)
	}

	s.log.WithContext(ctx).Infof("CreateVideo: video_id=%s title=%s", video.ID, video.Title)
	return &vo.VideoCreated{ID: video.ID}, nil
}

func (s *VideoCatalogService) checkReferences(ctx context.Context, sess txmanager.Session, video *po.Video) error {
	sets := []struct {
		kind po.ReferenceKind
		ids  []uuid.UUID
	}{
		{po.ReferenceCategory, video.Categories},
		{po.ReferenceGenre, video.Genres},
		{po.ReferenceCastMember, video.CastMembers},
	}

	var problems []string
	for _, set := range sets {
		missing, err := s.references.MissingIDs(ctx, sess, set.kind, set.ids)
		if err != nil {
			return fmt.Errorf("check %s: %w", set.kind, err)
		}
		if len(missing) == 0 {
			continue
		}
		ids := make([]string, 0, len(missing))
		for _, id := range missing {
			ids = append(ids, id.String())
		}
		problems = append(problems, fmt.Sprintf("%s not found: %s", set.kind, strings.Join(ids, ", ")))
	}
	if len(problems) > 0 {
		return ErrRelatedEntitiesNotFound.WithMetadata(map[string]string{"detail": strings.Join(problems, "; ")})
	}
	return nil
}

// GetVideo 返回单个视频详情。
func (s *VideoCatalogService) GetVideo(ctx context.Context, videoID uuid.UUID) (*vo.VideoDetail, error) {
	video, err := s.repo.GetByID(ctx, nil, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, collaboratorError(ctx, s.log, ReasonVideoQueryFailed, "get video", err)
	}
	return vo.NewVideoDetail(video), nil
}

// ListVideos 返回全部视频。
func (s *VideoCatalogService) ListVideos(ctx context.Context) ([]*vo.VideoDetail, error) {
	videos, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, collaboratorError(ctx, s.log, ReasonVideoQueryFailed, "list videos", err)
	}
	return vo.NewVideoDetails(videos), nil
}

// DeleteVideo 删除视频。已上传的原始文件不做清理。
func (s *VideoCatalogService) DeleteVideo(ctx context.Context, videoID uuid.UUID) error {
	if err := s.repo.Delete(ctx, nil, videoID); err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return ErrVideoNotFound
		}
		return collaboratorError(ctx, s.log, ReasonVideoPersistFailed, "delete video", err)
	}
	s.log.WithContext(ctx).Infof("DeleteVideo: video_id=%s", videoID)
	return nil
}
