package services

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	outboxevents "github.com/bionicotaku/lingo-services-media/internal/models/outbox_events"
	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/models/vo"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// UploadVideoInput 描述一次媒体上传。
type UploadVideoInput struct {
	VideoID     uuid.UUID
	MediaType   po.MediaType
	FileName    string
	Content     []byte
	ContentType string
}

// UploadVideoService 负责把原始媒体写入存储、挂到视频槽位并发出编码请求。
//
// 副作用顺序固定：存储 → 持久化 → 发布。持久化失败不发布；发布失败时槽位保持 PENDING，
// 由 pending_media 对账任务补发。
type UploadVideoService struct {
	repo      VideoRepository
	store     BlobStore
	publisher MediaEventPublisher
	txManager txmanager.Manager
	log       *log.Helper
	metrics   *mediaMetrics
	now       func() time.Time
}

// NewUploadVideoService 构造上传用例。
func NewUploadVideoService(repo VideoRepository, store BlobStore, publisher MediaEventPublisher, tx txmanager.Manager, logger log.Logger) *UploadVideoService {
	return &UploadVideoService{
		repo:      repo,
		store:     store,
		publisher: publisher,
		txManager: tx,
		log:       log.NewHelper(logger),
		metrics:   newMediaMetrics(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Upload 执行上传用例。
func (s *UploadVideoService) Upload(ctx context.Context, input UploadVideoInput) (*vo.MediaUploaded, error) {
	result, err := s.upload(ctx, input)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	s.metrics.recordUpload(ctx, string(input.MediaType), len(input.Content), outcome)
	return result, err
}

func (s *UploadVideoService) upload(ctx context.Context, input UploadVideoInput) (*vo.MediaUploaded, error) {
	if input.VideoID == uuid.Nil {
		return nil, ErrInvalidUpload.WithCause(errors.New("video_id is required"))
	}
	if !input.MediaType.IsAudioVideo() && !input.MediaType.IsImage() {
		return nil, ErrInvalidMediaType.WithCause(po.ErrUnknownMediaType)
	}
	if len(input.Content) == 0 {
		return nil, ErrInvalidUpload.WithCause(errors.New("file content is empty"))
	}
	fileName := sanitizeFileName(input.FileName)

	if _, err := s.repo.GetByID(ctx, nil, input.VideoID); err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, collaboratorError(ctx, s.log, ReasonVideoQueryFailed, "load video", err)
	}

	location, err := s.store.Store(ctx, objectKey(input.VideoID, input.MediaType, fileName), input.Content, input.ContentType)
	if err != nil {
		return nil, collaboratorError(ctx, s.log, ReasonMediaStoreFailed, "store media", err)
	}

	var slot po.MediaSlot
	if input.MediaType.IsAudioVideo() {
		slot = po.NewAudioVideoSlot(po.NewPendingAudioVideoMedia(fileName, location, input.MediaType))
	} else {
		slot = po.NewImageSlot(input.MediaType, po.ImageMedia{Name: fileName, RawLocation: location})
	}

	err = s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		video, err := s.repo.GetForUpdate(txCtx, sess, input.VideoID)
		if err != nil {
			return err
		}
		if err := video.ReplaceSlot(slot); err != nil {
			return err
		}
		return s.repo.Save(txCtx, sess, video)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, collaboratorError(ctx, s.log, ReasonVideoPersistFailed, "save video", err)
	}

	result := &vo.MediaUploaded{
		VideoID:     input.VideoID,
		MediaType:   string(input.MediaType),
		RawLocation: location,
	}
	if slot.AudioVideo == nil {
		s.log.WithContext(ctx).Infof("image uploaded: video_id=%s media_type=%s location=%s", input.VideoID, input.MediaType, location)
		return result, nil
	}
	result.Status = string(po.MediaStatusPending)

	event, err := outboxevents.NewAudioVideoMediaUploadedEvent(input.VideoID, input.MediaType, location, uuid.New(), s.now())
	if err != nil {
		return nil, collaboratorError(ctx, s.log, ReasonMediaPublishFailed, "build encode request", err)
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithContext(ctx).Warnw("msg", "encode request not published, slot stays pending",
			"video_id", input.VideoID, "media_type", input.MediaType, "event_id", event.EventID)
		return nil, collaboratorError(ctx, s.log, ReasonMediaPublishFailed, "publish encode request", err)
	}

	s.log.WithContext(ctx).Infof("media uploaded: video_id=%s media_type=%s event_id=%s", input.VideoID, input.MediaType, event.EventID)
	return result, nil
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	switch name {
	case "", ".", "/", "..":
		return "upload"
	}
	return name
}

// objectKey 生成默认对象路径 videos/<video_id>/<media_type>/<file_name>。
func objectKey(videoID uuid.UUID, mediaType po.MediaType, fileName string) string {
	return path.Join("videos", videoID.String(), string(mediaType), fileName)
}
