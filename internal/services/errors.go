package services

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// 错误原因常量，作为 kratos Error 的 Reason 对外暴露。
const (
	ReasonVideoNotFound           = "VIDEO_NOT_FOUND"
	ReasonVideoInvalid            = "VIDEO_INVALID"
	ReasonRelatedEntitiesNotFound = "RELATED_ENTITIES_NOT_FOUND"
	ReasonMediaTypeInvalid        = "MEDIA_TYPE_INVALID"
	ReasonMediaNotFound           = "MEDIA_NOT_FOUND"
	ReasonMediaTransitionInvalid  = "MEDIA_TRANSITION_INVALID"
	ReasonMediaUploadInvalid      = "MEDIA_UPLOAD_INVALID"
	ReasonMediaStoreFailed        = "MEDIA_STORE_FAILED"
	ReasonMediaPublishFailed      = "MEDIA_PUBLISH_FAILED"
	ReasonVideoPersistFailed      = "VIDEO_PERSIST_FAILED"
	ReasonVideoQueryFailed        = "VIDEO_QUERY_FAILED"
	ReasonTimeout                 = "OPERATION_TIMEOUT"
)

var (
	// ErrVideoNotFound 表示目标视频不存在。
	ErrVideoNotFound = errors.NotFound(ReasonVideoNotFound, "video not found")
	// ErrInvalidVideo 表示视频元数据违反领域约束。
	ErrInvalidVideo = errors.BadRequest(ReasonVideoInvalid, "invalid video")
	// ErrRelatedEntitiesNotFound 表示引用的分类、类型或演职人员不存在。
	ErrRelatedEntitiesNotFound = errors.BadRequest(ReasonRelatedEntitiesNotFound, "related entities not found")
	// ErrInvalidMediaType 表示媒体类型不适用于当前操作。
	ErrInvalidMediaType = errors.BadRequest(ReasonMediaTypeInvalid, "invalid media type")
	// ErrMediaNotFound 表示视频上没有对应的媒体槽位。
	ErrMediaNotFound = errors.NotFound(ReasonMediaNotFound, "media not found")
	// ErrInvalidMediaTransition 表示通知状态无法应用到当前槽位。
	ErrInvalidMediaTransition = errors.Conflict(ReasonMediaTransitionInvalid, "invalid media transition")
	// ErrInvalidUpload 表示上传请求缺少必要内容。
	ErrInvalidUpload = errors.BadRequest(ReasonMediaUploadInvalid, "invalid upload")
)

// collaboratorError 将协作方（存储、仓储、发布器）的失败映射为 kratos 错误，原始错误保留为 cause。
func collaboratorError(ctx context.Context, logger *log.Helper, reason, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		logger.WithContext(ctx).Warnf("%s timeout: err=%v", op, err)
		return errors.GatewayTimeout(ReasonTimeout, op+" timeout").WithCause(err)
	}
	logger.WithContext(ctx).Errorf("%s failed: err=%v", op, err)
	return errors.InternalServer(reason, "failed to "+op).WithCause(fmt.Errorf("%s: %w", op, err))
}
