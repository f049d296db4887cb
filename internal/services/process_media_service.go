package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// StalePolicy 决定终态槽位收到另一种终态通知时的处理方式。
type StalePolicy string

// 乱序通知策略
const (
	// StalePolicyLastWriteWins 总是应用最新到达的通知。
	StalePolicyLastWriteWins StalePolicy = "last_write_wins"
	// StalePolicyKeepTerminal 保留已有终态，记录并忽略冲突通知。
	StalePolicyKeepTerminal StalePolicy = "keep_terminal"
)

// ParseStalePolicy 解析策略配置，空值回落到 last_write_wins。
func ParseStalePolicy(raw string) (StalePolicy, error) {
	switch StalePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", StalePolicyLastWriteWins:
		return StalePolicyLastWriteWins, nil
	case StalePolicyKeepTerminal:
		return StalePolicyKeepTerminal, nil
	default:
		return "", fmt.Errorf("unknown stale policy %q", raw)
	}
}

// ProcessOutcome 描述一次通知的处理结果。
type ProcessOutcome string

// 处理结果
const (
	OutcomeApplied   ProcessOutcome = "applied"
	OutcomeUnchanged ProcessOutcome = "unchanged"
	OutcomeSkipped   ProcessOutcome = "skipped_stale"
)

// ProcessMediaInput 描述编码器回传的结果。
type ProcessMediaInput struct {
	VideoID         uuid.UUID
	MediaType       po.MediaType
	Status          po.MediaStatus
	EncodedLocation string
}

// ProcessMediaService 将编码结果应用到视频的音视频槽位。
type ProcessMediaService struct {
	repo      VideoRepository
	txManager txmanager.Manager
	policy    StalePolicy
	log       *log.Helper
	metrics   *mediaMetrics
}

// NewProcessMediaService 构造编码结果处理用例。
func NewProcessMediaService(repo VideoRepository, tx txmanager.Manager, policy StalePolicy, logger log.Logger) *ProcessMediaService {
	if policy == "" {
		policy = StalePolicyLastWriteWins
	}
	return &ProcessMediaService{
		repo:      repo,
		txManager: tx,
		policy:    policy,
		log:       log.NewHelper(logger),
		metrics:   newMediaMetrics(),
	}
}

// Process 在单个事务内锁定视频行、迁移槽位状态并保存。
func (s *ProcessMediaService) Process(ctx context.Context, input ProcessMediaInput) (ProcessOutcome, error) {
	if err := validateProcessInput(input); err != nil {
		return "", err
	}
	var outcome ProcessOutcome
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		var applyErr error
		outcome, applyErr = s.apply(txCtx, sess, input)
		return applyErr
	})
	return s.finish(ctx, input, outcome, err)
}

// ProcessInTx 在调用方已开启的事务内应用编码结果，inbox 去重记录与槽位更新一同提交。
func (s *ProcessMediaService) ProcessInTx(ctx context.Context, sess txmanager.Session, input ProcessMediaInput) (ProcessOutcome, error) {
	if err := validateProcessInput(input); err != nil {
		return "", err
	}
	outcome, err := s.apply(ctx, sess, input)
	return s.finish(ctx, input, outcome, err)
}

func validateProcessInput(input ProcessMediaInput) error {
	if !input.MediaType.IsAudioVideo() {
		return ErrInvalidMediaType.WithCause(fmt.Errorf("media type %q carries no encoding state", input.MediaType))
	}
	switch input.Status {
	case po.MediaStatusCompleted:
		if strings.TrimSpace(input.EncodedLocation) == "" {
			return ErrInvalidMediaTransition.WithCause(errors.New("encoded location is required for COMPLETED"))
		}
	case po.MediaStatusError:
	default:
		return ErrInvalidMediaTransition.WithCause(fmt.Errorf("status %q is not a terminal result", input.Status))
	}
	return nil
}

// apply 锁定视频行并写回迁移后的槽位，sess 必须处于事务中。
func (s *ProcessMediaService) apply(ctx context.Context, sess txmanager.Session, input ProcessMediaInput) (ProcessOutcome, error) {
	video, err := s.repo.GetForUpdate(ctx, sess, input.VideoID)
	if err != nil {
		return "", err
	}
	current, ok := video.AudioVideo(input.MediaType)
	if !ok {
		return "", ErrMediaNotFound
	}

	next, outcome, err := s.transition(current, input)
	if err != nil {
		return "", err
	}
	if outcome != OutcomeApplied {
		return outcome, nil
	}
	if err := video.ReplaceSlot(po.NewAudioVideoSlot(next)); err != nil {
		return "", err
	}
	if err := s.repo.Save(ctx, sess, video); err != nil {
		return "", err
	}
	return outcome, nil
}

// finish 统一错误映射、指标与日志。
func (s *ProcessMediaService) finish(ctx context.Context, input ProcessMediaInput, outcome ProcessOutcome, err error) (ProcessOutcome, error) {
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrVideoNotFound):
			return "", ErrVideoNotFound
		case errors.Is(err, ErrMediaNotFound):
			return "", ErrMediaNotFound
		case errors.Is(err, po.ErrInvalidMediaTransition):
			return "", ErrInvalidMediaTransition.WithCause(err)
		}
		return "", collaboratorError(ctx, s.log, ReasonVideoPersistFailed, "apply encoding result", err)
	}

	s.metrics.recordTransition(ctx, string(input.MediaType), string(input.Status), outcome)
	switch outcome {
	case OutcomeSkipped:
		s.log.WithContext(ctx).Warnw("msg", "stale encoding result ignored",
			"video_id", input.VideoID, "media_type", input.MediaType, "status", input.Status, "policy", s.policy)
	case OutcomeUnchanged:
		s.log.WithContext(ctx).Debugf("duplicate encoding result: video_id=%s media_type=%s status=%s", input.VideoID, input.MediaType, input.Status)
	default:
		s.log.WithContext(ctx).Infof("encoding result applied: video_id=%s media_type=%s status=%s", input.VideoID, input.MediaType, input.Status)
	}
	return outcome, nil
}

// transition 计算目标槽位值。重复通知返回 OutcomeUnchanged，不产生写入。
func (s *ProcessMediaService) transition(current po.AudioVideoMedia, input ProcessMediaInput) (po.AudioVideoMedia, ProcessOutcome, error) {
	if input.Status == po.MediaStatusCompleted {
		switch current.Status {
		case po.MediaStatusPending, po.MediaStatusProcessing:
			next, err := current.Complete(input.EncodedLocation)
			return next, OutcomeApplied, err
		case po.MediaStatusCompleted:
			if current.EncodedLocation == input.EncodedLocation {
				return current, OutcomeUnchanged, nil
			}
		}
		if s.policy == StalePolicyKeepTerminal {
			return current, OutcomeSkipped, nil
		}
		next, err := current.Restart().Complete(input.EncodedLocation)
		return next, OutcomeApplied, err
	}

	switch current.Status {
	case po.MediaStatusError:
		return current, OutcomeUnchanged, nil
	case po.MediaStatusCompleted:
		if s.policy == StalePolicyKeepTerminal {
			return current, OutcomeSkipped, nil
		}
	}
	return current.Fail(), OutcomeApplied, nil
}
