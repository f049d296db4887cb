package po

import (
	"errors"
	"fmt"
	"strings"
)

// MediaType 标识媒体资产挂载在视频上的槽位。
// 对应数据库中 media.videos 的各组媒体列。
type MediaType string

// 媒体类型常量定义
const (
	MediaTypeVideo         MediaType = "VIDEO"          // 正片
	MediaTypeTrailer       MediaType = "TRAILER"        // 预告片
	MediaTypeBanner        MediaType = "BANNER"         // 横幅图
	MediaTypeThumbnail     MediaType = "THUMBNAIL"      // 缩略图
	MediaTypeThumbnailHalf MediaType = "THUMBNAIL_HALF" // 半幅缩略图
)

// MediaTypes 按固定顺序列出全部槽位。
var MediaTypes = []MediaType{
	MediaTypeVideo,
	MediaTypeTrailer,
	MediaTypeBanner,
	MediaTypeThumbnail,
	MediaTypeThumbnailHalf,
}

// MediaStatus 表示音视频资产的编码流水线状态。图片资产没有状态。
type MediaStatus string

// 编码状态常量定义
const (
	MediaStatusPending    MediaStatus = "PENDING"    // 原始文件已落盘，等待编码
	MediaStatusProcessing MediaStatus = "PROCESSING" // 编码进行中
	MediaStatusCompleted  MediaStatus = "COMPLETED"  // 编码完成
	MediaStatusError      MediaStatus = "ERROR"      // 编码失败
)

var (
	// ErrUnknownMediaType 表示无法识别的媒体类型字面量。
	ErrUnknownMediaType = errors.New("po: unknown media type")
	// ErrUnknownMediaStatus 表示无法识别的编码状态字面量。
	ErrUnknownMediaStatus = errors.New("po: unknown media status")
	// ErrInvalidMediaTransition 表示当前状态不允许执行该状态迁移。
	ErrInvalidMediaTransition = errors.New("po: invalid media transition")
)

// ParseMediaType 解析媒体类型，大小写不敏感。
func ParseMediaType(raw string) (MediaType, error) {
	candidate := MediaType(strings.ToUpper(strings.TrimSpace(raw)))
	for _, t := range MediaTypes {
		if t == candidate {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMediaType, raw)
}

// IsAudioVideo 判断该槽位是否承载需要编码的音视频资产。
func (t MediaType) IsAudioVideo() bool {
	return t == MediaTypeVideo || t == MediaTypeTrailer
}

// IsImage 判断该槽位是否承载图片资产。
func (t MediaType) IsImage() bool {
	return t == MediaTypeBanner || t == MediaTypeThumbnail || t == MediaTypeThumbnailHalf
}

// ParseMediaStatus 解析编码状态，大小写不敏感。
func ParseMediaStatus(raw string) (MediaStatus, error) {
	switch MediaStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case MediaStatusPending:
		return MediaStatusPending, nil
	case MediaStatusProcessing:
		return MediaStatusProcessing, nil
	case MediaStatusCompleted:
		return MediaStatusCompleted, nil
	case MediaStatusError:
		return MediaStatusError, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMediaStatus, raw)
	}
}

// IsTerminal 判断状态是否为终态。
func (s MediaStatus) IsTerminal() bool {
	return s == MediaStatusCompleted || s == MediaStatusError
}

// ImageMedia 描述图片资产，创建后只会被整体替换。
type ImageMedia struct {
	Name        string // 原始文件名
	RawLocation string // Blob Store 返回的位置句柄
}

// AudioVideoMedia 描述音视频资产及其编码进度。
//
// 值语义：所有状态迁移都返回新值，调用方通过替换槽位生效。
type AudioVideoMedia struct {
	Name            string      // 原始文件名
	RawLocation     string      // 原始文件位置
	EncodedLocation string      // 编码产物目录，仅 COMPLETED 时非空
	Status          MediaStatus // 编码状态
	MediaType       MediaType   // 所属槽位
}

// NewPendingAudioVideoMedia 构造刚上传、等待编码的音视频资产。
func NewPendingAudioVideoMedia(name, rawLocation string, mediaType MediaType) AudioVideoMedia {
	return AudioVideoMedia{
		Name:        name,
		RawLocation: rawLocation,
		Status:      MediaStatusPending,
		MediaType:   mediaType,
	}
}

// Complete 标记编码完成并记录产物位置。
//
// 仅允许从 PENDING/PROCESSING 迁移；若已是 COMPLETED 且位置一致则原样返回。
func (m AudioVideoMedia) Complete(encodedLocation string) (AudioVideoMedia, error) {
	switch m.Status {
	case MediaStatusPending, MediaStatusProcessing:
		next := m
		next.Status = MediaStatusCompleted
		next.EncodedLocation = encodedLocation
		return next, nil
	case MediaStatusCompleted:
		if m.EncodedLocation == encodedLocation {
			return m, nil
		}
	}
	return m, fmt.Errorf("%w: complete from %s", ErrInvalidMediaTransition, m.Status)
}

// Fail 标记编码失败，EncodedLocation 保持不变。
func (m AudioVideoMedia) Fail() AudioVideoMedia {
	next := m
	next.Status = MediaStatusError
	return next
}

// Restart 让资产重新进入编码流程。
func (m AudioVideoMedia) Restart() AudioVideoMedia {
	next := m
	next.Status = MediaStatusProcessing
	next.EncodedLocation = ""
	return next
}

// MediaSlot 是视频上单个槽位的带标签变体，AudioVideo 与 Image 有且仅有一个非空。
type MediaSlot struct {
	Type       MediaType
	AudioVideo *AudioVideoMedia
	Image      *ImageMedia
}

// NewAudioVideoSlot 构造音视频槽位。
func NewAudioVideoSlot(media AudioVideoMedia) MediaSlot {
	return MediaSlot{Type: media.MediaType, AudioVideo: &media}
}

// NewImageSlot 构造图片槽位。
func NewImageSlot(mediaType MediaType, media ImageMedia) MediaSlot {
	return MediaSlot{Type: mediaType, Image: &media}
}

// Validate 校验槽位标签与载荷一致。
func (s MediaSlot) Validate() error {
	switch {
	case s.Type.IsAudioVideo():
		if s.AudioVideo == nil || s.Image != nil {
			return fmt.Errorf("po: slot %s requires audio/video payload", s.Type)
		}
		if s.AudioVideo.MediaType != s.Type {
			return fmt.Errorf("po: slot %s carries %s payload", s.Type, s.AudioVideo.MediaType)
		}
	case s.Type.IsImage():
		if s.Image == nil || s.AudioVideo != nil {
			return fmt.Errorf("po: slot %s requires image payload", s.Type)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMediaType, s.Type)
	}
	return nil
}

// RawLocation 返回槽位的原始文件位置。
func (s MediaSlot) RawLocation() string {
	switch {
	case s.AudioVideo != nil:
		return s.AudioVideo.RawLocation
	case s.Image != nil:
		return s.Image.RawLocation
	default:
		return ""
	}
}
