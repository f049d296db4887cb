// Package encodingresults 消费编码器回传的结果通知，并驱动音视频槽位进入终态。
package encodingresults

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/services"
	"github.com/google/uuid"
)

// reasonMalformed 标记死信中格式错误的通知。
const reasonMalformed = "NOTIFICATION_MALFORMED"

// ErrMalformedNotification 表示通知无法解析，属于永久性失败。
var ErrMalformedNotification = errors.New("encoding results: malformed notification")

// Notification 是编码器发布的结果消息。
type Notification struct {
	Error  string            `json:"error"`
	Video  NotificationVideo `json:"video"`
	Status string            `json:"status"`
}

// NotificationVideo 描述被编码的资源。
type NotificationVideo struct {
	ResourceID         string `json:"resource_id"`
	EncodedVideoFolder string `json:"encoded_video_folder"`
}

// Result 是解码后的编码结果。
type Result struct {
	Input        services.ProcessMediaInput
	EncoderError string // 编码器附带的失败原因，仅用于日志
	Raw          []byte
}

// EventType 返回写入 inbox 的事件类型。
func (r *Result) EventType() string {
	return "media.encoding." + strings.ToLower(string(r.Input.Status))
}

// Decode 解析通知并转换为用例输入。在访问仓储前完成全部格式校验。
func Decode(data []byte) (*Result, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrMalformedNotification, err)
	}
	input, err := n.toInput()
	if err != nil {
		return nil, err
	}
	return &Result{
		Input:        input,
		EncoderError: strings.TrimSpace(n.Error),
		Raw:          data,
	}, nil
}

func (n Notification) toInput() (services.ProcessMediaInput, error) {
	resourceID := strings.TrimSpace(n.Video.ResourceID)
	rawID, rawType, ok := strings.Cut(resourceID, ".")
	if !ok {
		return services.ProcessMediaInput{}, fmt.Errorf("%w: resource_id %q lacks media type", ErrMalformedNotification, resourceID)
	}
	videoID, err := uuid.Parse(rawID)
	if err != nil {
		return services.ProcessMediaInput{}, fmt.Errorf("%w: resource_id %q: %v", ErrMalformedNotification, resourceID, err)
	}
	mediaType, err := po.ParseMediaType(rawType)
	if err != nil {
		return services.ProcessMediaInput{}, fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}
	status, err := po.ParseMediaStatus(n.Status)
	if err != nil {
		return services.ProcessMediaInput{}, fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}
	if !status.IsTerminal() {
		return services.ProcessMediaInput{}, fmt.Errorf("%w: status %s is not a result", ErrMalformedNotification, status)
	}
	folder := strings.TrimSpace(n.Video.EncodedVideoFolder)
	if status == po.MediaStatusCompleted && folder == "" {
		return services.ProcessMediaInput{}, fmt.Errorf("%w: encoded_video_folder is required for COMPLETED", ErrMalformedNotification)
	}
	return services.ProcessMediaInput{
		VideoID:         videoID,
		MediaType:       mediaType,
		Status:          status,
		EncodedLocation: folder,
	}, nil
}

// resultDecoder 实现 inbox.Decoder。
type resultDecoder struct{}

func (resultDecoder) Decode(data []byte) (*Result, error) {
	return Decode(data)
}
