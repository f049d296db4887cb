package dto

import (
	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/services"

	"github.com/google/uuid"
)

// UploadMediaRequest 由 multipart 表单解析而来。
type UploadMediaRequest struct {
	VideoID     string `validate:"required,uuid"`
	MediaType   string `validate:"omitempty,max=32"`
	FileName    string `validate:"required,max=255"`
	ContentType string
	Content     []byte `validate:"required,min=1"`
}

// ToInput 转换为 Service 输入，media_type 缺省为 VIDEO，大小写不敏感。
func (r UploadMediaRequest) ToInput() (services.UploadVideoInput, error) {
	videoID, err := uuid.Parse(r.VideoID)
	if err != nil {
		return services.UploadVideoInput{}, err
	}
	mediaType := po.MediaTypeVideo
	if r.MediaType != "" {
		if mediaType, err = po.ParseMediaType(r.MediaType); err != nil {
			return services.UploadVideoInput{}, err
		}
	}
	return services.UploadVideoInput{
		VideoID:     videoID,
		MediaType:   mediaType,
		FileName:    r.FileName,
		Content:     r.Content,
		ContentType: r.ContentType,
	}, nil
}
