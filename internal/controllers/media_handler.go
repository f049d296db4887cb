package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/bionicotaku/lingo-services-media/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-media/internal/models/vo"
	"github.com/bionicotaku/lingo-services-media/internal/services"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// OperationUploadMedia 是上传接口的 operation 名称。
const OperationUploadMedia = "/media.v1.MediaService/UploadMedia"

const (
	// DefaultMaxUploadBytes 单次上传的默认大小上限。
	DefaultMaxUploadBytes int64 = 512 << 20
	multipartMemory       int64 = 32 << 20

	reasonUploadTooLarge   = "MEDIA_UPLOAD_TOO_LARGE"
	reasonUserInfoInvalid  = "USERINFO_INVALID"
	formFieldFile          = "file"
	formFieldMediaType     = "media_type"
	headerContentType      = "Content-Type"
	defaultContentTypeName = "application/octet-stream"
)

// MediaUploader 抽象上传用例。
type MediaUploader interface {
	Upload(ctx context.Context, input services.UploadVideoInput) (*vo.MediaUploaded, error)
}

// UploadLimits 约束单次上传的请求体。
type UploadLimits struct {
	MaxBytes int64
}

// MediaHandler 暴露媒体上传的 HTTP 接口。
type MediaHandler struct {
	*BaseHandler
	uploader MediaUploader
	maxBytes int64
	log      *log.Helper
}

// NewMediaHandler 构造 MediaHandler。limits.MaxBytes 非正时使用 DefaultMaxUploadBytes。
func NewMediaHandler(uploader MediaUploader, base *BaseHandler, limits UploadLimits, logger log.Logger) *MediaHandler {
	maxBytes := limits.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &MediaHandler{
		BaseHandler: base,
		uploader:    uploader,
		maxBytes:    maxBytes,
		log:         log.NewHelper(logger),
	}
}

// Register 将路由挂载到 HTTP Server。
func (h *MediaHandler) Register(srv *khttp.Server) {
	srv.Route("/v1").POST("/videos/{video_id}/media", h.UploadMedia)
}

// UploadMedia 处理 multipart 上传：file 为必填，media_type 缺省为 VIDEO。
func (h *MediaHandler) UploadMedia(ctx khttp.Context) error {
	khttp.SetOperation(ctx, OperationUploadMedia)

	meta := h.ExtractMetadata(ctx)
	if meta.InvalidUserInfo {
		return kerrors.Unauthorized(reasonUserInfoInvalid, "invalid gateway user info")
	}

	// 表单在中间件链内解析，JWT 等校验先于读取请求体执行。
	var input services.UploadVideoInput
	handler := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		req, err := h.readForm(ctx)
		if err != nil {
			return nil, err
		}
		if err := dto.Validate(req); err != nil {
			return nil, err
		}
		if input, err = req.ToInput(); err != nil {
			return nil, kerrors.BadRequest(services.ReasonMediaTypeInvalid, err.Error()).WithCause(err)
		}
		c = InjectHandlerMetadata(c, meta)
		c, cancel := h.WithTimeout(c, HandlerTypeUpload)
		defer cancel()
		return h.uploader.Upload(c, input)
	})
	out, err := handler(ctx, nil)
	if err != nil {
		return err
	}
	h.log.WithContext(ctx).Infow(
		"msg", "media uploaded",
		"video_id", input.VideoID,
		"media_type", input.MediaType,
		"size", len(input.Content),
		"user_id", meta.UserID,
		"idempotency_key", meta.IdempotencyKey,
	)
	return ctx.Result(http.StatusCreated, out)
}

func (h *MediaHandler) readForm(ctx khttp.Context) (*dto.UploadMediaRequest, error) {
	r := ctx.Request()
	r.Body = http.MaxBytesReader(ctx.Response(), r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, kerrors.New(http.StatusRequestEntityTooLarge, reasonUploadTooLarge, "upload exceeds size limit")
		}
		return nil, kerrors.BadRequest(services.ReasonMediaUploadInvalid, "multipart form expected").WithCause(err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		return nil, kerrors.BadRequest(services.ReasonMediaUploadInvalid, "file field is required").WithCause(err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, kerrors.BadRequest(services.ReasonMediaUploadInvalid, "read upload failed").WithCause(err)
	}
	contentType := header.Header.Get(headerContentType)
	if contentType == "" {
		contentType = defaultContentTypeName
	}
	return &dto.UploadMediaRequest{
		VideoID:     ctx.Vars().Get("video_id"),
		MediaType:   r.FormValue(formFieldMediaType),
		FileName:    header.Filename,
		ContentType: contentType,
		Content:     content,
	}, nil
}
