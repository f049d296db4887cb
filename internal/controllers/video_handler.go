package controllers

import (
	"context"
	"net/http"

	"github.com/bionicotaku/lingo-services-media/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-media/internal/models/vo"
	"github.com/bionicotaku/lingo-services-media/internal/services"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
)

// HTTP operation 名称，用于日志与 JWT 白名单。
const (
	OperationCreateVideo = "/media.v1.VideoService/CreateVideo"
	OperationGetVideo    = "/media.v1.VideoService/GetVideo"
	OperationListVideos  = "/media.v1.VideoService/ListVideos"
	OperationDeleteVideo = "/media.v1.VideoService/DeleteVideo"
)

// ReasonVideoIDInvalid 表示路径中的视频 ID 不是合法 UUID。
const ReasonVideoIDInvalid = "VIDEO_ID_INVALID"

// VideoCatalog 抽象视频目录用例。
type VideoCatalog interface {
	CreateVideo(ctx context.Context, input services.CreateVideoInput) (*vo.VideoCreated, error)
	GetVideo(ctx context.Context, videoID uuid.UUID) (*vo.VideoDetail, error)
	ListVideos(ctx context.Context) ([]*vo.VideoDetail, error)
	DeleteVideo(ctx context.Context, videoID uuid.UUID) error
}

// VideoHandler 暴露视频目录的 HTTP 接口。
type VideoHandler struct {
	*BaseHandler
	catalog VideoCatalog
	log     *log.Helper
}

// NewVideoHandler 构造 VideoHandler。
func NewVideoHandler(catalog VideoCatalog, base *BaseHandler, logger log.Logger) *VideoHandler {
	return &VideoHandler{
		BaseHandler: base,
		catalog:     catalog,
		log:         log.NewHelper(logger),
	}
}

// Register 将路由挂载到 HTTP Server。
func (h *VideoHandler) Register(srv *khttp.Server) {
	r := srv.Route("/v1")
	r.POST("/videos", h.CreateVideo)
	r.GET("/videos", h.ListVideos)
	r.GET("/videos/{video_id}", h.GetVideo)
	r.DELETE("/videos/{video_id}", h.DeleteVideo)
}

// CreateVideo 处理 POST /v1/videos。
func (h *VideoHandler) CreateVideo(ctx khttp.Context) error {
	khttp.SetOperation(ctx, OperationCreateVideo)
	var req dto.CreateVideoRequest
	if err := ctx.Bind(&req); err != nil {
		return kerrors.BadRequest(dto.ReasonRequestInvalid, "malformed request body").WithCause(err)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	handler := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		c, cancel := h.WithTimeout(c, HandlerTypeCommand)
		defer cancel()
		return h.catalog.CreateVideo(c, req.ToInput())
	})
	out, err := handler(ctx, &req)
	if err != nil {
		return err
	}
	return ctx.Result(http.StatusCreated, out)
}

// GetVideo 处理 GET /v1/videos/{video_id}。
func (h *VideoHandler) GetVideo(ctx khttp.Context) error {
	khttp.SetOperation(ctx, OperationGetVideo)
	videoID, err := pathVideoID(ctx)
	if err != nil {
		return err
	}
	handler := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		c, cancel := h.WithTimeout(c, HandlerTypeQuery)
		defer cancel()
		return h.catalog.GetVideo(c, videoID)
	})
	out, err := handler(ctx, videoID)
	if err != nil {
		return err
	}
	return ctx.Result(http.StatusOK, out)
}

// ListVideos 处理 GET /v1/videos。
func (h *VideoHandler) ListVideos(ctx khttp.Context) error {
	khttp.SetOperation(ctx, OperationListVideos)
	handler := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		c, cancel := h.WithTimeout(c, HandlerTypeQuery)
		defer cancel()
		items, err := h.catalog.ListVideos(c)
		if err != nil {
			return nil, err
		}
		return &dto.VideoListResponse[*vo.VideoDetail]{Items: items}, nil
	})
	out, err := handler(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(http.StatusOK, out)
}

// DeleteVideo 处理 DELETE /v1/videos/{video_id}。
func (h *VideoHandler) DeleteVideo(ctx khttp.Context) error {
	khttp.SetOperation(ctx, OperationDeleteVideo)
	videoID, err := pathVideoID(ctx)
	if err != nil {
		return err
	}
	handler := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		c, cancel := h.WithTimeout(c, HandlerTypeCommand)
		defer cancel()
		return nil, h.catalog.DeleteVideo(c, videoID)
	})
	if _, err := handler(ctx, videoID); err != nil {
		return err
	}
	ctx.Response().WriteHeader(http.StatusNoContent)
	return nil
}

func pathVideoID(ctx khttp.Context) (uuid.UUID, error) {
	raw := ctx.Vars().Get("video_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, kerrors.BadRequest(ReasonVideoIDInvalid, "video_id must be a uuid").WithCause(err)
	}
	return id, nil
}
