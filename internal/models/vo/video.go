// Package vo 定义视图对象（View Objects），由 Service 层返回、Controller 层直接序列化。
package vo

import (
	"time"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/google/uuid"
)

// VideoCreated 封装创建视频的响应。
type VideoCreated struct {
	ID uuid.UUID `json:"id"`
}

// MediaView 是单个媒体槽位的对外视图。
type MediaView struct {
	Name            string `json:"name"`
	RawLocation     string `json:"raw_location"`
	EncodedLocation string `json:"encoded_location,omitempty"`
	Status          string `json:"status,omitempty"`
}

// VideoDetail 是视频聚合的对外视图。
type VideoDetail struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	LaunchYear  int                  `json:"launch_year"`
	Duration    float64              `json:"duration"`
	Rating      string               `json:"rating"`
	Opened      bool                 `json:"opened"`
	Published   bool                 `json:"published"`
	Categories  []uuid.UUID          `json:"categories"`
	Genres      []uuid.UUID          `json:"genres"`
	CastMembers []uuid.UUID          `json:"cast_members"`
	Media       map[string]MediaView `json:"media"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// MediaUploaded 描述上传结果。
type MediaUploaded struct {
	VideoID     uuid.UUID `json:"video_id"`
	MediaType   string    `json:"media_type"`
	RawLocation string    `json:"raw_location"`
	Status      string    `json:"status,omitempty"`
}

// NewVideoDetail 将聚合转换为视图。
func NewVideoDetail(video *po.Video) *VideoDetail {
	if video == nil {
		return nil
	}
	detail := &VideoDetail{
		ID:          video.ID,
		Title:       video.Title,
		Description: video.Description,
		LaunchYear:  video.LaunchYear,
		Duration:    video.Duration,
		Rating:      string(video.Rating),
		Opened:      video.Opened,
		Published:   video.Published,
		Categories:  nonNilIDs(video.Categories),
		Genres:      nonNilIDs(video.Genres),
		CastMembers: nonNilIDs(video.CastMembers),
		Media:       make(map[string]MediaView, len(video.Media)),
		CreatedAt:   video.CreatedAt,
		UpdatedAt:   video.UpdatedAt,
	}
	for _, t := range po.MediaTypes {
		slot, ok := video.Slot(t)
		if !ok {
			continue
		}
		detail.Media[string(t)] = newMediaView(slot)
	}
	return detail
}

// NewVideoDetails 批量转换。
func NewVideoDetails(videos []*po.Video) []*VideoDetail {
	out := make([]*VideoDetail, 0, len(videos))
	for _, v := range videos {
		if d := NewVideoDetail(v); d != nil {
			out = append(out, d)
		}
	}
	return out
}

func newMediaView(slot *po.MediaSlot) MediaView {
	switch {
	case slot.AudioVideo != nil:
		return MediaView{
			Name:            slot.AudioVideo.Name,
			RawLocation:     slot.AudioVideo.RawLocation,
			EncodedLocation: slot.AudioVideo.EncodedLocation,
			Status:          string(slot.AudioVideo.Status),
		}
	case slot.Image != nil:
		return MediaView{Name: slot.Image.Name, RawLocation: slot.Image.RawLocation}
	default:
		return MediaView{}
	}
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
