// Package dto 定义 HTTP 请求体结构及其到 Service 输入的转换。
package dto

import (
	"github.com/bionicotaku/lingo-services-media/internal/services"

	"github.com/google/uuid"
)

// CreateVideoRequest 对应 POST /v1/videos 的请求体。
// 这里只校验结构，业务约束（标题长度、年份、分级）由领域层统一汇总。
type CreateVideoRequest struct {
	Title       string   `json:"title" validate:"max=1024"`
	Description string   `json:"description" validate:"max=4000"`
	LaunchYear  int      `json:"launch_year" validate:"gte=0"`
	Duration    float64  `json:"duration" validate:"gte=0"`
	Rating      string   `json:"rating" validate:"max=16"`
	Opened      bool     `json:"opened"`
	Categories  []string `json:"categories" validate:"dive,uuid"`
	Genres      []string `json:"genres" validate:"dive,uuid"`
	CastMembers []string `json:"cast_members" validate:"dive,uuid"`
}

// ToInput 转换为 Service 输入；ID 已由 validator 保证格式正确。
func (r CreateVideoRequest) ToInput() services.CreateVideoInput {
	return services.CreateVideoInput{
		Title:       r.Title,
		Description: r.Description,
		LaunchYear:  r.LaunchYear,
		Duration:    r.Duration,
		Rating:      r.Rating,
		Opened:      r.Opened,
		Categories:  parseIDs(r.Categories),
		Genres:      parseIDs(r.Genres),
		CastMembers: parseIDs(r.CastMembers),
	}
}

// VideoListResponse 包装列表结果。
type VideoListResponse[T any] struct {
	Items []T `json:"items"`
}

func parseIDs(raw []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
