// Package po 定义领域实体与持久化对象，由 Repository 与 Service 层共享。
//
// Video 是聚合根，独占其媒体槽位；槽位值对象不可变，状态迁移通过替换槽位完成。
package po

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Rating 表示视频分级。
type Rating string

// 分级常量定义
const (
	RatingER    Rating = "ER"
	RatingL     Rating = "L"
	RatingAge10 Rating = "AGE_10"
	RatingAge12 Rating = "AGE_12"
	RatingAge14 Rating = "AGE_14"
	RatingAge16 Rating = "AGE_16"
	RatingAge18 Rating = "AGE_18"
)

var ratings = []Rating{RatingER, RatingL, RatingAge10, RatingAge12, RatingAge14, RatingAge16, RatingAge18}

// ParseRating 解析分级字面量。
func ParseRating(raw string) (Rating, error) {
	candidate := Rating(strings.ToUpper(strings.TrimSpace(raw)))
	for _, r := range ratings {
		if r == candidate {
			return r, nil
		}
	}
	return "", fmt.Errorf("po: unknown rating %q", raw)
}

const (
	// MaxTitleLength 标题最大字符数。
	MaxTitleLength = 255
	// MinLaunchYear 允许的最早发行年份。
	MinLaunchYear = 1888
)

// ErrInvalidVideo 表示视频元数据违反领域约束。
var ErrInvalidVideo = errors.New("po: invalid video")

// Video 是目录中的视频聚合根。
type Video struct {
	ID          uuid.UUID                // 创建时分配，永不变更
	Title       string                   // 标题
	Description string                   // 简介
	LaunchYear  int                      // 发行年份
	Duration    float64                  // 时长（分钟，两位小数）
	Rating      Rating                   // 分级
	Opened      bool                     // 是否开放
	Published   bool                     // 是否已发布
	Categories  []uuid.UUID              // 分类 ID 集合（升序去重）
	Genres      []uuid.UUID              // 类型 ID 集合（升序去重）
	CastMembers []uuid.UUID              // 演职人员 ID 集合（升序去重）
	Media       map[MediaType]*MediaSlot // 已填充的媒体槽位
	CreatedAt   time.Time                // 创建时间
	UpdatedAt   time.Time                // 最后更新时间
}

// NewVideo 构造不含媒体的视频，并执行领域校验。
func NewVideo(id uuid.UUID, title, description string, launchYear int, duration float64, rating Rating, opened bool, categories, genres, castMembers []uuid.UUID) (*Video, error) {
	v := &Video{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Description: description,
		LaunchYear:  launchYear,
		Duration:    duration,
		Rating:      rating,
		Opened:      opened,
		Categories:  NormalizeIDs(categories),
		Genres:      NormalizeIDs(genres),
		CastMembers: NormalizeIDs(castMembers),
		Media:       map[MediaType]*MediaSlot{},
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate 校验元数据，返回汇总全部问题的 ErrInvalidVideo。
func (v *Video) Validate() error {
	var problems []string
	if v.ID == uuid.Nil {
		problems = append(problems, "id is required")
	}
	if v.Title == "" {
		problems = append(problems, "title cannot be empty")
	}
	if utf8.RuneCountInString(v.Title) > MaxTitleLength {
		problems = append(problems, fmt.Sprintf("title cannot be longer than %d characters", MaxTitleLength))
	}
	if v.LaunchYear < MinLaunchYear {
		problems = append(problems, fmt.Sprintf("launch_year must be >= %d", MinLaunchYear))
	}
	if v.Duration <= 0 {
		problems = append(problems, "duration must be positive")
	}
	if _, err := ParseRating(string(v.Rating)); err != nil {
		problems = append(problems, "rating is invalid")
	}
	for t, slot := range v.Media {
		if slot == nil {
			continue
		}
		if slot.Type != t {
			problems = append(problems, fmt.Sprintf("slot %s is keyed as %s", slot.Type, t))
			continue
		}
		if err := slot.Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrInvalidVideo, strings.Join(problems, "; "))
}

// Slot 返回指定类型的槽位。
func (v *Video) Slot(t MediaType) (*MediaSlot, bool) {
	if v == nil || v.Media == nil {
		return nil, false
	}
	slot, ok := v.Media[t]
	return slot, ok && slot != nil
}

// AudioVideo 返回指定音视频槽位的当前值。
func (v *Video) AudioVideo(t MediaType) (AudioVideoMedia, bool) {
	slot, ok := v.Slot(t)
	if !ok || slot.AudioVideo == nil {
		return AudioVideoMedia{}, false
	}
	return *slot.AudioVideo, true
}

// ReplaceSlot 以覆盖语义替换槽位，旧槽位（无论状态）被丢弃。
func (v *Video) ReplaceSlot(slot MediaSlot) error {
	if err := slot.Validate(); err != nil {
		return err
	}
	if v.Media == nil {
		v.Media = map[MediaType]*MediaSlot{}
	}
	v.Media[slot.Type] = &slot
	return nil
}

// NormalizeIDs 去重并排序，零值被丢弃。
func NormalizeIDs(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return []uuid.UUID{}
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// ReferenceKind 标识目录中可被视频引用的实体类型。
type ReferenceKind string

// 引用实体类型
const (
	ReferenceCategory   ReferenceKind = "categories"
	ReferenceGenre      ReferenceKind = "genres"
	ReferenceCastMember ReferenceKind = "cast_members"
)

// PendingMedia 描述卡在 PENDING 的音视频槽位，供对账任务重发编码请求。
type PendingMedia struct {
	VideoID     uuid.UUID
	MediaType   MediaType
	RawLocation string
	UpdatedAt   time.Time
}
