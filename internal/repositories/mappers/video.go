// Package mappers 提供仓储层的模型转换工具，将存储层行记录与领域实体互转。
package mappers

import (
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// SlotColumns 是单个媒体槽位在 media.videos 中的列组。
type SlotColumns struct {
	Name            pgtype.Text
	RawLocation     pgtype.Text
	EncodedLocation pgtype.Text
	Status          pgtype.Text
	UpdatedAt       pgtype.Timestamptz
}

// VideoRecord 对应 media.videos 一行以及聚合的 ID 集合。
type VideoRecord struct {
	ID          uuid.UUID
	Title       string
	Description string
	LaunchYear  int32
	Duration    float64
	Rating      string
	Opened      bool
	Published   bool
	Slots       map[po.MediaType]*SlotColumns
	Categories  []string
	Genres      []string
	CastMembers []string
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// NewVideoRecord 初始化带全部槽位列组的空记录，供 Scan 使用。
func NewVideoRecord() *VideoRecord {
	rec := &VideoRecord{Slots: make(map[po.MediaType]*SlotColumns, len(po.MediaTypes))}
	for _, t := range po.MediaTypes {
		rec.Slots[t] = &SlotColumns{}
	}
	return rec
}

// VideoFromRecord 将行记录还原为领域聚合。
func VideoFromRecord(rec *VideoRecord) (*po.Video, error) {
	if rec == nil {
		return nil, nil
	}
	categories, err := parseIDs(rec.Categories)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	genres, err := parseIDs(rec.Genres)
	if err != nil {
		return nil, fmt.Errorf("genres: %w", err)
	}
	castMembers, err := parseIDs(rec.CastMembers)
	if err != nil {
		return nil, fmt.Errorf("cast members: %w", err)
	}

	video := &po.Video{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		LaunchYear:  int(rec.LaunchYear),
		Duration:    rec.Duration,
		Rating:      po.Rating(rec.Rating),
		Opened:      rec.Opened,
		Published:   rec.Published,
		Categories:  po.NormalizeIDs(categories),
		Genres:      po.NormalizeIDs(genres),
		CastMembers: po.NormalizeIDs(castMembers),
		Media:       map[po.MediaType]*po.MediaSlot{},
		CreatedAt:   mustTimestamp(rec.CreatedAt),
		UpdatedAt:   mustTimestamp(rec.UpdatedAt),
	}

	for _, t := range po.MediaTypes {
		cols := rec.Slots[t]
		if cols == nil || !cols.RawLocation.Valid {
			continue
		}
		slot, err := slotFromColumns(t, cols)
		if err != nil {
			return nil, err
		}
		video.Media[t] = slot
	}
	return video, nil
}

// SlotToColumns 将槽位转换为列组；nil 槽位映射为全 NULL。
func SlotToColumns(slot *po.MediaSlot, now time.Time) SlotColumns {
	if slot == nil {
		return SlotColumns{}
	}
	switch {
	case slot.AudioVideo != nil:
		m := slot.AudioVideo
		return SlotColumns{
			Name:            pgtype.Text{String: m.Name, Valid: true},
			RawLocation:     pgtype.Text{String: m.RawLocation, Valid: true},
			EncodedLocation: pgtype.Text{String: m.EncodedLocation, Valid: true},
			Status:          pgtype.Text{String: string(m.Status), Valid: true},
			UpdatedAt:       pgtype.Timestamptz{Time: now, Valid: true},
		}
	case slot.Image != nil:
		return SlotColumns{
			Name:        pgtype.Text{String: slot.Image.Name, Valid: true},
			RawLocation: pgtype.Text{String: slot.Image.RawLocation, Valid: true},
			UpdatedAt:   pgtype.Timestamptz{Time: now, Valid: true},
		}
	default:
		return SlotColumns{}
	}
}

// IDStrings 将 ID 集合转换为字符串数组参数。
func IDStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func slotFromColumns(t po.MediaType, cols *SlotColumns) (*po.MediaSlot, error) {
	if t.IsImage() {
		slot := po.NewImageSlot(t, po.ImageMedia{Name: cols.Name.String, RawLocation: cols.RawLocation.String})
		return &slot, nil
	}
	status, err := po.ParseMediaStatus(cols.Status.String)
	if err != nil {
		return nil, fmt.Errorf("slot %s: %w", t, err)
	}
	slot := po.NewAudioVideoSlot(po.AudioVideoMedia{
		Name:            cols.Name.String,
		RawLocation:     cols.RawLocation.String,
		EncodedLocation: cols.EncodedLocation.String,
		Status:          status,
		MediaType:       t,
	})
	return &slot, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func mustTimestamp(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time.UTC()
}
