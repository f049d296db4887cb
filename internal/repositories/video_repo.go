// Package repositories 实现数据访问层，基于 pgx 手写 SQL 访问 media schema。
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/repositories/mappers"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVideoNotFound 表示请求的视频不存在。
var ErrVideoNotFound = errors.New("video not found")

// VideoRepository 提供视频聚合的持久化访问能力。
//
// 聚合以整行 + ID 集合子表的形式存储；Save 在单个事务内完成，保证聚合级原子性。
type VideoRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
	now func() time.Time
}

// NewVideoRepository 构造 VideoRepository 实例（供 Wire 注入使用）。
func NewVideoRepository(db *pgxpool.Pool, logger log.Logger) *VideoRepository {
	return &VideoRepository{
		db:  db,
		log: log.NewHelper(logger),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// GetByID 读取视频聚合，不加锁。
func (r *VideoRepository) GetByID(ctx context.Context, sess txmanager.Session, videoID uuid.UUID) (*po.Video, error) {
	return r.get(ctx, sess, videoID, false)
}

// GetForUpdate 在事务内读取并锁定视频行，后续 Save 前其他写者会被阻塞。
// sess 为空时退化为普通读取。
func (r *VideoRepository) GetForUpdate(ctx context.Context, sess txmanager.Session, videoID uuid.UUID) (*po.Video, error) {
	return r.get(ctx, sess, videoID, sess != nil)
}

func (r *VideoRepository) get(ctx context.Context, sess txmanager.Session, videoID uuid.UUID, lock bool) (*po.Video, error) {
	query := "select\n\t" + videoSelectList + "\nfrom media.videos v\nwhere v.id = $1"
	if lock {
		query += "\nfor update of v"
	}

	rec := mappers.NewVideoRecord()
	if err := withSession(r.db, sess).QueryRow(ctx, query, videoID).Scan(recordDest(rec)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		r.log.WithContext(ctx).Errorf("get video failed: video_id=%s err=%v", videoID, err)
		return nil, fmt.Errorf("get video: %w", err)
	}
	video, err := mappers.VideoFromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("map video %s: %w", videoID, err)
	}
	return video, nil
}

// Save 以 upsert 语义持久化整个聚合（元数据、全部槽位、ID 集合）。
// sess 为空时在内部开启事务。
func (r *VideoRepository) Save(ctx context.Context, sess txmanager.Session, video *po.Video) error {
	if video == nil || video.ID == uuid.Nil {
		return fmt.Errorf("save video: video id is required")
	}
	if sess != nil && sess.Tx() != nil {
		return r.save(ctx, sess.Tx(), video)
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return r.save(ctx, tx, video)
	})
}

func (r *VideoRepository) save(ctx context.Context, tx pgx.Tx, video *po.Video) error {
	var createdAt, updatedAt time.Time
	if err := tx.QueryRow(ctx, upsertVideoSQL, upsertArgs(video, r.now())...).Scan(&createdAt, &updatedAt); err != nil {
		r.log.WithContext(ctx).Errorf("save video failed: video_id=%s err=%v", video.ID, err)
		return fmt.Errorf("save video: %w", err)
	}

	sets := []struct {
		table  string
		column string
		ids    []uuid.UUID
	}{
		{"video_categories", "category_id", video.Categories},
		{"video_genres", "genre_id", video.Genres},
		{"video_cast_members", "cast_member_id", video.CastMembers},
	}
	for _, set := range sets {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`delete from media.%s where video_id = $1`, set.table), video.ID); err != nil {
			return fmt.Errorf("save video %s: %w", set.table, err)
		}
		if len(set.ids) == 0 {
			continue
		}
		insert := fmt.Sprintf(`insert into media.%s (video_id, %s) select $1, unnest($2::uuid[])`, set.table, set.column)
		if _, err := tx.Exec(ctx, insert, video.ID, mappers.IDStrings(set.ids)); err != nil {
			return fmt.Errorf("save video %s: %w", set.table, err)
		}
	}

	video.CreatedAt = createdAt.UTC()
	video.UpdatedAt = updatedAt.UTC()
	r.log.WithContext(ctx).Debugf("video saved: video_id=%s slots=%d", video.ID, len(video.Media))
	return nil
}

// List 返回全部视频，按创建时间排序。
func (r *VideoRepository) List(ctx context.Context, sess txmanager.Session) ([]*po.Video, error) {
	query := "select\n\t" + videoSelectList + "\nfrom media.videos v\norder by v.created_at, v.id"
	rows, err := withSession(r.db, sess).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*po.Video
	for rows.Next() {
		rec := mappers.NewVideoRecord()
		if err := rows.Scan(recordDest(rec)...); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		video, err := mappers.VideoFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("map video %s: %w", rec.ID, err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// Delete 删除视频及其 ID 集合（外键级联）。
func (r *VideoRepository) Delete(ctx context.Context, sess txmanager.Session, videoID uuid.UUID) error {
	tag, err := withSession(r.db, sess).Exec(ctx, `delete from media.videos where id = $1`, videoID)
	if err != nil {
		r.log.WithContext(ctx).Errorf("delete video failed: video_id=%s err=%v", videoID, err)
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVideoNotFound
	}
	r.log.WithContext(ctx).Infof("video deleted: video_id=%s", videoID)
	return nil
}

// ListStalePending 列出 PENDING 停留超过 olderThan 的音视频槽位。
func (r *VideoRepository) ListStalePending(ctx context.Context, sess txmanager.Session, olderThan time.Time, limit int) ([]po.PendingMedia, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
select id, media_type, raw_location, slot_updated_at from (
	select id, 'VIDEO' as media_type, video_raw_location as raw_location, video_updated_at as slot_updated_at
	from media.videos
	where video_status = 'PENDING' and video_updated_at < $1
	union all
	select id, 'TRAILER', trailer_raw_location, trailer_updated_at
	from media.videos
	where trailer_status = 'PENDING' and trailer_updated_at < $1
) pending
order by slot_updated_at
limit $2`
	rows, err := withSession(r.db, sess).Query(ctx, query, olderThan.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending media: %w", err)
	}
	defer rows.Close()

	var out []po.PendingMedia
	for rows.Next() {
		var (
			item      po.PendingMedia
			mediaType string
		)
		if err := rows.Scan(&item.VideoID, &mediaType, &item.RawLocation, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pending media: %w", err)
		}
		item.MediaType = po.MediaType(mediaType)
		item.UpdatedAt = item.UpdatedAt.UTC()
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stale pending media: %w", err)
	}
	return out, nil
}

// TouchPending 在重新发布编码请求后刷新槽位时间戳；槽位已变化时不做任何事并返回 false。
func (r *VideoRepository) TouchPending(ctx context.Context, sess txmanager.Session, item po.PendingMedia) (bool, error) {
	if !item.MediaType.IsAudioVideo() {
		return false, fmt.Errorf("touch pending: media type %q is not audio/video", item.MediaType)
	}
	p := slotPrefix(item.MediaType)
	query := fmt.Sprintf(`update media.videos set %[1]s_updated_at = $3
where id = $1 and %[1]s_status = 'PENDING' and %[1]s_raw_location = $2`, p)
	tag, err := withSession(r.db, sess).Exec(ctx, query, item.VideoID, item.RawLocation, r.now())
	if err != nil {
		return false, fmt.Errorf("touch pending media: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
