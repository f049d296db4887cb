package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/repositories/mappers"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbtx 抽象 *pgxpool.Pool 与 pgx.Tx 的公共查询能力。
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func withSession(db dbtx, sess txmanager.Session) dbtx {
	if sess == nil {
		return db
	}
	if tx := sess.Tx(); tx != nil {
		return tx
	}
	return db
}

// slotPrefix 返回槽位在 media.videos 中的列名前缀。
func slotPrefix(t po.MediaType) string {
	return strings.ToLower(string(t))
}

func slotColumnNames(t po.MediaType) []string {
	p := slotPrefix(t)
	if t.IsImage() {
		return []string{p + "_name", p + "_raw_location", p + "_updated_at"}
	}
	return []string{p + "_name", p + "_raw_location", p + "_encoded_location", p + "_status", p + "_updated_at"}
}

var (
	videoSelectList = buildVideoSelectList()
	upsertVideoSQL  = buildUpsertVideoSQL()
)

func buildVideoSelectList() string {
	cols := []string{
		"v.id", "v.title", "v.description", "v.launch_year", "v.duration::float8",
		"v.rating", "v.opened", "v.published",
	}
	for _, t := range po.MediaTypes {
		for _, c := range slotColumnNames(t) {
			cols = append(cols, "v."+c)
		}
	}
	cols = append(cols,
		idSetSubquery("video_categories", "category_id"),
		idSetSubquery("video_genres", "genre_id"),
		idSetSubquery("video_cast_members", "cast_member_id"),
		"v.created_at", "v.updated_at",
	)
	return strings.Join(cols, ",\n\t")
}

func idSetSubquery(table, column string) string {
	return fmt.Sprintf("(select coalesce(array_agg(s.%[2]s::text order by s.%[2]s), '{}') from media.%[1]s s where s.video_id = v.id)", table, column)
}

func buildUpsertVideoSQL() string {
	cols := []string{"id", "title", "description", "launch_year", "duration", "rating", "opened", "published"}
	for _, t := range po.MediaTypes {
		cols = append(cols, slotColumnNames(t)...)
	}
	placeholders := make([]string, len(cols))
	updates := make([]string, 0, len(cols))
	for i, c := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if c == "id" || strings.HasSuffix(c, "_updated_at") {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	for _, t := range po.MediaTypes {
		updates = append(updates, slotTimestampUpdate(t))
	}
	updates = append(updates, "updated_at = now()")
	return fmt.Sprintf(`insert into media.videos (%s, created_at, updated_at)
values (%s, now(), now())
on conflict (id) do update set
	%s
returning created_at, updated_at`,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ",\n\t"))
}

// slotTimestampUpdate 仅在槽位内容变化时刷新 <slot>_updated_at，
// 对账任务依赖它判断 PENDING 槽位的停留时长。
func slotTimestampUpdate(t po.MediaType) string {
	p := slotPrefix(t)
	changed := []string{fmt.Sprintf("media.videos.%[1]s_raw_location is distinct from excluded.%[1]s_raw_location", p)}
	if t.IsAudioVideo() {
		changed = append(changed,
			fmt.Sprintf("media.videos.%[1]s_status is distinct from excluded.%[1]s_status", p),
			fmt.Sprintf("media.videos.%[1]s_encoded_location is distinct from excluded.%[1]s_encoded_location", p),
		)
	}
	return fmt.Sprintf(`%[1]s_updated_at = case
		when excluded.%[1]s_raw_location is null then null
		when %[2]s then excluded.%[1]s_updated_at
		else media.videos.%[1]s_updated_at
	end`, p, strings.Join(changed, " or "))
}

// recordDest 按 videoSelectList 的列顺序返回 Scan 目标。
func recordDest(rec *mappers.VideoRecord) []any {
	dest := []any{
		&rec.ID, &rec.Title, &rec.Description, &rec.LaunchYear, &rec.Duration,
		&rec.Rating, &rec.Opened, &rec.Published,
	}
	for _, t := range po.MediaTypes {
		cols := rec.Slots[t]
		dest = append(dest, &cols.Name, &cols.RawLocation)
		if t.IsAudioVideo() {
			dest = append(dest, &cols.EncodedLocation, &cols.Status)
		}
		dest = append(dest, &cols.UpdatedAt)
	}
	return append(dest, &rec.Categories, &rec.Genres, &rec.CastMembers, &rec.CreatedAt, &rec.UpdatedAt)
}

// upsertArgs 按 upsertVideoSQL 的列顺序组装参数。
func upsertArgs(video *po.Video, now time.Time) []any {
	args := []any{
		video.ID, video.Title, video.Description, video.LaunchYear, video.Duration,
		string(video.Rating), video.Opened, video.Published,
	}
	for _, t := range po.MediaTypes {
		slot, _ := video.Slot(t)
		cols := mappers.SlotToColumns(slot, now)
		args = append(args, cols.Name, cols.RawLocation)
		if t.IsAudioVideo() {
			args = append(args, cols.EncodedLocation, cols.Status)
		}
		args = append(args, cols.UpdatedAt)
	}
	return args
}
