package repositories

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	"github.com/bionicotaku/lingo-services-media/internal/repositories/mappers"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferenceRepository 校验视频引用的分类、类型与演职人员是否存在。
type ReferenceRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewReferenceRepository 构造 ReferenceRepository。
func NewReferenceRepository(db *pgxpool.Pool, logger log.Logger) *ReferenceRepository {
	return &ReferenceRepository{db: db, log: log.NewHelper(logger)}
}

// MissingIDs 返回 ids 中不存在或已停用的条目，保持入参顺序。
func (r *ReferenceRepository) MissingIDs(ctx context.Context, sess txmanager.Session, kind po.ReferenceKind, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	table, err := referenceTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`select id from media.%s where id = any($1::uuid[]) and is_active`, table)
	rows, err := withSession(r.db, sess).Query(ctx, query, mappers.IDStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", table, err)
	}
	defer rows.Close()

	found := make(map[uuid.UUID]struct{}, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lookup %s: %w", table, err)
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		r.log.WithContext(ctx).Debugf("missing references: kind=%s count=%d", kind, len(missing))
	}
	return missing, nil
}

func referenceTable(kind po.ReferenceKind) (string, error) {
	switch kind {
	case po.ReferenceCategory, po.ReferenceGenre, po.ReferenceCastMember:
		return string(kind), nil
	default:
		return "", fmt.Errorf("unknown reference kind %q", kind)
	}
}
