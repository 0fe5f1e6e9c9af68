package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"nutrition-resolver/internal/pkg/common"
)

// SQLiteIndex 本地搜尋索引
// 只保存識別欄位與每 100 單位營養素（slim 紀錄），作為遠端查詢的 write-through 快取
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex 開啟（或建立）索引資料庫
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	idx := &SQLiteIndex{db: db}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	return idx, nil
}

// Close 關閉索引
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

func (s *SQLiteIndex) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS reference_foods (
        id TEXT PRIMARY KEY,
        description TEXT NOT NULL,
        description_norm TEXT NOT NULL,
        tier TEXT NOT NULL,
        calories REAL NOT NULL,
        protein REAL NOT NULL,
        fat REAL NOT NULL,
        carbs REAL NOT NULL,
        fiber REAL NOT NULL,
        sugars REAL NOT NULL,
        saturated_fat REAL NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_reference_foods_norm ON reference_foods(description_norm);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// UpsertBatch 寫入一批紀錄，以供應商 ID 為鍵做冪等 upsert
// 並行寫入採 last-write-wins，不需要額外鎖
func (s *SQLiteIndex) UpsertBatch(ctx context.Context, foods []common.ReferenceFood) error {
	if len(foods) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO reference_foods
            (id, description, description_norm, tier, calories, protein, fat, carbs, fiber, sugars, saturated_fat, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            description = excluded.description,
            description_norm = excluded.description_norm,
            tier = excluded.tier,
            calories = excluded.calories,
            protein = excluded.protein,
            fat = excluded.fat,
            carbs = excluded.carbs,
            fiber = excluded.fiber,
            sugars = excluded.sugars,
            saturated_fat = excluded.saturated_fat,
            updated_at = excluded.updated_at
    `

	now := time.Now().UTC().Format(time.RFC3339)
	for _, f := range foods {
		_, err = tx.ExecContext(ctx, query,
			f.ID, f.Description, common.NormalizeQuery(f.Description), string(f.Tier),
			f.Per100.Calories, f.Per100.Protein, f.Per100.Fat, f.Per100.Carbs,
			f.Per100.Fiber, f.Per100.Sugars, f.Per100.SaturatedFat, now)
		if err != nil {
			return fmt.Errorf("failed to upsert reference food %s: %w", f.ID, err)
		}
	}

	return tx.Commit()
}

// Search 以正規化查詢的 token 做全文匹配，命中越多 token 的紀錄排越前
func (s *SQLiteIndex) Search(ctx context.Context, query string, limit int) ([]common.ReferenceFood, error) {
	tokens := strings.Fields(common.NormalizeQuery(query))
	if len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var (
		conds []string
		rank  []string
		args  []interface{}
	)
	for _, tok := range tokens {
		pattern := "%" + tok + "%"
		conds = append(conds, "description_norm LIKE ?")
		rank = append(rank, "(CASE WHEN description_norm LIKE ? THEN 1 ELSE 0 END)")
		args = append(args, pattern)
	}
	// rank 的參數接在條件參數之後
	for _, tok := range tokens {
		args = append(args, "%"+tok+"%")
	}
	args = append(args, limit)

	stmt := fmt.Sprintf(`
        SELECT id, description, tier, calories, protein, fat, carbs, fiber, sugars, saturated_fat
        FROM reference_foods
        WHERE %s
        ORDER BY %s DESC, updated_at DESC
        LIMIT ?
    `, strings.Join(conds, " OR "), strings.Join(rank, " + "))

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer rows.Close()

	var foods []common.ReferenceFood
	for rows.Next() {
		var f common.ReferenceFood
		var tier string
		err := rows.Scan(&f.ID, &f.Description, &tier,
			&f.Per100.Calories, &f.Per100.Protein, &f.Per100.Fat, &f.Per100.Carbs,
			&f.Per100.Fiber, &f.Per100.Sugars, &f.Per100.SaturatedFat)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reference food: %w", err)
		}
		f.Tier = common.Tier(tier)
		f.Source = common.SourceLocalIndex
		foods = append(foods, f)
	}

	return foods, rows.Err()
}

// Count 回傳索引中的紀錄數，健康檢查用
func (s *SQLiteIndex) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reference_foods").Scan(&n)
	return n, err
}
