package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/store"
	taskentity "github.com/ovaphlow/pitchfork/service-task-go/internal/task/entity"
)

const taskColumns = `id, description, progress, owner_id, created_at, updated_at`

var orderable = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"description": true,
	"progress":    true,
}

type taskRepo struct {
	q sqlx.ExtContext
}

func (r *taskRepo) Create(ctx context.Context, t *taskentity.Task) error {
	const q = `INSERT INTO tasks (id, description, progress, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.q.ExecContext(ctx, q, t.ID, t.Description, t.Progress, t.OwnerID, t.CreatedAt, t.UpdatedAt); err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return store.ErrNotFound
		}
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// listQuery builds the owner-scoped select. Only whitelisted columns reach
// ORDER BY; ties fall back to creation order.
func listQuery(ownerID string, opts taskentity.ListOptions) (string, []any) {
	var b strings.Builder
	args := []any{ownerID}
	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)
	if opts.Progress != nil {
		args = append(args, *opts.Progress)
		fmt.Fprintf(&b, ` AND progress = $%d`, len(args))
	}
	b.WriteString(` ORDER BY `)
	if orderable[opts.SortBy] {
		b.WriteString(opts.SortBy)
		if opts.Desc {
			b.WriteString(` DESC`)
		}
		b.WriteString(`, `)
	}
	b.WriteString(`created_at, id`)
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	if opts.Skip > 0 {
		args = append(args, opts.Skip)
		fmt.Fprintf(&b, ` OFFSET $%d`, len(args))
	}
	return b.String(), args
}

func (r *taskRepo) List(ctx context.Context, ownerID string, opts taskentity.ListOptions) ([]taskentity.Task, error) {
	q, args := listQuery(ownerID, opts)
	tasks := []taskentity.Task{}
	if err := sqlx.SelectContext(ctx, r.q, &tasks, q, args...); err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepo) GetOwned(ctx context.Context, id, ownerID string) (*taskentity.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`
	var t taskentity.Task
	if err := sqlx.GetContext(ctx, r.q, &t, q, id, ownerID); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *taskRepo) Update(ctx context.Context, t *taskentity.Task) error {
	const q = `UPDATE tasks SET description = $3, progress = $4, updated_at = $5 WHERE id = $1 AND owner_id = $2`
	res, err := r.q.ExecContext(ctx, q, t.ID, t.OwnerID, t.Description, t.Progress, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return affected(res)
}

func (r *taskRepo) DeleteOwned(ctx context.Context, id, ownerID string) (*taskentity.Task, error) {
	const q = `DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING ` + taskColumns
	var t taskentity.Task
	if err := sqlx.GetContext(ctx, r.q, &t, q, id, ownerID); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *taskRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return res.RowsAffected()
}
