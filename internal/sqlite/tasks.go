package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

const taskColumns = "id, session_id, parent_id, title, scope, status, agent_type, worktree_path, branch, created_at"

// CreateTask adds a task to an active session. Returns ErrConflict when
// the session is terminal, and ErrNotFound when the session or the named
// parent task does not exist. A parent task must belong to the same
// session.
func (b *Backend) CreateTask(sessionID string, in types.CreateTaskInput) (*types.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var task *types.Task
	err := b.withWriteTx(func(tx *sql.Tx) error {
		session, err := loadSessionTx(tx, sessionID)
		if err != nil {
			return err
		}
		if session.Terminal() {
			return fmt.Errorf("session %s is %s, not active: %w", sessionID, session.Status, types.ErrConflict)
		}

		task, err = insertTaskTx(tx, sessionID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask retrieves a task by ID.
func (b *Backend) GetTask(id string) (*types.Task, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	row := db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := hydrateTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return task, nil
}

// UpdateTask applies a partial update to a task. Status moves are
// caller-reported; the engine only refuses writes once the owning
// session is terminal (ErrConflict). Parent status is never derived from
// children.
func (b *Backend) UpdateTask(id string, in types.UpdateTaskInput) (*types.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *types.Task
	err := b.withWriteTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
		task, err := hydrateTask(row)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("task %s: %w", id, types.ErrNotFound)
			}
			return fmt.Errorf("loading task %s: %w", id, err)
		}

		session, err := loadSessionTx(tx, task.SessionID)
		if err != nil {
			return err
		}
		if session.Terminal() {
			return fmt.Errorf("session %s is %s, task %s is frozen: %w", session.ID, session.Status, id, types.ErrConflict)
		}

		if in.Status != nil {
			task.Status = *in.Status
		}
		if in.WorktreePath != nil {
			task.WorktreePath = in.WorktreePath
		}
		if in.Branch != nil {
			task.Branch = in.Branch
		}

		_, err = tx.Exec(
			"UPDATE tasks SET status = ?, worktree_path = ?, branch = ? WHERE id = ?",
			task.Status, nullStr(task.WorktreePath), nullStr(task.Branch), id,
		)
		if err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateTaskStatus records a caller-reported status transition.
func (b *Backend) UpdateTaskStatus(id, status string) (*types.Task, error) {
	return b.UpdateTask(id, types.UpdateTaskInput{Status: &status})
}

// GetTaskContext returns the task with the denormalized feature it
// belongs to, the payload an agent needs to pick up work. Per the tool
// contract it fails with ErrNotFound both when the task is missing and
// when its session is already terminal.
func (b *Backend) GetTaskContext(id string) (*types.TaskContext, error) {
	task, err := b.GetTask(id)
	if err != nil {
		return nil, err
	}

	detail, err := b.GetSession(task.SessionID)
	if err != nil {
		return nil, err
	}
	if detail.Session.Terminal() {
		return nil, fmt.Errorf("task %s belongs to %s session %s: %w", id, detail.Session.Status, detail.Session.ID, types.ErrNotFound)
	}

	return &types.TaskContext{Task: *task, Feature: detail.Feature}, nil
}

// insertTaskTx creates one task row inside an open write transaction.
// Used by both CreateTask and the all-or-nothing initial task creation
// in CreateSession.
func insertTaskTx(tx *sql.Tx, sessionID string, in types.CreateTaskInput) (*types.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		var parentSession string
		err := tx.QueryRow("SELECT session_id FROM tasks WHERE id = ?", *in.ParentID).Scan(&parentSession)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("parent task %s: %w", *in.ParentID, types.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("loading parent task: %w", err)
		}
		if parentSession != sessionID {
			return nil, fmt.Errorf("parent task %s belongs to another session: %w", *in.ParentID, types.ErrConflict)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating UUID v7: %w", err)
	}
	task := &types.Task{
		ID:        id.String(),
		SessionID: sessionID,
		ParentID:  in.ParentID,
		Title:     in.Title,
		Scope:     in.Scope,
		Status:    types.TaskStatusPending,
		AgentType: in.AgentType,
		CreatedAt: nowUTC(),
	}

	_, err = tx.Exec(
		"INSERT INTO tasks (id, session_id, parent_id, title, scope, status, agent_type, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		task.ID, sessionID, nullStr(task.ParentID), task.Title, task.Scope,
		task.Status, task.AgentType, formatTime(task.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}
	return task, nil
}

// loadSessionTx loads a session row inside a write transaction, mapping
// a missing row to ErrNotFound.
func loadSessionTx(tx *sql.Tx, id string) (*types.Session, error) {
	row := tx.QueryRow("SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
	session, err := hydrateSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return session, nil
}

// listSessionTasks returns a session's tasks in creation order.
func (b *Backend) listSessionTasks(db *sql.DB, sessionID string) ([]types.Task, error) {
	rows, err := db.Query("SELECT "+taskColumns+" FROM tasks WHERE session_id = ? ORDER BY created_at, id", sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks of session %s: %w", sessionID, err)
	}
	defer rows.Close()

	tasks := []types.Task{}
	for rows.Next() {
		task, err := hydrateTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func hydrateTask(row rowScanner) (*types.Task, error) {
	var (
		t                    types.Task
		parentID             sql.NullString
		worktreePath, branch sql.NullString
		createdAt            string
	)
	if err := row.Scan(&t.ID, &t.SessionID, &parentID, &t.Title, &t.Scope, &t.Status,
		&t.AgentType, &worktreePath, &branch, &createdAt); err != nil {
		return nil, err
	}
	t.ParentID = strPtr(parentID)
	t.WorktreePath = strPtr(worktreePath)
	t.Branch = strPtr(branch)

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}
