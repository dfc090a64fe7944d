package wire

import "github.com/doree-nobuu/adventures/internal/types"

// TaskDoc is the remote schema of a legacy task.
type TaskDoc struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CreatedAt   *Timestamp `json:"createdAt,omitempty"`
	UpdatedAt   *Timestamp `json:"updatedAt,omitempty"`
}

// TaskToDoc maps a task onto its wire document.
func TaskToDoc(t *types.Task) TaskDoc {
	created := FromTime(t.CreatedAt)
	updated := FromTime(t.UpdatedAt)
	return TaskDoc{
		ID:          t.ID,
		Title:       t.Title,
		Description: optString(t.Description),
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   &created,
		UpdatedAt:   &updated,
	}
}

// Record maps the document back onto a task.
func (d TaskDoc) Record() *types.Task {
	t := &types.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: strOr(d.Description, ""),
		Status:      types.TaskStatus(strOr(&d.Status, string(types.TaskPending))),
		Priority:    types.TaskPriority(strOr(&d.Priority, string(types.PriorityMedium))),
		CreatedAt:   timeOrZero(d.CreatedAt),
		UpdatedAt:   timeOrZero(d.UpdatedAt),
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	return t
}

// EncodeTask converts a task to a Document.
func EncodeTask(t *types.Task) (Document, error) {
	return toDocument(TaskToDoc(t))
}

// DecodeTask converts a Document to a task.
func DecodeTask(d Document) (*types.Task, error) {
	var doc TaskDoc
	if err := fromDocument(d, &doc); err != nil {
		return nil, err
	}
	return doc.Record(), nil
}
