// Package transcript keeps the per-session chat log shown on page reload.
package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/model"
)

// Store хранит журнал сообщений по токену сессии. Каждая запись продлевает жизнь сессии.
type Store interface {
	Append(ctx context.Context, sessionID string, e model.TranscriptEntry) error
	List(ctx context.Context, sessionID string) ([]model.TranscriptEntry, error)
	Delete(ctx context.Context, sessionID string) error
}

// Recorder проставляет время и проверяет записи перед сохранением.
type Recorder struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewRecorder(store Store, loc *time.Location) *Recorder {
	if loc == nil {
		loc = time.UTC
	}
	return &Recorder{store: store, loc: loc, now: time.Now}
}

func (r *Recorder) Add(ctx context.Context, sessionID string, role model.Role, text string) error {
	if sessionID == "" {
		return errs.ErrSessionRequired
	}
	if !role.Valid() {
		return fmt.Errorf("%w: %q", errs.ErrInvalidRole, role)
	}
	if strings.TrimSpace(text) == "" {
		return errs.ErrEmptyText
	}
	return r.store.Append(ctx, sessionID, model.TranscriptEntry{
		Role: role,
		Text: text,
		Time: r.now().In(r.loc).Format("15:04"),
	})
}

func (r *Recorder) History(ctx context.Context, sessionID string) ([]model.TranscriptEntry, error) {
	if sessionID == "" {
		return []model.TranscriptEntry{}, nil
	}
	return r.store.List(ctx, sessionID)
}
