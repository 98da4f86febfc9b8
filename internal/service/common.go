package service

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
)

// ── 通用辅助 ──

func now() time.Time { return time.Now().UTC() }

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func strPtr(s string) *string { return &s }

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// toJSON 将任意值编码为 JSON 列；nil 或编码失败时使用 fallback
func toJSON(v any, fallback string) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(b)
}

func jsonObject(raw datatypes.JSON) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || len(m) == 0 {
		return nil
	}
	return m
}

func jsonArray(raw datatypes.JSON) []map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var a []map[string]any
	if err := json.Unmarshal(raw, &a); err != nil || len(a) == 0 {
		return nil
	}
	return a
}

// notFoundAs 记录不存在时替换为业务错误，其余错误原样返回
func notFoundAs(err, sentinel error) error {
	if repository.IsNotFound(err) {
		return sentinel
	}
	return err
}

// auditEntry 一条审计记录的内容
type auditEntry struct {
	OrgID      string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	From       string
	To         string
	Message    string
	Metadata   map[string]any
}

// writeAudit 写入审计日志；须与业务写操作处于同一事务
func writeAudit(ctx context.Context, repo *repository.Repository, e auditEntry) error {
	log := &model.AuditLog{
		OrgID:      e.OrgID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Message:    e.Message,
		Metadata:   toJSON(e.Metadata, "{}"),
		CreatedAt:  now(),
	}
	if e.ActorID != "" {
		log.ActorID = strPtr(e.ActorID)
	}
	if e.From != "" {
		log.PreviousStatus = strPtr(e.From)
	}
	if e.To != "" {
		log.NewStatus = strPtr(e.To)
	}
	return repo.AuditLog.Create(ctx, log)
}

