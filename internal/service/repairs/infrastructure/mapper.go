// internal/service/repairs/infrastructure/mapper.go
package infrastructure

import (
	"database/sql"
	"encoding/json"

	"fixflow/internal/service/repairs/domain"

	"github.com/pkg/errors"
)

// FromDomainRepair 将领域模型转换为数据库模型。
func FromDomainRepair(r *domain.Repair) (*RepairModel, error) {
	history, err := json.Marshal(r.History)
	if err != nil {
		return nil, errors.Wrap(err, "marshal repair history")
	}
	parts := ""
	if len(r.RequiredParts) > 0 {
		raw, err := json.Marshal(r.RequiredParts)
		if err != nil {
			return nil, errors.Wrap(err, "marshal required parts")
		}
		parts = string(raw)
	}
	missing := ""
	if len(r.MissingParts) > 0 {
		raw, err := json.Marshal(r.MissingParts)
		if err != nil {
			return nil, errors.Wrap(err, "marshal missing parts")
		}
		missing = string(raw)
	}
	model := &RepairModel{
		ID:           r.ID,
		UserID:       r.UserID,
		SubjectModel: r.SubjectModel,
		Description:  r.Description,
		Diagnosis:    r.Diagnosis,
		Status:       string(r.Status),
		PartsJSON:    parts,
		MissingJSON:  missing,
		HistoryJSON:  string(history),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.CompletedAt != nil {
		model.CompletedAt = sql.NullTime{Time: *r.CompletedAt, Valid: true}
	}
	return model, nil
}

// ToDomainRepair 将数据库模型转换为领域模型。
func ToDomainRepair(m *RepairModel) (*domain.Repair, error) {
	if m == nil {
		return nil, nil
	}
	r := &domain.Repair{
		ID:           m.ID,
		UserID:       m.UserID,
		SubjectModel: m.SubjectModel,
		Description:  m.Description,
		Diagnosis:    m.Diagnosis,
		Status:       domain.Status(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(m.HistoryJSON), &r.History); err != nil {
		return nil, errors.Wrap(err, "unmarshal repair history")
	}
	if m.PartsJSON != "" {
		if err := json.Unmarshal([]byte(m.PartsJSON), &r.RequiredParts); err != nil {
			return nil, errors.Wrap(err, "unmarshal required parts")
		}
	}
	if m.MissingJSON != "" {
		if err := json.Unmarshal([]byte(m.MissingJSON), &r.MissingParts); err != nil {
			return nil, errors.Wrap(err, "unmarshal missing parts")
		}
	}
	if m.CompletedAt.Valid {
		completed := m.CompletedAt.Time
		r.CompletedAt = &completed
	}
	return r, nil
}
