// internal/service/repairs/application/dto.go
package application

import "fixflow/internal/service/repairs/domain"

// CreateRepairRequest 登记维修单的应用层 DTO。
type CreateRepairRequest struct {
	UserID       string `json:"user_id"`
	SubjectModel string `json:"subject_model"`
	Description  string `json:"description"`
}

// DiagnoseRequest 录入诊断的应用层 DTO。
type DiagnoseRequest struct {
	Diagnosis     string                `json:"diagnosis"`
	RequiredParts []domain.RequiredPart `json:"required_parts"`
}
