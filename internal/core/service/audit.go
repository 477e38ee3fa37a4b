package service

import "github.com/ednar28/user-admin/internal/core/domain"

type nopAudit struct{}

func (nopAudit) Record(domain.AuditEvent) {}
