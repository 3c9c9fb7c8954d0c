// Package handler exposes the complaint workflow over HTTP.
package handler

import (
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/complaint"
	"resolveit/backend/internal/config"
	"resolveit/backend/internal/escalation"
	"resolveit/backend/internal/eventhub"
	"resolveit/backend/internal/storage"
	"resolveit/backend/internal/upload"
)

// Handler holds what the HTTP routes delegate to. Escalation, Worker and
// Hub are optional; their routes are only registered when set.
type Handler struct {
	Complaints *complaint.Service
	Users      storage.Storage
	Workflow   *config.Workflow
	Tokens     *auth.TokenIssuer
	Uploads    *upload.Store

	Escalation *escalation.Service
	Worker     *escalation.Worker
	Hub        *eventhub.ManagerService

	// AllowedOrigins is used for CORS and the websocket origin check.
	// Empty or "*" allows any origin.
	AllowedOrigins []string
}

// NewHandler creates a handler over the complaint service's store and
// workflow.
func NewHandler(svc *complaint.Service, tokens *auth.TokenIssuer, uploads *upload.Store) *Handler {
	return &Handler{
		Complaints: svc,
		Users:      svc.Storage,
		Workflow:   svc.Workflow,
		Tokens:     tokens,
		Uploads:    uploads,
	}
}
