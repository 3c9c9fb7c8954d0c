package handler

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/logging"
)

const corsMaxAge = time.Hour

type route struct {
	method string
	path   string
	// action gates the route; "" means open to any caller.
	action auth.Action
	// queryToken accepts ?access_token= in place of the header.
	queryToken bool
	handle     gin.HandlerFunc
}

func (h *Handler) routes() []route {
	rs := []route{
		{method: http.MethodPost, path: "/auth/signup", handle: h.Signup},
		{method: http.MethodPost, path: "/auth/login", handle: h.Login},
		{method: http.MethodGet, path: "/auth/me", action: auth.ActionViewMine, handle: h.Me},

		{method: http.MethodPost, path: "/complaints/submit/anonymous", action: auth.ActionSubmitAnonymous, handle: h.SubmitAnonymous},
		{method: http.MethodPost, path: "/complaints/submit", action: auth.ActionSubmit, handle: h.SubmitComplaint},
		{method: http.MethodPut, path: "/complaints/assign/:id", action: auth.ActionAssign, handle: h.AssignComplaint},
		{method: http.MethodPut, path: "/complaints/unassign/:id", action: auth.ActionUnassign, handle: h.UnassignComplaint},
		{method: http.MethodPut, path: "/complaints/deadline/:id", action: auth.ActionUpdateDeadline, handle: h.UpdateDeadline},
		{method: http.MethodPut, path: "/complaints/complete/:id", action: auth.ActionComplete, handle: h.CompleteComplaint},
		{method: http.MethodPut, path: "/complaints/resolve/:id", action: auth.ActionResolve, handle: h.ResolveComplaint},
		{method: http.MethodPut, path: "/complaints/status/:id", action: auth.ActionUpdateStatus, handle: h.UpdateStatus},
		{method: http.MethodPost, path: "/complaints/escalate/:id", action: auth.ActionEscalate, handle: h.EscalateComplaint},
		{method: http.MethodPut, path: "/complaints/de-escalate/:id", action: auth.ActionDeEscalate, handle: h.DeEscalateComplaint},

		{method: http.MethodGet, path: "/complaints/my", action: auth.ActionViewMine, handle: h.GetMine},
		{method: http.MethodGet, path: "/complaints/assigned", action: auth.ActionViewAssigned, handle: h.GetAssigned},
		{method: http.MethodGet, path: "/complaints/public", action: auth.ActionViewPublic, handle: h.GetPublic},
		{method: http.MethodGet, path: "/complaints/filter", action: auth.ActionFilter, handle: h.FilterComplaints},
		{method: http.MethodGet, path: "/complaints/officers", action: auth.ActionListOfficers, handle: h.ListOfficers},
		{method: http.MethodGet, path: "/complaints/officers-and-admins", action: auth.ActionListOfficers, handle: h.ListOfficersAndAdmins},
		{method: http.MethodGet, path: "/complaints/admin/all", action: auth.ActionViewAll, handle: h.GetAll},
		{method: http.MethodGet, path: "/complaints/admin/escalated", action: auth.ActionAdminLists, handle: h.GetEscalated},
		{method: http.MethodGet, path: "/complaints/admin/unresolved", action: auth.ActionAdminLists, handle: h.GetUnresolved},
		{method: http.MethodGet, path: "/complaints/admin/stats", action: auth.ActionViewStats, handle: h.Stats},

		{method: http.MethodPost, path: "/complaints/notes/:id", action: auth.ActionAddNote, handle: h.AddNote},
		{method: http.MethodGet, path: "/complaints/notes/:id", action: auth.ActionViewNotes, handle: h.GetNotes},
		{method: http.MethodPost, path: "/complaints/comments/:id", action: auth.ActionComment, handle: h.AddComment},

		{method: http.MethodGet, path: "/complaints/files/*path", action: auth.ActionViewComplaint, queryToken: true, handle: h.ServeAttachment},
		{method: http.MethodGet, path: "/complaints/:id", action: auth.ActionViewComplaint, handle: h.GetComplaint},
		{method: http.MethodGet, path: "/complaints/:id/timeline", action: auth.ActionViewComplaint, handle: h.GetTimeline},
	}

	if h.Escalation != nil {
		rs = append(rs,
			route{method: http.MethodGet, path: "/auto-escalation/stats", action: auth.ActionManageEscalation, handle: h.EscalationStats},
			route{method: http.MethodGet, path: "/auto-escalation/candidates", action: auth.ActionManageEscalation, handle: h.EscalationCandidates},
			route{method: http.MethodPost, path: "/auto-escalation/trigger", action: auth.ActionManageEscalation, handle: h.TriggerEscalation},
			route{method: http.MethodGet, path: "/auto-escalation/config", action: auth.ActionManageEscalation, handle: h.EscalationConfig},
			route{method: http.MethodGet, path: "/auto-escalation/test", action: auth.ActionManageEscalation, handle: h.TestEscalation},
			route{method: http.MethodGet, path: "/auto-escalation/health", handle: h.EscalationHealth},
		)
	}
	if h.Hub != nil {
		rs = append(rs, route{method: http.MethodGet, path: "/ws", action: auth.ActionWatch, queryToken: true, handle: h.ServeWebSocket})
	}
	return rs
}

// Router builds the gin engine with every route under /api.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(accessLogger(), gin.Recovery(), h.cors())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "workflow": h.Workflow.Name})
	})

	api := r.Group("/api")
	for _, rt := range h.routes() {
		chain := []gin.HandlerFunc{h.authenticate(rt.queryToken)}
		if rt.action != "" {
			chain = append(chain, requireAction(rt.action))
		}
		api.Handle(rt.method, rt.path, append(chain, rt.handle)...)
	}

	r.NoRoute(func(c *gin.Context) {
		respondError(c, notFoundRoute(c))
	})
	return r
}

func accessLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logging.Default().Info("access",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"duration", time.Since(start),
			"remote", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)
	}
}

func (h *Handler) cors() gin.HandlerFunc {
	allowAll := len(h.AllowedOrigins) == 0 || slices.Contains(h.AllowedOrigins, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || slices.Contains(h.AllowedOrigins, origin)) {
			hdr := c.Writer.Header()
			hdr.Set("Access-Control-Allow-Origin", origin)
			hdr.Set("Access-Control-Allow-Credentials", "true")
			hdr.Set("Access-Control-Allow-Methods", strings.Join([]string{
				http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
			}, ", "))
			hdr.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			hdr.Set("Access-Control-Max-Age", strconv.Itoa(int(corsMaxAge.Seconds())))
			hdr.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
