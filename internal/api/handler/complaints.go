package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/complaint"
	"resolveit/backend/internal/logging"
	"resolveit/backend/internal/models"
)

// multipartOverhead leaves room for the text fields next to the file.
const multipartOverhead = 1 << 20

type assignRequest struct {
	OfficerID uint   `json:"officerId"`
	Deadline  string `json:"deadline"`
	Comment   string `json:"comment"`
}

type deadlineRequest struct {
	Deadline string `json:"deadline"`
	Comment  string `json:"comment"`
}

type statusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

type escalateRequest struct {
	Reason string `json:"reason"`
}

type noteRequest struct {
	Note string `json:"note"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// SubmitComplaint accepts a multipart submission from a signed-in user.
// The anonymous flag is honoured.
func (h *Handler) SubmitComplaint(c *gin.Context) {
	h.submit(c, false)
}

// SubmitAnonymous accepts a submission from anyone and never stores who
// sent it.
func (h *Handler) SubmitAnonymous(c *gin.Context) {
	h.submit(c, true)
}

func (h *Handler) submit(c *gin.Context, forceAnonymous bool) {
	actor := actorFrom(c)
	ctx := c.Request.Context()

	if h.Uploads != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Uploads.MaxBytes+multipartOverhead)
	}

	in := complaint.SubmitInput{
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
		Urgency:     c.PostForm("urgency"),
		Anonymous:   forceAnonymous || formBool(c.PostForm("anonymous")),
	}

	stored, err := h.saveAttachment(c)
	if err != nil {
		respondError(c, err)
		return
	}
	in.AttachmentPath = stored

	created, err := h.Complaints.Submit(ctx, actor, in)
	if err != nil {
		if stored != "" {
			if rmErr := h.Uploads.Remove(stored); rmErr != nil {
				logging.Default().Warn("failed to remove orphaned attachment", "file", stored, "error", rmErr)
			}
		}
		respondError(c, err)
		return
	}
	h.respondComplaint(c, http.StatusCreated, created)
}

// saveAttachment stores the optional "file" part and returns its stored
// name, or "" when none was sent.
func (h *Handler) saveAttachment(c *gin.Context) (string, error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return "", apperr.NewValidationError("file", "exceeds the maximum upload size")
	}
	if err != nil {
		return "", apperr.NewValidationError("file", "could not read upload")
	}
	if h.Uploads == nil {
		return "", apperr.NewValidationError("file", "attachments are not accepted")
	}

	f, err := fh.Open()
	if err != nil {
		return "", apperr.NewValidationError("file", "could not read upload")
	}
	defer f.Close()
	return h.Uploads.Save(fh.Filename, f)
}

// AssignComplaint hands a complaint to an officer.
func (h *Handler) AssignComplaint(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	var req assignRequest
	if !bindJSON(c, &req, true) {
		return
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.Complaints.Assign(c.Request.Context(), actorFrom(c), id, complaint.AssignInput{
		OfficerID: req.OfficerID,
		Deadline:  deadline,
		Comment:   req.Comment,
	})
	h.respondMutation(c, updated, err)
}

func (h *Handler) UnassignComplaint(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	updated, err := h.Complaints.Unassign(c.Request.Context(), actorFrom(c), id)
	h.respondMutation(c, updated, err)
}

// UpdateDeadline moves the deadline of an assigned complaint. A missing
// deadline is a validation error.
func (h *Handler) UpdateDeadline(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	var req deadlineRequest
	if !bindJSON(c, &req, true) {
		return
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.Complaints.UpdateDeadline(c.Request.Context(), actorFrom(c), id, deadline, req.Comment)
	h.respondMutation(c, updated, err)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req, true) {
		return
	}
	updated, err := h.Complaints.UpdateStatus(c.Request.Context(), actorFrom(c), id, req.Status, req.Comment)
	h.respondMutation(c, updated, err)
}

func (h *Handler) EscalateComplaint(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	var req escalateRequest
	if !bindJSON(c, &req, false) {
		return
	}
	updated, err := h.Complaints.Escalate(c.Request.Context(), actorFrom(c), id, req.Reason)
	h.respondMutation(c, updated, err)
}

// DeEscalateComplaint takes its optional comment from the query string.
func (h *Handler) DeEscalateComplaint(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	updated, err := h.Complaints.DeEscalate(c.Request.Context(), actorFrom(c), id, c.Query("comment"))
	h.respondMutation(c, updated, err)
}

func (h *Handler) CompleteComplaint(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	updated, err := h.Complaints.MarkCompleted(c.Request.Context(), actorFrom(c), id)
	h.respondMutation(c, updated, err)
}

func (h *Handler) ResolveComplaint(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	updated, err := h.Complaints.MarkResolved(c.Request.Context(), actorFrom(c), id)
	h.respondMutation(c, updated, err)
}

// AddNote records an internal note, visible to staff only.
func (h *Handler) AddNote(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	var req noteRequest
	if !bindJSON(c, &req, true) {
		return
	}
	h.addComment(c, id, req.Note, true)
}

// AddComment records a public comment.
func (h *Handler) AddComment(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req, true) {
		return
	}
	h.addComment(c, id, req.Comment, false)
}

func (h *Handler) addComment(c *gin.Context, id uint, text string, internal bool) {
	cm, err := h.Complaints.AddComment(c.Request.Context(), actorFrom(c), id, text, internal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCommentDTO(*cm))
}

func (h *Handler) GetNotes(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	notes, err := h.Complaints.GetNotes(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCommentDTOs(notes))
}

func (h *Handler) GetMine(c *gin.Context) {
	cs, err := h.Complaints.GetMine(c.Request.Context(), actorFrom(c))
	h.respondList(c, cs, err)
}

func (h *Handler) GetAssigned(c *gin.Context) {
	cs, err := h.Complaints.GetAssigned(c.Request.Context(), actorFrom(c))
	h.respondList(c, cs, err)
}

func (h *Handler) GetAll(c *gin.Context) {
	cs, err := h.Complaints.GetAll(c.Request.Context(), actorFrom(c))
	h.respondList(c, cs, err)
}

func (h *Handler) GetEscalated(c *gin.Context) {
	cs, err := h.Complaints.GetEscalated(c.Request.Context(), actorFrom(c))
	h.respondList(c, cs, err)
}

func (h *Handler) GetUnresolved(c *gin.Context) {
	cs, err := h.Complaints.GetUnresolved(c.Request.Context(), actorFrom(c))
	h.respondList(c, cs, err)
}

// GetPublic is the redacted board; it never exposes identity or comments.
func (h *Handler) GetPublic(c *gin.Context) {
	cs, err := h.Complaints.GetPublic(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPublicDTOs(cs))
}

func (h *Handler) FilterComplaints(c *gin.Context) {
	cs, err := h.Complaints.Filter(c.Request.Context(), actorFrom(c), complaint.FilterInput{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Urgency:  c.Query("urgency"),
	})
	h.respondList(c, cs, err)
}

func (h *Handler) GetComplaint(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	d, err := h.Complaints.GetByID(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toComplaintDTO(*d, h.now()))
}

func (h *Handler) GetTimeline(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	entries, err := h.Complaints.GetTimeline(c.Request.Context(), actorFrom(c), id, formBool(c.Query("includeInternal")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimelineDTOs(entries))
}

func (h *Handler) ListOfficers(c *gin.Context) {
	h.listOfficers(c, false)
}

func (h *Handler) ListOfficersAndAdmins(c *gin.Context) {
	h.listOfficers(c, true)
}

func (h *Handler) listOfficers(c *gin.Context, includeAdmins bool) {
	users, err := h.Complaints.ListOfficers(c.Request.Context(), actorFrom(c), includeAdmins)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserDTOs(users))
}

func (h *Handler) Stats(c *gin.Context) {
	summary, err := h.Complaints.Stats(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) respondMutation(c *gin.Context, updated *models.Complaint, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondComplaint(c, http.StatusOK, updated)
}

func (h *Handler) respondComplaint(c *gin.Context, status int, cmp *models.Complaint) {
	details, err := h.Complaints.Hydrate(c.Request.Context(), actorFrom(c), []models.Complaint{*cmp})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, toComplaintDTO(details[0], h.now()))
}

func (h *Handler) respondList(c *gin.Context, cs []models.Complaint, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	details, err := h.Complaints.Hydrate(c.Request.Context(), actorFrom(c), cs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toComplaintDTOs(details, h.now()))
}

func (h *Handler) now() time.Time {
	if h.Complaints.Now != nil {
		return h.Complaints.Now().UTC()
	}
	return time.Now().UTC()
}

func complaintID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperr.NewValidationError("id", "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the request body into dst. When required is false an
// empty body is accepted and dst keeps its zero value.
func bindJSON(c *gin.Context, dst any, required bool) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	if !required && errors.Is(err, io.EOF) {
		return true
	}
	respondError(c, apperr.NewValidationError("body", "invalid JSON body"))
	return false
}

func formBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
