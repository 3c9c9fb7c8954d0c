package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"resolveit/backend/internal/analysis"
	"resolveit/backend/internal/escalation"
)

// Submission is a new complaint. File is optional.
type Submission struct {
	Category    string
	Description string
	Urgency     string
	Anonymous   bool
	FileName    string
	File        io.Reader
}

func (c *Client) Signup(ctx context.Context, username, email, password, fullName string) error {
	r, err := jsonRequest(http.MethodPost, "/auth/signup", "", map[string]string{
		"username": username, "email": email, "password": password, "fullName": fullName,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, r, nil)
}

func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}
	var out Session
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit posts a complaint. An empty token submits anonymously.
func (c *Client) Submit(ctx context.Context, token string, s Submission) (*Complaint, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"category":    s.Category,
		"description": s.Description,
		"urgency":     s.Urgency,
		"anonymous":   strconv.FormatBool(s.Anonymous),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, goerr.Wrap(err, "failed to build submission")
		}
	}
	if s.File != nil {
		fw, err := mw.CreateFormFile("file", s.FileName)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to build submission")
		}
		if _, err := io.Copy(fw, s.File); err != nil {
			return nil, goerr.Wrap(err, "failed to read attachment", goerr.V("file", s.FileName))
		}
	}
	if err := mw.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to build submission")
	}

	path := "/complaints/submit"
	if token == "" {
		path += "/anonymous"
	}
	var out Complaint
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		token:       token,
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Assign hands complaint id to an officer. A zero deadline sends none.
func (c *Client) Assign(ctx context.Context, token string, id, officerID uint, deadline time.Time, comment string) (*Complaint, error) {
	body := map[string]any{"officerId": officerID, "comment": comment}
	if !deadline.IsZero() {
		body["deadline"] = deadline.UTC().Format(time.RFC3339)
	}
	return c.mutate(ctx, http.MethodPut, "/complaints/assign/", id, token, body)
}

func (c *Client) Unassign(ctx context.Context, token string, id uint) (*Complaint, error) {
	return c.mutate(ctx, http.MethodPut, "/complaints/unassign/", id, token, nil)
}

// UpdateDeadline sets the deadline; a zero time clears it.
func (c *Client) UpdateDeadline(ctx context.Context, token string, id uint, deadline time.Time, comment string) (*Complaint, error) {
	body := map[string]string{"comment": comment}
	if !deadline.IsZero() {
		body["deadline"] = deadline.UTC().Format(time.RFC3339)
	}
	return c.mutate(ctx, http.MethodPut, "/complaints/deadline/", id, token, body)
}

func (c *Client) UpdateStatus(ctx context.Context, token string, id uint, status, comment string) (*Complaint, error) {
	return c.mutate(ctx, http.MethodPut, "/complaints/status/", id, token, map[string]string{"status": status, "comment": comment})
}

func (c *Client) Escalate(ctx context.Context, token string, id uint, reason string) (*Complaint, error) {
	return c.mutate(ctx, http.MethodPost, "/complaints/escalate/", id, token, map[string]string{"reason": reason})
}

func (c *Client) DeEscalate(ctx context.Context, token string, id uint, comment string) (*Complaint, error) {
	r := request{method: http.MethodPut, path: "/complaints/de-escalate/" + itoa(id), token: token}
	if comment != "" {
		r.query = url.Values{"comment": {comment}}
	}
	var out Complaint
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkCompleted(ctx context.Context, token string, id uint) (*Complaint, error) {
	return c.mutate(ctx, http.MethodPut, "/complaints/complete/", id, token, nil)
}

func (c *Client) MarkResolved(ctx context.Context, token string, id uint) (*Complaint, error) {
	return c.mutate(ctx, http.MethodPut, "/complaints/resolve/", id, token, nil)
}

func (c *Client) AddNote(ctx context.Context, token string, id uint, note string) (*Comment, error) {
	return c.comment(ctx, "/complaints/notes/", id, token, map[string]string{"note": note})
}

func (c *Client) AddComment(ctx context.Context, token string, id uint, text string) (*Comment, error) {
	return c.comment(ctx, "/complaints/comments/", id, token, map[string]string{"comment": text})
}

func (c *Client) GetNotes(ctx context.Context, token string, id uint) ([]Comment, error) {
	var out []Comment
	err := c.do(ctx, request{method: http.MethodGet, path: "/complaints/notes/" + itoa(id), token: token}, &out)
	return out, err
}

func (c *Client) Get(ctx context.Context, token string, id uint) (*Complaint, error) {
	var out Complaint
	if err := c.do(ctx, request{method: http.MethodGet, path: "/complaints/" + itoa(id), token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Timeline(ctx context.Context, token string, id uint, includeInternal bool) ([]TimelineEntry, error) {
	var out []TimelineEntry
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/complaints/" + itoa(id) + "/timeline",
		query:  url.Values{"includeInternal": {strconv.FormatBool(includeInternal)}},
		token:  token,
	}, &out)
	return out, err
}

func (c *Client) Mine(ctx context.Context, token string) ([]Complaint, error) {
	return c.list(ctx, token, "/complaints/my", nil)
}

func (c *Client) Assigned(ctx context.Context, token string) ([]Complaint, error) {
	return c.list(ctx, token, "/complaints/assigned", nil)
}

func (c *Client) All(ctx context.Context, token string) ([]Complaint, error) {
	return c.list(ctx, token, "/complaints/admin/all", nil)
}

func (c *Client) Escalated(ctx context.Context, token string) ([]Complaint, error) {
	return c.list(ctx, token, "/complaints/admin/escalated", nil)
}

func (c *Client) Unresolved(ctx context.Context, token string) ([]Complaint, error) {
	return c.list(ctx, token, "/complaints/admin/unresolved", nil)
}

// Filter matches conjunctively; empty arguments are omitted.
func (c *Client) Filter(ctx context.Context, token, status, category, urgency string) ([]Complaint, error) {
	q := url.Values{}
	for k, v := range map[string]string{"status": status, "category": category, "urgency": urgency} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return c.list(ctx, token, "/complaints/filter", q)
}

func (c *Client) Public(ctx context.Context) ([]PublicComplaint, error) {
	var out []PublicComplaint
	err := c.do(ctx, request{method: http.MethodGet, path: "/complaints/public"}, &out)
	return out, err
}

func (c *Client) Officers(ctx context.Context, token string, includeAdmins bool) ([]User, error) {
	path := "/complaints/officers"
	if includeAdmins {
		path = "/complaints/officers-and-admins"
	}
	var out []User
	err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context, token string) (*analysis.Summary, error) {
	var out analysis.Summary
	if err := c.do(ctx, request{method: http.MethodGet, path: "/complaints/admin/stats", token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TriggerEscalation runs an escalation pass and waits for its result.
func (c *Client) TriggerEscalation(ctx context.Context, token string) (*escalation.RunResult, error) {
	var out escalation.RunResult
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auto-escalation/trigger", token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueueEscalation pokes the background worker without waiting.
func (c *Client) QueueEscalation(ctx context.Context, token string) (*EscalationTrigger, error) {
	var out EscalationTrigger
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auto-escalation/trigger",
		query:  url.Values{"async": {"true"}},
		token:  token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EscalationHealth reports the worker state. A DOWN worker answers 503,
// which surfaces as a TransientError.
func (c *Client) EscalationHealth(ctx context.Context) (*escalation.Health, error) {
	var out escalation.Health
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auto-escalation/health"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) mutate(ctx context.Context, method, prefix string, id uint, token string, body any) (*Complaint, error) {
	r, err := jsonRequest(method, prefix+itoa(id), token, body)
	if err != nil {
		return nil, err
	}
	var out Complaint
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) comment(ctx context.Context, prefix string, id uint, token string, body any) (*Comment, error) {
	r, err := jsonRequest(http.MethodPost, prefix+itoa(id), token, body)
	if err != nil {
		return nil, err
	}
	var out Comment
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) list(ctx context.Context, token, path string, q url.Values) ([]Complaint, error) {
	var out []Complaint
	err := c.do(ctx, request{method: http.MethodGet, path: path, query: q, token: token}, &out)
	return out, err
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
