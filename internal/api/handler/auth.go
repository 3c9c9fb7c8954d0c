package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/models"
	"resolveit/backend/internal/storage"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string   `json:"token"`
	Type     string   `json:"type"`
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Roles    []string `json:"roles"`
}

// Signup registers a USER account. Elevated roles are granted by an
// operator, never through this endpoint.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("body", "invalid JSON body"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	switch {
	case len(req.Username) < 3 || len(req.Username) > 50:
		respondError(c, badRequest("username", "must be 3 to 50 characters"))
		return
	case !validEmail(req.Email):
		respondError(c, badRequest("email", "is not a valid address"))
		return
	case len(req.Password) < auth.MinPasswordLength:
		respondError(c, badRequest("password", "is too short"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hash,
		Roles:        pq.StringArray{models.RoleUser},
	}
	if err := h.Users.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			respondError(c, apperr.NewConflictError("username or email is already taken"))
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "id": user.ID})
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("body", "invalid JSON body"))
		return
	}

	invalid := apperr.NewAuthenticationError("invalid username or password")
	user, err := h.Users.GetUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, invalid)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, invalid)
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:    token,
		Type:     "Bearer",
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Roles:    []string(user.Roles),
	})
}

// Me returns the signed-in account.
func (h *Handler) Me(c *gin.Context) {
	actor := actorFrom(c)
	user, err := h.Users.GetUserByID(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, apperr.NewAuthenticationError("account no longer exists"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"fullName": user.FullName,
		"roles":    []string(user.Roles),
		"role":     actor.Role,
	})
}

// authenticate resolves the bearer token into an actor. Requests without
// a token continue as the anonymous actor; a bad token is rejected.
// allowQuery also accepts ?access_token=, for clients that cannot set
// headers (browser websockets).
func (h *Handler) authenticate(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c, allowQuery)
		if err != nil {
			respondError(c, err)
			return
		}

		actor := auth.Anonymous()
		if token != "" {
			uid, err := h.Tokens.Verify(token)
			if err != nil {
				respondError(c, err)
				return
			}
			user, err := h.Users.GetUserByID(c.Request.Context(), uid)
			if errors.Is(err, storage.ErrNotFound) {
				respondError(c, apperr.NewAuthenticationError("account no longer exists"))
				return
			}
			if err != nil {
				respondError(c, err)
				return
			}
			actor = auth.ActorFromUser(user)
		}

		c.Request = c.Request.WithContext(auth.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// requireAction gates a route on the permission table.
func requireAction(action auth.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Authorize(actorFrom(c), action); err != nil {
			respondError(c, err)
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) auth.Actor {
	return auth.ActorFrom(c.Request.Context())
}

func bearerToken(c *gin.Context, allowQuery bool) (string, error) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		if allowQuery {
			return c.Query("access_token"), nil
		}
		return "", nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperr.NewAuthenticationError("malformed Authorization header")
	}
	return strings.TrimSpace(token), nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil && addr.Address == strings.TrimSpace(s)
}
