package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blogpost-api/internal/domain"
	"blogpost-api/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	posts    service.PostService
	accounts service.AuthService
	verifier TokenVerifier
	logger   logrus.FieldLogger
	origins  []string
}

func NewHandler(posts service.PostService, accounts service.AuthService, verifier TokenVerifier, logger logrus.FieldLogger, corsOrigins []string) *Handler {
	return &Handler{
		posts:    posts,
		accounts: accounts,
		verifier: verifier,
		logger:   logger,
		origins:  corsOrigins,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(h.origins))
	router.Use(requestLogger(h.logger))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	blog := router.Group("/blogpost")
	{
		blog.POST("/register", h.register)
		blog.POST("/login", h.login)

		secured := blog.Group("", authRequired(h.verifier))
		secured.GET("/posts", h.listPosts)
		secured.POST("/posts", h.createPost)
		secured.PUT("/posts/:id", h.updatePost)
		secured.GET("/users", h.listUsers)
	}
}

const invalidBody = "invalid request body"

type envelope[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

// userRequest carries no binding rules: the service decides whether a
// username exists, so empty fields still get "User does not exist" or a 409.
type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type postRequest struct {
	Text     string `json:"text"`
	AuthorID int64  `json:"authorId"`
}

type PostResponse struct {
	Text     string `json:"text"`
	AuthorID int64  `json:"authorId"`
}

type PostListItem struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	AuthorID int64  `json:"authorId"`
}

func (h *Handler) register(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope[any]{Status: invalidBody})
		return
	}

	if _, err := h.accounts.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		h.writeError(c, err, req)
		return
	}

	c.JSON(http.StatusOK, envelope[string]{Data: "Created Account"})
}

func (h *Handler) login(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope[any]{Status: invalidBody})
		return
	}

	token, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err, req)
		return
	}

	c.JSON(http.StatusOK, envelope[string]{Data: token})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.accounts.ListUsers(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}

	items := make([]PostListItem, len(posts))
	for i := range posts {
		items[i] = PostListItem{
			ID:       posts[i].ID,
			Text:     posts[i].Text,
			AuthorID: posts[i].AuthorID,
		}
	}
	c.JSON(http.StatusOK, envelope[[]PostListItem]{Status: "success", Data: items})
}

// createPost echoes the request body; the stored author is always the caller.
func (h *Handler) createPost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope[any]{Status: invalidBody})
		return
	}

	_, err := h.posts.CreatePost(c.Request.Context(), callerFrom(c), service.PostPatch{
		Text:     req.Text,
		AuthorID: req.AuthorID,
	})
	if err != nil {
		h.writeError(c, err, req)
		return
	}

	c.JSON(http.StatusCreated, PostResponse{Text: req.Text, AuthorID: req.AuthorID})
}

func (h *Handler) updatePost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, envelope[any]{Status: "invalid post id"})
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope[any]{Status: invalidBody})
		return
	}

	post, err := h.posts.UpdatePost(c.Request.Context(), callerFrom(c), id, service.PostPatch{
		Text:     req.Text,
		AuthorID: req.AuthorID,
	})
	if err != nil {
		h.writeError(c, err, req)
		return
	}

	// 201 on update matches create
	c.JSON(http.StatusCreated, PostResponse{Text: post.Text, AuthorID: post.AuthorID})
}

// writeError maps service errors onto status codes and envelopes.
func (h *Handler) writeError(c *gin.Context, err error, req any) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, envelope[any]{Status: "Unauthorized"})
	case errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusConflict, envelope[any]{Status: "Username already exists!", Data: req})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusBadRequest, envelope[any]{Status: "User does not exist", Data: req})
	case errors.Is(err, service.ErrWrongPassword):
		c.JSON(http.StatusBadRequest, envelope[any]{Status: "Wrong Password", Data: req})
	case errors.Is(err, service.ErrPostNotFound):
		c.JSON(http.StatusNotFound, envelope[any]{Status: "Post not found", Data: req})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, envelope[any]{Status: "internal error"})
	}
}
