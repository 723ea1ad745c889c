// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/memoriapp/memoria/normalize"
	"github.com/memoriapp/memoria/photos"
	"github.com/memoriapp/memoria/spatial"
)

// ServerConfig carries the explicit configuration of the API server. The
// default marker colour lives here, not in a package-wide mutable.
type ServerConfig struct {
	Listen       string
	MapsAPIKey   string
	DefaultColor string
	PhotosDir    string // served under /photos when the local store is used
}

// Server exposes the board over HTTP: CRUD, comments, photo upload, session
// management, geocoding assistance, and the live snapshot stream.
type Server struct {
	memories MemoryRepository
	comments CommentRepository
	photos   photos.Store
	auth     *Auth
	geocoder Geocoder
	icons    *normalize.IconCache
	hub      *Hub
	config   ServerConfig
}

// NewServer wires the API server.
func NewServer(memories MemoryRepository, comments CommentRepository, store photos.Store, auth *Auth, geocoder Geocoder, config ServerConfig) *Server {
	if config.DefaultColor == "" {
		config.DefaultColor = normalize.DefaultColor
	}

	return &Server{
		memories: memories,
		comments: comments,
		photos:   store,
		auth:     auth,
		geocoder: geocoder,
		icons:    normalize.NewIconCache(config.DefaultColor),
		hub:      NewHub(),
		config:   config,
	}
}

// Routes registers the API on a gin engine.
func (s *Server) Routes(r *gin.Engine) {
	r.GET("/api/memories", s.listMemories)
	r.POST("/api/memories", s.createMemory)
	r.GET("/api/clusters", s.getClusters)
	r.GET("/api/memories/:id", s.getMemory)
	r.PUT("/api/memories/:id", s.updateMemory)
	r.DELETE("/api/memories/:id", s.deleteMemory)
	r.GET("/api/memories/:id/comments", s.listComments)
	r.POST("/api/memories/:id/comments", s.addComment)
	r.DELETE("/api/memories/:id/comments/:cid", s.deleteComment)
	r.POST("/api/photos", s.uploadPhoto)
	r.GET("/api/session", s.getSession)
	r.POST("/api/session", s.signIn)
	r.DELETE("/api/session", s.signOut)
	r.GET("/api/config", s.getConfig)
	r.GET("/api/stream", s.stream)
	r.POST("/api/geocode", s.geocode)
}

// Run starts the server on the configured address.
func (s *Server) Run() error {
	r := gin.Default()
	s.Routes(r)

	if s.config.PhotosDir != "" {
		r.Static("/photos", s.config.PhotosDir)
	}

	return r.Run(s.config.Listen)
}

// MemoryView is one record of a snapshot: the raw stored document plus the
// render-ready marker. Marker is nil when the document has no resolvable
// position; such pins stay in the list (they are editable) but are not drawn.
type MemoryView struct {
	ID           string            `json:"id"`
	OwnerUID     string            `json:"owner_uid,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Date         string            `json:"date,omitempty"`
	CommentCount int               `json:"comment_count"`
	Marker       *normalize.Marker `json:"marker,omitempty"`
	Doc          map[string]any    `json:"doc"`
}

// Snapshot is the whole-collection view pushed to stream clients and served
// on list requests.
type Snapshot struct {
	Memories []*MemoryView `json:"memories"`
	Count    int           `json:"count"`
}

func (s *Server) buildSnapshot(query string) (*Snapshot, error) {
	memories, err := s.memories.List()
	if err != nil {
		return nil, err
	}

	counts, err := s.comments.CountByMemory()
	if err != nil {
		return nil, err
	}

	views := make([]*MemoryView, 0, len(memories))

	for _, m := range memories {
		if !matchesQuery(m, query) {
			continue
		}

		view := &MemoryView{
			ID:           m.ID,
			OwnerUID:     m.OwnerUID,
			CreatedAt:    m.CreatedAt,
			UpdatedAt:    m.UpdatedAt,
			Date:         m.Date,
			CommentCount: counts[m.ID],
			Doc:          m.RenderDoc(),
		}

		if marker, ok := normalize.Resolve(view.Doc, s.icons); ok {
			view.Marker = &marker
		}

		views = append(views, view)
	}

	return &Snapshot{Memories: views, Count: len(views)}, nil
}

// broadcast pushes a fresh full snapshot to all stream clients. Called after
// every successful mutation.
func (s *Server) broadcast() {
	snapshot, err := s.buildSnapshot("")
	if err != nil {
		log.Printf("building snapshot for broadcast: %v", err)

		return
	}

	s.hub.Broadcast(snapshot)
}

func (s *Server) session(ctx *gin.Context) *Session {
	token, err := ctx.Cookie(SessionCookie)
	if err != nil || token == "" {
		return nil
	}

	session, err := s.auth.Verify(token)
	if err != nil {
		return nil
	}

	return session
}

func (s *Server) requireSession(ctx *gin.Context) *Session {
	session := s.session(ctx)
	if session == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "sign in first"})
	}

	return session
}

type memoryRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Latitude    *float64          `json:"latitude"`
	Longitude   *float64          `json:"longitude"`
	Category    string            `json:"category"`
	Color       string            `json:"color"`
	Date        string            `json:"date"`
	Images      []normalize.Image `json:"images"`
}

func (req *memoryRequest) apply(m *Memory) {
	m.Title = req.Title
	m.Description = req.Description
	m.Category = req.Category
	m.Color = req.Color
	m.Date = req.Date
	m.Images = req.Images
	m.Point = nil

	if req.Latitude != nil && req.Longitude != nil {
		m.Point = &spatial.Point{Lat: *req.Latitude, Lng: *req.Longitude}
	}
}

func (s *Server) listMemories(ctx *gin.Context) {
	snapshot, err := s.buildSnapshot(foldText(ctx.Query("q")))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}

func (s *Server) createMemory(ctx *gin.Context) {
	session := s.requireSession(ctx)
	if session == nil {
		return
	}

	var req memoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	m := &Memory{OwnerUID: session.UID}
	req.apply(m)
	sanitizeMemory(m)

	if err := validateMemory(m); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	m.Doc = nil // canonical shape is derived from the typed fields

	if err := s.memories.Create(m); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	s.broadcast()

	ctx.JSON(http.StatusCreated, gin.H{"id": m.ID})
}

func (s *Server) getMemory(ctx *gin.Context) {
	m, err := s.memories.Get(ctx.Param("id"))
	if errors.Is(err, ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	comments, err := s.comments.ListByMemory(m.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	view := &MemoryView{
		ID:           m.ID,
		OwnerUID:     m.OwnerUID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		Date:         m.Date,
		CommentCount: len(comments),
		Doc:          m.RenderDoc(),
	}

	if marker, ok := normalize.Resolve(view.Doc, s.icons); ok {
		view.Marker = &marker
	}

	ctx.JSON(http.StatusOK, gin.H{"memory": view, "comments": comments})
}

func (s *Server) updateMemory(ctx *gin.Context) {
	session := s.requireSession(ctx)
	if session == nil {
		return
	}

	m, err := s.memories.Get(ctx.Param("id"))
	if errors.Is(err, ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if !s.auth.canModerate(session, m.OwnerUID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "not your memory"})

		return
	}

	var req memoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	req.apply(m)
	sanitizeMemory(m)

	if err := validateMemory(m); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	m.Doc = nil // an edit rewrites the document in canonical shape

	if err := s.memories.Update(m); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	s.broadcast()

	ctx.JSON(http.StatusOK, gin.H{"id": m.ID})
}

func (s *Server) deleteMemory(ctx *gin.Context) {
	session := s.requireSession(ctx)
	if session == nil {
		return
	}

	m, err := s.memories.Get(ctx.Param("id"))
	if errors.Is(err, ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if !s.auth.canModerate(session, m.OwnerUID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "not your memory"})

		return
	}

	if err := s.memories.Delete(m.ID); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	s.broadcast()

	ctx.Status(http.StatusNoContent)
}

func (s *Server) getClusters(ctx *gin.Context) {
	memories, err := s.memories.List()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	counts, err := s.comments.CountByMemory()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if raw := ctx.Query("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a positive number of meters"})

			return
		}

		ctx.JSON(http.StatusOK, BuildDistanceClusters(memories, counts, threshold))

		return
	}

	res := 5

	if raw := ctx.Query("res"); raw != "" {
		res, err = strconv.Atoi(raw)
		if err != nil || res < 1 || res > 8 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "res must be between 1 and 8"})

			return
		}
	}

	clusters, err := BuildCellClusters(memories, counts, res)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, clusters)
}

func (s *Server) listComments(ctx *gin.Context) {
	comments, err := s.comments.ListByMemory(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if comments == nil {
		comments = []*Comment{}
	}

	ctx.JSON(http.StatusOK, comments)
}

func (s *Server) addComment(ctx *gin.Context) {
	session := s.requireSession(ctx)
	if session == nil {
		return
	}

	m, err := s.memories.Get(ctx.Param("id"))
	if errors.Is(err, ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	var req struct {
		Text string `json:"text"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	comment := &Comment{
		MemoryID:  m.ID,
		Author:    session.Name,
		AuthorUID: session.UID,
		Text:      stripMarkup(req.Text),
	}

	if err := validateComment(comment); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := s.comments.Add(comment); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	s.broadcast()

	ctx.JSON(http.StatusCreated, comment)
}

func (s *Server) deleteComment(ctx *gin.Context) {
	session := s.requireSession(ctx)
	if session == nil {
		return
	}

	commentID, err := strconv.Atoi(ctx.Param("cid"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})

		return
	}

	comment, err := s.comments.Get(commentID)
	if errors.Is(err, ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if comment.MemoryID != ctx.Param("id") {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "comment does not belong to this memory"})

		return
	}

	// A comment can be removed by its author, the memory's owner, or the
	// board owner.
	allowed := session.UID == comment.AuthorUID || session.IsOwner(s.auth.OwnerUID())

	if !allowed {
		if m, err := s.memories.Get(comment.MemoryID); err == nil {
			allowed = m.OwnerUID != "" && session.UID == m.OwnerUID
		}
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "not your comment"})

		return
	}

	if err := s.comments.Delete(commentID); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	s.broadcast()

	ctx.Status(http.StatusNoContent)
}

func (s *Server) uploadPhoto(ctx *gin.Context) {
	session := s.requireSession(ctx)
	if session == nil {
		return
	}

	file, err := ctx.FormFile("photo")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})

		return
	}

	src, err := file.Open()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}
	defer src.Close()

	url, err := s.photos.Put(ctx.Request.Context(), file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"url": url})
}

func (s *Server) getSession(ctx *gin.Context) {
	session := s.session(ctx)
	if session == nil {
		ctx.JSON(http.StatusOK, gin.H{"signed_in": false})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"signed_in": true,
		"uid":       session.UID,
		"name":      session.Name,
		"owner":     session.IsOwner(s.auth.OwnerUID()),
	})
}

func (s *Server) signIn(ctx *gin.Context) {
	var req struct {
		Secret string `json:"secret"`
		Name   string `json:"name"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	session, token, err := s.auth.SignIn(req.Secret, req.Name)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	ctx.SetCookie(SessionCookie, token, int(sessionTTL.Seconds()), "/", "", false, true)
	ctx.JSON(http.StatusOK, gin.H{"uid": session.UID, "name": session.Name})
}

func (s *Server) signOut(ctx *gin.Context) {
	ctx.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	ctx.Status(http.StatusNoContent)
}

func (s *Server) getConfig(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"maps_api_key":    s.config.MapsAPIKey,
		"default_color":   s.config.DefaultColor,
		"category_colors": normalize.CategoryColors(),
	})
}

func (s *Server) stream(ctx *gin.Context) {
	snapshot, err := s.buildSnapshot("")
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if err := s.hub.Serve(ctx.Writer, ctx.Request, snapshot); err != nil {
		log.Printf("upgrading stream client: %v", err)
	}
}

func (s *Server) geocode(ctx *gin.Context) {
	if s.geocoder == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "geocoding is not configured"})

		return
	}

	var req struct {
		Address string `json:"address"`
		Region  string `json:"region"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil || req.Address == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})

		return
	}

	result, err := s.geocoder.Geocode(req.Address, req.Region)
	if err != nil {
		status := http.StatusBadGateway

		var geoErr *GeocodingError
		if errors.As(err, &geoErr) && geoErr.Type == ErrorTypeNotFound {
			status = http.StatusNotFound
		}

		if IsRateLimitError(err) || IsQuotaExceededError(err) {
			status = http.StatusTooManyRequests
		}

		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, result)
}
