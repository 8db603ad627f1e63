package handlers

import (
	"errors"
	"image/png"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/digit-canvas/internal/canvas"
	"github.com/Brownie44l1/digit-canvas/internal/session"
)

const (
	defaultTextureScale = 10
	maxTextureScale     = 32
)

// canvasEntry pairs a drawing session with the lock that keeps its events
// strictly sequential across concurrent requests.
type canvasEntry struct {
	mu   sync.Mutex
	sess *session.Session
}

var ErrStoreFull = errors.New("too many canvases")

// Store keeps the live canvas sessions by id, at most limit of them.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*canvasEntry
	limit   int
}

func NewStore(limit int) *Store {
	return &Store{entries: make(map[string]*canvasEntry), limit: limit}
}

func (s *Store) Add(sess *session.Session) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.limit {
		return "", ErrStoreFull
	}
	id := uuid.NewString()
	s.entries[id] = &canvasEntry{sess: sess}
	return id, nil
}

func (s *Store) get(id string) (*canvasEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if ok {
		e.mu.Lock()
		e.sess.Close()
		e.mu.Unlock()
	}
	return ok
}

// Close drops and closes every session.
func (s *Store) Close() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]*canvasEntry)
	s.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		e.sess.Close()
		e.mu.Unlock()
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

type createCanvasRequest struct {
	BrushWidth float64 `json:"brush_width"`
}

type canvasEventRequest struct {
	Type string   `json:"type" binding:"required"`
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
}

func (h *Handler) CreateCanvas(c *gin.Context) {
	var req createCanvasRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON", "message": err.Error()})
			return
		}
	}
	brush := h.brushWidth
	if req.BrushWidth > 0 {
		brush = req.BrushWidth
	}

	desc := h.modelServer.InputDesc()
	cv, err := canvas.New(desc.Width, desc.Height)
	if err != nil {
		log.Err(err).Msg("create canvas")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create canvas", "message": err.Error()})
		return
	}

	sess, err := session.New(cv, h.modelServer, h.modelServer.Metadata, session.WithBrushWidth(brush))
	if err != nil {
		log.Err(err).Msg("create canvas session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create canvas", "message": err.Error()})
		return
	}

	id, err := h.canvases.Add(sess)
	if err != nil {
		sess.Close()
		log.Warn().Int("canvases", h.canvases.Len()).Msg("canvas limit reached")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many canvases", "message": err.Error()})
		return
	}
	log.Info().Str("canvas", id).Msg("canvas created")

	c.JSON(http.StatusCreated, gin.H{
		"id":          id,
		"width":       desc.Width,
		"height":      desc.Height,
		"brush_width": brush,
	})
}

func (h *Handler) CanvasEvent(c *gin.Context) {
	entry, ok := h.canvases.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Canvas not found"})
		return
	}

	var req canvasEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON", "message": err.Error()})
		return
	}
	kind, err := session.ParseEventKind(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event", "message": err.Error()})
		return
	}
	if (req.X == nil) != (req.Y == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event", "message": "x and y must be given together"})
		return
	}

	ev := session.Event{Kind: kind}
	if req.X != nil {
		ev = session.ScreenEvent(kind, *req.X, *req.Y)
	}

	entry.mu.Lock()
	resp, err := entry.sess.Handle(ev)
	inked := entry.sess.Canvas().Inked()
	drawing := entry.sess.Drawing()
	entry.mu.Unlock()

	if err != nil {
		h.predictionFailed(c, err)
		return
	}

	body := gin.H{"drawing": drawing, "inked": inked}
	if resp != nil {
		body["prediction"] = resp
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) CanvasTexture(c *gin.Context) {
	entry, ok := h.canvases.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Canvas not found"})
		return
	}

	scale := defaultTextureScale
	if v := c.Query("scale"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTextureScale {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scale must be between 1 and " + strconv.Itoa(maxTextureScale)})
			return
		}
		scale = n
	}

	entry.mu.Lock()
	img := entry.sess.Canvas().ScaledTexture(scale)
	entry.mu.Unlock()

	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if err := png.Encode(c.Writer, img); err != nil {
		log.Err(err).Msg("encode texture")
	}
}

func (h *Handler) DeleteCanvas(c *gin.Context) {
	if !h.canvases.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Canvas not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
