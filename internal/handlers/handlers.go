package handlers

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/digit-canvas/internal/model"
	"github.com/Brownie44l1/digit-canvas/internal/tensor"
)

// maxUpload bounds multipart image uploads.
const maxUpload = 10 << 20

type Handler struct {
	modelServer *model.Server
	canvases    *Store
	brushWidth  float64
}

func NewHandler(modelServer *model.Server, brushWidth float64, maxCanvases int) *Handler {
	return &Handler{
		modelServer: modelServer,
		canvases:    NewStore(maxCanvases),
		brushWidth:  brushWidth,
	}
}

// Close ends every open canvas session.
func (h *Handler) Close() {
	h.canvases.Close()
}

// Register mounts every endpoint on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.POST("/predict", h.Predict)
	r.POST("/predict/image", h.PredictFromImage)

	r.POST("/canvas", h.CreateCanvas)
	r.POST("/canvas/:id/events", h.CanvasEvent)
	r.GET("/canvas/:id/texture.png", h.CanvasTexture)
	r.DELETE("/canvas/:id", h.DeleteCanvas)
}

// CORS allows the browser drawing page to call the API from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "canvases": h.canvases.Len()})
}

func (h *Handler) Predict(c *gin.Context) {
	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON", "message": err.Error()})
		return
	}

	result, err := h.modelServer.Predict(c.Request.Context(), req.Image)
	if err != nil {
		h.predictionFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) PredictFromImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided. Use 'image' as the form field name"})
		return
	}

	f, err := file.Open()
	if err != nil {
		log.Err(err).Msg("open uploaded image")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open form file", "message": err.Error()})
		return
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image format. Supported: JPEG, PNG"})
		return
	}

	log.Debug().
		Str("file", file.Filename).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("received image")

	in := tensor.FromImage(img, h.modelServer.InputDesc())
	result, err := h.modelServer.Classify(c.Request.Context(), in)
	if err != nil {
		h.predictionFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) predictionFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tensor.ErrShapeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input does not match the model", "message": err.Error()})
	case errors.Is(err, model.ErrUseAfterRelease):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Model is not loaded"})
	default:
		log.Err(err).Msg("prediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed", "message": fmt.Sprint(err)})
	}
}
