package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/digit-canvas/internal/model"
	"github.com/Brownie44l1/digit-canvas/internal/model/modeltest"
)

func newRouter(t *testing.T) (*gin.Engine, *model.Server) {
	t.Helper()
	r, srv, _ := newRouterWithLimit(t, 16)
	return r, srv
}

func newRouterWithLimit(t *testing.T, maxCanvases int) (*gin.Engine, *model.Server, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv, err := model.NewServer(modeltest.WriteGolden(t))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	h := NewHandler(srv, 2, maxCanvases)
	t.Cleanup(h.Close)

	r := gin.New()
	r.Use(CORS())
	h.Register(r)
	return r, srv, h
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t)
	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOptions(t *testing.T) {
	r, _ := newRouter(t)
	w := do(r, http.MethodOptions, "/predict", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func discPixels() []float32 {
	pix := make([]float32, 28*28)
	for y := 13; y <= 15; y++ {
		for x := 13; x <= 15; x++ {
			pix[y*28+x] = 1
		}
	}
	return pix
}

func TestPredict(t *testing.T) {
	r, _ := newRouter(t)

	body, err := json.Marshal(model.PredictionRequest{Image: discPixels()})
	require.NoError(t, err)

	w := do(r, http.MethodPost, "/predict", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.PredictionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, modeltest.GoldenDigit, resp.Digit)
	assert.Equal(t, "7", resp.Class)
}

func TestPredictBadInput(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodPost, "/predict", `{"image":[1,2,3]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "shape mismatch")

	w = do(r, http.MethodPost, "/predict", `{"image":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictFromImage(t *testing.T) {
	r, _ := newRouter(t)

	img := image.NewGray(image.Rect(0, 0, 28, 28))
	for y := 13; y <= 15; y++ {
		for x := 13; x <= 15; x++ {
			img.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "seven.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, img))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.PredictionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, modeltest.GoldenDigit, resp.Digit)
}

func TestPredictFromImageMissingFile(t *testing.T) {
	r, _ := newRouter(t)
	w := do(r, http.MethodPost, "/predict/image", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCanvasFlow(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodPost, "/canvas", `{"brush_width":10}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID     string  `json:"id"`
		Width  int     `json:"width"`
		Brush  float64 `json:"brush_width"`
		Height int     `json:"height"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 28, created.Width)
	assert.Equal(t, 10.0, created.Brush)
	base := "/canvas/" + created.ID

	w = do(r, http.MethodPost, base+"/events", `{"type":"press"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, base+"/events", `{"type":"drag","x":14,"y":14}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"inked":69`)

	w = do(r, http.MethodPost, base+"/events", `{"type":"release"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var released struct {
		Drawing    bool                     `json:"drawing"`
		Prediction model.PredictionResponse `json:"prediction"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &released))
	assert.False(t, released.Drawing)
	assert.Equal(t, modeltest.GoldenDigit, released.Prediction.Digit)

	w = do(r, http.MethodGet, base+"/texture.png?scale=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	tex, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 56, 56), tex.Bounds())

	w = do(r, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodPost, base+"/events", `{"type":"press"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCanvasEventErrors(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodPost, "/canvas", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	base := "/canvas/" + created.ID

	w = do(r, http.MethodPost, base+"/events", `{"type":"hover"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, base+"/events", `{"type":"drag","x":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, base+"/events", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, base+"/texture.png?scale=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/canvas/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPredictAfterClose(t *testing.T) {
	r, srv := newRouter(t)
	require.NoError(t, srv.Close())

	body, err := json.Marshal(model.PredictionRequest{Image: discPixels()})
	require.NoError(t, err)
	w := do(r, http.MethodPost, "/predict", string(body))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCanvasLimit(t *testing.T) {
	r, _, h := newRouterWithLimit(t, 2)

	var ids []string
	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/canvas", "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		ids = append(ids, created.ID)
	}

	w := do(r, http.MethodPost, "/canvas", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 2, h.canvases.Len())

	w = do(r, http.MethodDelete, "/canvas/"+ids[0], "")
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodPost, "/canvas", "")
	assert.Equal(t, http.StatusCreated, w.Code)

	h.Close()
	assert.Zero(t, h.canvases.Len())
	w = do(r, http.MethodPost, "/canvas/"+ids[1]+"/events", `{"type":"press"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
