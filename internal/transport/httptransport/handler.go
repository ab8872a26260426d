package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/awmpietro/golang-execution-graph/internal/app"
	"github.com/awmpietro/golang-execution-graph/internal/render"
	"github.com/awmpietro/golang-execution-graph/internal/transport/renderdto"
)

const dotContentType = "text/vnd.graphviz; charset=utf-8"

type Handler struct {
	svc    app.RenderService
	logger *zap.Logger
}

func NewHandler(svc app.RenderService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Render(c *gin.Context) {
	out, ok := h.render(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, renderdto.NewRenderResponse(out))
}

func (h *Handler) RenderDOT(c *gin.Context) {
	out, ok := h.render(c)
	if !ok {
		return
	}
	dot, err := render.DOT(out.Graph)
	if err != nil {
		h.logger.Error("failed to render DOT", zap.Error(err), zap.String("request_id", requestIDFrom(c)))
		c.JSON(http.StatusInternalServerError, renderdto.ErrorResponse{Error: "render failed", Details: err.Error()})
		return
	}
	c.Data(http.StatusOK, dotContentType, []byte(dot))
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) render(c *gin.Context) (*app.RenderOutput, bool) {
	var in renderdto.RenderRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, renderdto.ErrorResponse{Error: "invalid json", Details: err.Error()})
		return nil, false
	}

	events, err := in.DecodeEvents()
	if err != nil {
		c.JSON(http.StatusBadRequest, renderdto.ErrorResponse{Error: "invalid events", Details: err.Error()})
		return nil, false
	}

	out, err := h.svc.Render(c.Request.Context(), in.Definition, events, in.Options())
	if err != nil {
		h.logger.Warn("render failed", zap.Error(err), zap.String("request_id", requestIDFrom(c)))
		c.JSON(http.StatusBadRequest, renderdto.ErrorResponse{Error: "render failed", Details: err.Error()})
		return nil, false
	}
	return out, true
}
