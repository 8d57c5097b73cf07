package teamslides

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"teamslide-backend/internal/shared/server/respond"
	"teamslide-backend/internal/shared/telemetry"
)

// Pipeline is the part of Service the handler calls.
type Pipeline interface {
	Generate(ctx context.Context, names []string) (*Artifact, error)
	ListCVs(ctx context.Context) ([]string, error)
	Inspect(ctx context.Context, name string) (Inspection, error)
}

// Handler wires HTTP handlers to the team slide pipeline.
type Handler struct {
	Svc Pipeline
}

// NewHandler constructs a Handler.
func NewHandler(svc Pipeline) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches team slide routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generate", h.generate)
	rg.POST("/generate-slide", h.generate)
	rg.GET("/cvs", h.listCVs)
	rg.GET("/cvs/inspect", h.inspect)
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := decodeJSON(c.Request.Body, &req); err != nil || req.Consultants == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Missing 'consultants' field in request body", nil)
		return
	}
	c.Set("consultants", len(req.Consultants))

	artifact, err := h.Svc.Generate(c.Request.Context(), req.Consultants)
	if err != nil {
		writeGenerateError(c, err)
		return
	}
	defer func() {
		if err := artifact.Close(); err != nil {
			telemetry.Warn("slide.cleanup.failed", map[string]any{"path": artifact.Path, "err": err})
		}
	}()

	reader, err := artifact.Open()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to generate team slide: "+err.Error(), nil)
		return
	}
	defer reader.Close()

	headers := map[string]string{
		"Content-Disposition": "attachment; filename=\"" + DownloadName + "\"",
	}
	if artifact.Example {
		headers["X-Team-Slide-Source"] = "example"
	} else {
		c.Set("strategy", artifact.Report.Strategy.String())
		headers["X-Team-Slide-Source"] = "template"
		headers["X-Team-Slide-Strategy"] = artifact.Report.Strategy.String()
		headers["X-Team-Slide-Defaulted"] = strconv.Itoa(artifact.Defaulted())
	}
	c.DataFromReader(http.StatusOK, artifact.Size, PresentationMIME, reader, headers)
}

func (h *Handler) listCVs(c *gin.Context) {
	files, err := h.Svc.ListCVs(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", err.Error(), nil)
		return
	}
	if files == nil {
		files = []string{}
	}
	respond.OK(c, CVListResponse{CVFiles: files})
}

func (h *Handler) inspect(c *gin.Context) {
	out, err := h.Svc.Inspect(c.Request.Context(), c.Query("name"))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "name query parameter is required", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", err.Error(), nil)
		return
	}
	respond.OK(c, out)
}

func writeGenerateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrTemplateNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Template file not found: "+err.Error(), nil)
	case errors.Is(err, ErrExampleNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Pre-generated PowerPoint file not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to generate team slide: "+err.Error(), nil)
	}
}

func decodeJSON(body io.ReadCloser, out any) error {
	if body == nil {
		return io.EOF
	}
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(out); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid json body")
	}
	return nil
}
