package api

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/katakuxiko/pdfqa/internal/model"
	"github.com/katakuxiko/pdfqa/internal/service"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// QA is the part of the RAG service the handlers drive.
type QA interface {
	Upload(ctx context.Context, filename string, r io.Reader) (service.UploadResult, error)
	Ask(ctx context.Context, question string) (string, error)
	Status() model.Status
}

type ModelLister interface {
	ListModels(ctx context.Context) ([]openai.Model, error)
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	qa            QA
	models        ModelLister
	log           *zap.Logger
	uploadTimeout time.Duration
	askTimeout    time.Duration
}

func NewHandler(qa QA, models ModelLister, log *zap.Logger, uploadTimeout, askTimeout time.Duration) *Handler {
	return &Handler{
		qa:            qa,
		models:        models,
		log:           log,
		uploadTimeout: uploadTimeout,
		askTimeout:    askTimeout,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func (h *Handler) Status(c *fiber.Ctx) error {
	return c.JSON(h.qa.Status())
}

// ListModels proxies the model list of the backend.
func (h *Handler) ListModels(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	models, err := h.models.ListModels(ctx)
	if err != nil {
		h.log.Warn("list models", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(model.ErrorResponse{Error: msgModelsFailed})
	}
	return c.JSON(models)
}

// UploadPDF stores the file from the "file" form field and indexes it,
// replacing whatever document was active.
func (h *Handler) UploadPDF(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Error: msgMissingFile})
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.UserContext(), h.uploadTimeout)
	defer cancel()

	if _, err := h.qa.Upload(ctx, fh.Filename, f); err != nil {
		status, msg := uploadError(err)
		return c.Status(status).JSON(model.ErrorResponse{Error: msg})
	}
	return c.JSON(model.UploadResponse{
		Message: fmt.Sprintf("PDF '%s' uploaded & processed successfully!", fh.Filename),
	})
}

// AskQuestion answers from the active document. Handled failures come back
// with status 200 and an error body.
func (h *Handler) AskQuestion(c *fiber.Ctx) error {
	var req model.AskRequest
	if err := c.BodyParser(&req); err != nil {
		h.log.Debug("malformed ask body", zap.Error(err))
		req.Question = ""
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.askTimeout)
	defer cancel()

	answer, err := h.qa.Ask(ctx, req.Question)
	if err != nil {
		status, msg := askError(err)
		return c.Status(status).JSON(model.ErrorResponse{Error: msg})
	}
	return c.JSON(model.AskResponse{Answer: answer})
}
