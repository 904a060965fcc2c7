package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/katakuxiko/pdfqa/internal/model"
	"github.com/katakuxiko/pdfqa/internal/service"
	"go.uber.org/zap"
)

// Public messages. Causes are logged, never sent to the client.
const (
	msgUnready        = "Ollama is not ready. Start Ollama first."
	msgNoDocument     = "Upload a PDF first."
	msgEmptyQuestion  = "Question cannot be empty."
	msgAnswerFailed   = "Failed to answer question."
	msgMissingFile    = "file is required (form field: file)"
	msgBadDocument    = "Could not read text from the PDF."
	msgEmbedding      = "Embedding service is unavailable."
	msgUploadFailed   = "Failed to process PDF."
	msgInternal       = "Internal server error."
	msgModelsFailed   = "Could not list models."
	msgRequestTimeout = "Request timed out."
)

type errorMapping struct {
	kind   error
	status int
	msg    string
}

var uploadErrors = []errorMapping{
	{service.ErrServiceUnready, http.StatusServiceUnavailable, msgUnready},
	{service.ErrBadDocument, http.StatusUnprocessableEntity, msgBadDocument},
	{service.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, msgEmbedding},
	{service.ErrIndexBuildFailed, http.StatusInternalServerError, msgUploadFailed},
	{service.ErrDocumentStore, http.StatusInternalServerError, msgUploadFailed},
}

// Ask errors keep a 200 status; the error body is the signal.
var askErrors = []errorMapping{
	{service.ErrNoDocument, http.StatusOK, msgNoDocument},
	{service.ErrEmptyQuestion, http.StatusOK, msgEmptyQuestion},
	{service.ErrGenerationFailed, http.StatusOK, msgAnswerFailed},
}

func lookup(table []errorMapping, err error, fallbackStatus int, fallbackMsg string) (int, string) {
	for _, m := range table {
		if errors.Is(err, m.kind) {
			return m.status, m.msg
		}
	}
	return fallbackStatus, fallbackMsg
}

func uploadError(err error) (int, string) {
	return lookup(uploadErrors, err, http.StatusInternalServerError, msgUploadFailed)
}

func askError(err error) (int, string) {
	return lookup(askErrors, err, http.StatusOK, msgAnswerFailed)
}

// ErrorHandler renders errors that escape a handler, including recovered
// panics, as a JSON error body.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		msg := msgInternal

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			msg = fe.Message
		}
		if status == fiber.StatusRequestTimeout {
			msg = msgRequestTimeout
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("unhandled error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return c.Status(status).JSON(model.ErrorResponse{Error: msg})
	}
}
