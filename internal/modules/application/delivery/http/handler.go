package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"anoa.com/jobapp/internal/modules/application/dto"
	"anoa.com/jobapp/internal/modules/application/service"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/mailer"
	"anoa.com/jobapp/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MaxDocumentSize caps each uploaded document.
const MaxDocumentSize = 5 << 20

type ApplicationHandler struct {
	service service.ApplicationService
}

func NewApplicationHandler(service service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// Apply expects a multipart form with "cv" and "motivation" files.
func (h *ApplicationHandler) Apply(c *gin.Context) {
	identity, err := response.GetIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, fmt.Errorf("invalid offer id: %w", apperror.ErrBadRequest))
		return
	}

	cv, err := readDocument(c, "cv")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	motivation, err := readDocument(c, "motivation")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.Apply(c.Request.Context(), identity, offerID, dto.ApplyInput{
		CV:         cv,
		Motivation: motivation,
	})
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "application submitted successfully", "data": res})
}

func (h *ApplicationHandler) GetMyApplications(c *gin.Context) {
	identity, err := response.GetIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.GetMyApplications(c.Request.Context(), identity)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func readDocument(c *gin.Context, field string) (mailer.Attachment, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return mailer.Attachment{}, fmt.Errorf("%s file is required: %w", field, apperror.ErrInvalidInput)
	}
	if header.Size > MaxDocumentSize {
		return mailer.Attachment{}, fmt.Errorf("%s exceeds %d MB: %w", field, MaxDocumentSize>>20, apperror.ErrInvalidInput)
	}

	content, err := readAll(header)
	if err != nil {
		return mailer.Attachment{}, fmt.Errorf("failed to read %s: %w", field, apperror.ErrBadRequest)
	}

	return mailer.Attachment{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func readAll(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, MaxDocumentSize))
}
