package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/pdfchat-be/middleware"
	"github.com/tieubaoca/pdfchat-be/service"
	"github.com/tieubaoca/pdfchat-be/types"
)

type DocumentHandler interface {
	HandleList(c *gin.Context)
	HandleGet(c *gin.Context)
	HandleGetByKey(c *gin.Context)
	HandleUpdate(c *gin.Context)
	HandleRecordView(c *gin.Context)
	HandleStatus(c *gin.Context)
	HandleDelete(c *gin.Context)
	HandleListMessages(c *gin.Context)
}

type documentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) DocumentHandler {
	return &documentHandler{
		documents: documents,
	}
}

func (h *documentHandler) HandleList(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, docs)
}

func (h *documentHandler) HandleGet(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, doc)
}

func (h *documentHandler) HandleGetByKey(c *gin.Context) {
	doc, err := h.documents.GetByKey(c.Request.Context(), c.Param("key"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, doc)
}

func (h *documentHandler) HandleUpdate(c *gin.Context) {
	var req types.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid request body",
		})
		return
	}
	doc, err := h.documents.Update(c.Request.Context(), c.Param("id"), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, doc)
}

func (h *documentHandler) HandleRecordView(c *gin.Context) {
	doc, err := h.documents.RecordView(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, doc)
}

func (h *documentHandler) HandleStatus(c *gin.Context) {
	status, err := h.documents.Status(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, types.UploadStatusResponse{Status: status})
}

func (h *documentHandler) HandleDelete(c *gin.Context) {
	doc, err := h.documents.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, types.DeleteDocumentResponse{
		Success:     true,
		DeletedFile: *doc,
	})
}

func (h *documentHandler) HandleListMessages(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, types.DataResponse{
				Status:  false,
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	page, err := h.documents.ListMessages(c.Request.Context(), c.Param("id"), middleware.UserID(c), c.Query("cursor"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, page)
}
