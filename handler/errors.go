package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/pdfchat-be/service"
	"github.com/tieubaoca/pdfchat-be/types"
)

func writeError(c *gin.Context, err error) {
	status, msg := service.ErrorStatus(err)
	c.JSON(status, types.DataResponse{
		Status:  false,
		Message: msg,
	})
}

func writeData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, types.DataResponse{
		Status: true,
		Data:   data,
	})
}
