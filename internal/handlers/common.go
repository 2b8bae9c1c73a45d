package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/leadforgehq/outreach-backend/internal/utils"
)

func parsePagination(c *gin.Context) (page, pageSize int) {
	return utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))
}

func paginationInfo(total int64, page, pageSize int) utils.PaginationResponse {
	return utils.CalculatePaginationInfo(int(total), page, pageSize)
}
