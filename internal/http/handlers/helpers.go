package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studygraph-backend/internal/requestdata"
)

func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func currentUserID(c *gin.Context) string {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		return ""
	}
	return rd.UserID
}
