package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueryInt 读取整数查询参数，缺省时返回 def
func QueryInt(c *gin.Context, key string, def int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
