package payment

import "github.com/gin-gonic/gin"

type IHandler interface {
	Detail(c *gin.Context)
}
