package tags

import (
	"errors"
	"net/http"

	"github.com/catalogodata/catalogo_backend/config"
	"github.com/gin-gonic/gin"
	"google.golang.org/genai"
)

func GenerateTagsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input GenerateTagsInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productName is required"})
			return
		}

		ctx := c.Request.Context()
		generator, err := NewGenerator(ctx)
		if err != nil {
			if errors.Is(err, ErrGeneratorUnconfigured) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "tag generation backend is not configured"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		result, err := generator.GenerateTags(ctx, input)
		if err != nil {
			var apiErr genai.APIError
			if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Code == http.StatusPaymentRequired) {
				c.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
				return
			}
			config.LogError(config.GetLogger(), "tags", "GenerateTagsHandler", "generation failed", input.ProductName, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// ExtractTagsHandler serves the query-to-tags helper used by catalog search.
func ExtractTagsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tags": ExtractTags(c.Query("q"))})
	}
}
