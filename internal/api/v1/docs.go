// docs.go handles serving built documentation files from the storage backend.
package v1

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docshost/docshost/internal/storage"
	"github.com/docshost/docshost/internal/telemetry"
)

// ServeDocsHandler streams built documentation files for a project version.
// Directory requests (empty or trailing-slash paths) resolve to index.html.
// Implements: GET /docs/:project/:version/*filepath
func ServeDocsHandler(storageBackend storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		project := c.Param("project")
		version := c.Param("version")

		file := strings.TrimPrefix(c.Param("filepath"), "/")
		if file == "" || strings.HasSuffix(file, "/") {
			file += "index.html"
		}

		path := storage.DocsPath(project, version, file)

		exists, err := storageBackend.Exists(c.Request.Context(), path)
		if err != nil {
			// Traversal attempts are a client problem, not a backend one
			if errors.Is(err, storage.ErrInvalidPath) {
				c.JSON(http.StatusNotFound, gin.H{
					"error": "File not found",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check file existence",
			})
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "File not found",
			})
			return
		}

		reader, err := storageBackend.Download(c.Request.Context(), path)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidPath) {
				c.JSON(http.StatusNotFound, gin.H{
					"error": "File not found",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to read file",
			})
			return
		}
		defer reader.Close()

		contentType := mime.TypeByExtension(filepath.Ext(file))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		c.Header("Content-Type", contentType)
		c.Status(http.StatusOK)
		if _, err := io.Copy(c.Writer, reader); err != nil {
			// Headers are already written; nothing to do but stop
			return
		}

		telemetry.DocsServedTotal.WithLabelValues(project, version).Inc()
	}
}
