// Package handlers expone el catálogo por HTTP con gin.
package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"jewelry-catalog/internal/apperr"
	"jewelry-catalog/internal/media"
	"jewelry-catalog/internal/response"
)

const (
	// ClientIDHeader identifica al dueño de la lista de deseos
	ClientIDHeader = "X-Client-ID"

	maxFilesPerRequest = 10
)

// UploadLimits limita el tamaño de las imágenes recibidas
type UploadLimits struct {
	MaxFileBytes int64
}

func (l UploadLimits) bodyLimit() int64 {
	return l.MaxFileBytes*maxFilesPerRequest + 1<<20
}

// writeError traduce los errores de dominio al sobre de respuesta
func writeError(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		response.BadRequest(c, err.Error())
	case apperr.IsNotFound(err):
		response.NotFound(c, err.Error())
	default:
		log.Error().Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("route", c.FullPath()).
			Msg("request failed")
		response.InternalServerError(c)
	}
}

// queryBool lee un booleano opcional del query string
func queryBool(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.FieldValidation(name, name+" must be a boolean")
	}
	return &v, nil
}

// bind decodifica JSON o formularios (multipart y urlencoded) según el Content-Type
func bind(c *gin.Context, limits UploadLimits, target any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limits.bodyLimit())
	if err := c.ShouldBind(target); err != nil {
		return apperr.Validation("invalid request body: %s", err.Error())
	}
	return nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// readFiles lee los archivos de un campo multipart respetando el límite por archivo
func readFiles(c *gin.Context, field string, limits UploadLimits) ([]media.File, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.Validation("failed to parse form: %s", err.Error())
	}

	headers := form.File[field]
	if len(headers) > maxFilesPerRequest {
		return nil, apperr.FieldValidation(field, fmt.Sprintf("at most %d files are allowed", maxFilesPerRequest))
	}

	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		file, err := readFile(fh, limits.MaxFileBytes)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func readFile(fh *multipart.FileHeader, maxBytes int64) (media.File, error) {
	if fh.Size > maxBytes {
		return media.File{}, apperr.FieldValidation("image", fmt.Sprintf("%s exceeds the %d bytes limit", fh.Filename, maxBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return media.File{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return media.File{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	if int64(len(data)) > maxBytes {
		return media.File{}, apperr.FieldValidation("image", fmt.Sprintf("%s exceeds the %d bytes limit", fh.Filename, maxBytes))
	}
	return media.File{Filename: fh.Filename, Data: data}, nil
}
