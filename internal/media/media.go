// Package media sube y borra imágenes en el host externo (Cloudinary o MinIO).
// El catálogo solo guarda la referencia (URL + clave de borrado), nunca los bytes,
// salvo el fallback inline como data URI.
package media

import (
	"context"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNotConfigured   = errors.New("image host is not configured")
	ErrEmptyFile       = errors.New("image file is empty")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrInlineTooLarge  = errors.New("image too large to store inline")
)

// File es una imagen recibida en memoria
type File struct {
	Filename string
	Data     []byte
}

// UploadResult es el resultado normalizado de una subida
type UploadResult struct {
	URL    string `json:"url"`
	Ref    string `json:"ref,omitempty"`
	Format string `json:"format,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Bytes  int    `json:"bytes"`
	Inline bool   `json:"inline"`
}

// Host es el proveedor externo de imágenes
type Host interface {
	Name() string
	Upload(ctx context.Context, file File, folder string) (*UploadResult, error)
	Delete(ctx context.Context, ref string) error
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Detect devuelve el MIME real del contenido (no el declarado por el cliente)
func Detect(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	mime := mimetype.Detect(data)
	base := strings.SplitN(mime.String(), ";", 2)[0]
	if !allowedTypes[base] {
		return base, ErrUnsupportedType
	}
	return base, nil
}

// IsClientError indica si el error se debe al archivo enviado y no al host
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyFile) || errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrInlineTooLarge)
}
