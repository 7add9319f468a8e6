package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog/log"
)

// Gateway envuelve el host configurado al arrancar (nil = sin host)
type Gateway struct {
	host      Host
	folder    string
	maxInline int64
}

func NewGateway(host Host, folder string, maxInlineBytes int64) *Gateway {
	return &Gateway{host: host, folder: folder, maxInline: maxInlineBytes}
}

// Configured indica si hay un host externo disponible
func (g *Gateway) Configured() bool {
	return g.host != nil
}

func (g *Gateway) folderFor(sub string) string {
	return path.Join(g.folder, sub)
}

// Upload sube la imagen al host sin fallback
func (g *Gateway) Upload(ctx context.Context, file File, sub string) (*UploadResult, error) {
	if _, err := Detect(file.Data); err != nil {
		return nil, err
	}
	if !g.Configured() {
		return nil, ErrNotConfigured
	}
	result, err := g.host.Upload(ctx, file, g.folderFor(sub))
	if err != nil {
		return nil, fmt.Errorf("%s upload: %w", g.host.Name(), err)
	}
	return result, nil
}

// Store sube la imagen y, si no hay host o la subida falla, la guarda inline
// como data URI (limitado a maxInline bytes).
func (g *Gateway) Store(ctx context.Context, file File, sub string) (*UploadResult, error) {
	mime, err := Detect(file.Data)
	if err != nil {
		return nil, err
	}

	if g.Configured() {
		result, err := g.host.Upload(ctx, file, g.folderFor(sub))
		if err == nil {
			return result, nil
		}
		log.Warn().Err(err).
			Str("provider", g.host.Name()).
			Str("filename", file.Filename).
			Msg("image upload failed, falling back to inline data URI")
	}

	if int64(len(file.Data)) > g.maxInline {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrInlineTooLarge, len(file.Data), g.maxInline)
	}
	return &UploadResult{
		URL:    DataURI(mime, file.Data),
		Format: strings.TrimPrefix(mime, "image/"),
		Bytes:  len(file.Data),
		Inline: true,
	}, nil
}

// DataURI codifica los bytes como data:<mime>;base64,...
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
