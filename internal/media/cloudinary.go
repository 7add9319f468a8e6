package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary sube imágenes limitando sus dimensiones con una transformación c_limit
type Cloudinary struct {
	cld            *cloudinary.Cloudinary
	transformation string
}

func NewCloudinary(cloudinaryURL string, maxWidth, maxHeight int) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	cld.Config.URL.Secure = true
	return NewCloudinaryFromClient(cld, maxWidth, maxHeight), nil
}

func NewCloudinaryFromClient(cld *cloudinary.Cloudinary, maxWidth, maxHeight int) *Cloudinary {
	return &Cloudinary{
		cld:            cld,
		transformation: fmt.Sprintf("c_limit,w_%d,h_%d", maxWidth, maxHeight),
	}
}

func (c *Cloudinary) Name() string { return "cloudinary" }

func (c *Cloudinary) Upload(ctx context.Context, file File, folder string) (*UploadResult, error) {
	resp, err := c.cld.Upload.Upload(ctx, bytes.NewReader(file.Data), uploader.UploadParams{
		Folder:         folder,
		Transformation: c.transformation,
		UniqueFilename: api.Bool(true),
		Overwrite:      api.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}

	return &UploadResult{
		URL:    resp.SecureURL,
		Ref:    resp.PublicID,
		Format: resp.Format,
		Width:  resp.Width,
		Height: resp.Height,
		Bytes:  resp.Bytes,
	}, nil
}

// Delete borra el recurso; "not found" se considera borrado
func (c *Cloudinary) Delete(ctx context.Context, ref string) error {
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: ref})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", resp.Error.Message)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy: unexpected result %q", resp.Result)
	}
	return nil
}
