package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	_ "golang.org/x/image/webp"
)

type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
	MaxWidth  int
	MaxHeight int
}

// MinIO guarda las imágenes en un bucket S3-compatible; la referencia es la clave del objeto
type MinIO struct {
	client    *minio.Client
	bucket    string
	publicURL string
	maxWidth  int
	maxHeight int
}

// NewMinIO crea el cliente y el bucket si no existe
func NewMinIO(ctx context.Context, opts MinIOOptions) (*MinIO, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	publicURL := strings.TrimRight(opts.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("%s/%s", client.EndpointURL().String(), opts.Bucket)
	}

	return &MinIO{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: publicURL,
		maxWidth:  opts.MaxWidth,
		maxHeight: opts.MaxHeight,
	}, nil
}

func (m *MinIO) Name() string { return "minio" }

func (m *MinIO) Upload(ctx context.Context, file File, folder string) (*UploadResult, error) {
	limited, err := LimitDimensions(file.Data, m.maxWidth, m.maxHeight)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s.%s", strings.Trim(folder, "/"), uuid.NewString(), limited.Format)
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(limited.Data), int64(len(limited.Data)), minio.PutObjectOptions{
		ContentType: limited.MIME,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to minio: %w", err)
	}

	return &UploadResult{
		URL:    m.publicURL + "/" + key,
		Ref:    key,
		Format: limited.Format,
		Width:  limited.Width,
		Height: limited.Height,
		Bytes:  len(limited.Data),
	}, nil
}

func (m *MinIO) Delete(ctx context.Context, ref string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// LimitedImage es una imagen ya ajustada a las dimensiones máximas
type LimitedImage struct {
	Data   []byte
	MIME   string
	Format string
	Width  int
	Height int
}

// LimitDimensions reduce la imagen (imaging.Fit) si excede maxWidth x maxHeight.
// Las imágenes que ya caben se devuelven sin re-codificar.
func LimitDimensions(data []byte, maxWidth, maxHeight int) (*LimitedImage, error) {
	mime, err := Detect(data)
	if err != nil {
		return nil, err
	}
	format := strings.TrimPrefix(mime, "image/")
	if format == "jpeg" {
		format = "jpg"
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	out := &LimitedImage{Data: data, MIME: mime, Format: format, Width: cfg.Width, Height: cfg.Height}
	if maxWidth <= 0 || maxHeight <= 0 || (cfg.Width <= maxWidth && cfg.Height <= maxHeight) {
		return out, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}
	resized := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	// webp no se puede re-codificar: pasa a JPEG
	target, targetMIME, targetFormat := imaging.JPEG, "image/jpeg", "jpg"
	if mime == "image/png" || mime == "image/gif" {
		target, targetMIME, targetFormat = imaging.PNG, "image/png", "png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, target, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("cannot encode image: %w", err)
	}

	bounds := resized.Bounds()
	return &LimitedImage{
		Data:   buf.Bytes(),
		MIME:   targetMIME,
		Format: targetFormat,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
