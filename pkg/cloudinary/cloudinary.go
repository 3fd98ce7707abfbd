// Package cloudinary wraps image uploads for the product catalog.
package cloudinary

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type Client interface {
	UploadProductImage(ctx context.Context, file multipart.File, filename string) (string, error)
}

type client struct {
	cld *cloudinary.Cloudinary
}

// NewClientFromParams returns a no-op client when credentials are missing so
// development setups can run without an account.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return &noopClient{}, nil
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &client{cld: cld}, nil
}

func (c *client) UploadProductImage(ctx context.Context, file multipart.File, filename string) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:   "products",
		PublicID: filename,
	})
	if err != nil {
		return "", err
	}
	return resp.SecureURL, nil
}

type noopClient struct{}

func (n *noopClient) UploadProductImage(ctx context.Context, file multipart.File, filename string) (string, error) {
	return "", errors.New("cloudinary not configured")
}
