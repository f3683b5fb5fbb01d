// Package storage archives generated images in Google Cloud Storage so a
// result outlives its side-state entry.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Archive stores and loads result payloads by job id.
type Archive interface {
	Put(ctx context.Context, jobID, contentType string, data []byte) error
	// Get returns (nil, "", nil) when the object does not exist.
	Get(ctx context.Context, jobID string) ([]byte, string, error)
}

type ClientUploader struct {
	cl         *storage.Client
	bucketName string
	uploadPath string
}

// NewClientUploader uses application default credentials unless opts say
// otherwise.
func NewClientUploader(ctx context.Context, bucketName, uploadPath string, opts ...option.ClientOption) (*ClientUploader, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("Failed to create client: %v", err)
	}
	return &ClientUploader{
		cl:         client,
		bucketName: bucketName,
		uploadPath: uploadPath,
	}, nil
}

func (c *ClientUploader) objectPath(jobID string) string {
	return c.uploadPath + jobID
}

func (c *ClientUploader) Put(ctx context.Context, jobID, contentType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*50)
	defer cancel()

	wc := c.cl.Bucket(c.bucketName).Object(c.objectPath(jobID)).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("io.Copy: %v", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %v", err)
	}
	return nil
}

func (c *ClientUploader) Get(ctx context.Context, jobID string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*50)
	defer cancel()

	rc, err := c.cl.Bucket(c.bucketName).Object(c.objectPath(jobID)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("Object.NewReader: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("io.ReadAll: %v", err)
	}
	return data, rc.Attrs.ContentType, nil
}

func (c *ClientUploader) Close() error {
	return c.cl.Close()
}
