package utils

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// Employee documents (contracts, IDs, certificates) live in a GCS bucket.
// Objects are named employees/<employeeID>/<timestamp>-<uuid><ext>.

func NewGCSClient(ctx context.Context) (*storage.Client, string, error) {
	bucket := os.Getenv("GCS_BUCKET")
	credentialsPath := os.Getenv("CREDENTIALS_FILE_LOCATION")
	if credentialsPath == "" {
		client, err := storage.NewClient(ctx)
		return client, bucket, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	client, err := storage.NewClient(ctx,
		option.WithCredentialsFile(filepath.Join(wd, credentialsPath)))
	if err != nil {
		return nil, "", err
	}
	return client, bucket, nil
}

type UploadedDocument struct {
	ObjectName string    `json:"objectName"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedAt time.Time `json:"uploadedAt"`
}

var allowedDocumentExt = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

func UploadEmployeeDocument(
	ctx context.Context,
	client *storage.Client,
	bucketName string,
	employeeID string,
	fileHeader *multipart.FileHeader,
) (*UploadedDocument, error) {
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedDocumentExt[ext] {
		return nil, fmt.Errorf("file type not allowed (allowed: pdf, jpg, jpeg, png, webp)")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	objectName := fmt.Sprintf("employees/%s/%d-%s%s",
		employeeID, time.Now().UTC().Unix(), uuid.New().String(), ext)

	writer := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	ct := fileHeader.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	writer.ContentType = ct
	writer.CacheControl = "no-cache"

	if _, err := io.Copy(writer, file); err != nil {
		_ = writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return &UploadedDocument{
		ObjectName: objectName,
		FileName:   fileHeader.Filename,
		MimeType:   ct,
		SizeBytes:  fileHeader.Size,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// SignedDocumentURL presigns a short-lived download link so documents are
// never publicly readable.
func SignedDocumentURL(client *storage.Client, bucketName, objectName string) (string, error) {
	return client.Bucket(bucketName).SignedURL(objectName, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(15 * time.Minute),
	})
}

func DeleteEmployeeDocument(ctx context.Context, client *storage.Client, bucketName, objectName string) error {
	if objectName == "" {
		return nil
	}
	if err := client.Bucket(bucketName).Object(objectName).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", objectName, err)
	}
	return nil
}
