package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/transfer"
	"github.com/maheshrc27/socialflow/pkg/utils"
)

const presignExpiry = 15 * time.Minute

// S3API is the part of the S3 client the media library uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// NewS3Client builds a client for the configured bucket. A custom endpoint
// switches to path-style addressing for S3-compatible stores.
func NewS3Client(ctx context.Context, cfg config.S3) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type MediaService interface {
	Upload(ctx context.Context, userID int64, fileName string, file []byte) (*models.MediaAsset, error)
	Store(ctx context.Context, key string, file []byte, contentType string, metadata map[string]string) (string, error)
	List(ctx context.Context, userID int64, limit int) ([]*models.MediaAsset, error)
	Remove(ctx context.Context, userID, assetID int64) error
	Presign(ctx context.Context, userID int64, req *transfer.PresignRequest) (*transfer.PresignResponse, error)
}

type mediaService struct {
	cfg       config.S3
	client    S3API
	presigner S3Presigner
	ma        repository.MediaAssetRepository
}

func NewMediaService(cfg config.S3, client S3API, presigner S3Presigner, ma repository.MediaAssetRepository) MediaService {
	return &mediaService{
		cfg:       cfg,
		client:    client,
		presigner: presigner,
		ma:        ma,
	}
}

func (s *mediaService) publicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.BucketName, s.cfg.Region, key)
}

func (s *mediaService) keyFromURL(fileURL string) string {
	return strings.TrimPrefix(fileURL, s.publicURL(""))
}

func (s *mediaService) Store(ctx context.Context, key string, file []byte, contentType string, metadata map[string]string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("error uploading object: %w", err)
	}
	return s.publicURL(key), nil
}

func (s *mediaService) Upload(ctx context.Context, userID int64, fileName string, file []byte) (*models.MediaAsset, error) {
	if len(file) == 0 {
		return nil, invalid("File is empty")
	}

	kind, err := filetype.Match(file)
	if err != nil || kind == filetype.Unknown {
		return nil, invalid("Unsupported file type")
	}
	if !filetype.IsImage(file) && !filetype.IsVideo(file) {
		return nil, invalid(fmt.Sprintf("Unsupported file type %s", kind.MIME.Value))
	}

	key, err := utils.NewObjectKey(fmt.Sprintf("uploads/%d", userID), "file."+kind.Extension)
	if err != nil {
		return nil, fmt.Errorf("error generating object key: %w", err)
	}

	fileURL, err := s.Store(ctx, key, file, kind.MIME.Value, nil)
	if err != nil {
		return nil, err
	}

	asset := &models.MediaAsset{
		UserID:   userID,
		FileName: fileName,
		FileType: kind.MIME.Value,
		FileSize: int64(len(file)),
		FileURL:  fileURL,
	}
	if _, err := s.ma.Create(ctx, nil, asset); err != nil {
		return nil, fmt.Errorf("error saving media asset: %w", err)
	}
	return asset, nil
}

func (s *mediaService) List(ctx context.Context, userID int64, limit int) ([]*models.MediaAsset, error) {
	assets, err := s.ma.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing media: %w", err)
	}
	return assets, nil
}

// Remove deletes the asset row first. The stored object is removed on a
// best-effort basis.
func (s *mediaService) Remove(ctx context.Context, userID, assetID int64) error {
	asset, err := s.ma.GetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if asset == nil || asset.UserID != userID {
		return notFound("Media asset not found")
	}

	removed, err := s.ma.Remove(ctx, assetID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return notFound("Media asset not found")
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(s.keyFromURL(asset.FileURL)),
	})
	if err != nil {
		slog.Warn("failed to delete stored object", "asset_id", assetID, "error", err)
	}
	return nil
}

func (s *mediaService) Presign(ctx context.Context, userID int64, req *transfer.PresignRequest) (*transfer.PresignResponse, error) {
	if req == nil || req.FileName == "" {
		return nil, invalid("file_name is required")
	}
	if !strings.HasPrefix(req.FileType, "image/") && !strings.HasPrefix(req.FileType, "video/") {
		return nil, invalid("file_type must be an image or video MIME type")
	}

	key, err := utils.NewObjectKey(fmt.Sprintf("uploads/%d", userID), req.FileName)
	if err != nil {
		return nil, fmt.Errorf("error generating object key: %w", err)
	}

	presigned, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(req.FileType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}

	return &transfer.PresignResponse{
		UploadURL: presigned.URL,
		FileURL:   s.publicURL(key),
		Key:       key,
		ExpiresIn: int64(presignExpiry.Seconds()),
	}, nil
}
