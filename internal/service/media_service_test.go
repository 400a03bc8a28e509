package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	deleted []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = body
	f.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) PresignPutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://signed.example.com/" + *in.Key, Method: "PUT"}, nil
}

var testS3Config = config.S3{Region: "us-east-2", BucketName: "media", PublicBaseURL: "https://cdn.example.com"}

// smallest valid PNG header filetype recognises
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

func TestUploadSniffsTypeAndStores(t *testing.T) {
	store := newFakeS3()
	assets := newFakeMediaAssets()
	svc := NewMediaService(testS3Config, store, store, assets)

	asset, err := svc.Upload(context.Background(), 7, "photo.png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", asset.FileType)
	assert.Equal(t, int64(len(pngHeader)), asset.FileSize)
	assert.True(t, strings.HasPrefix(asset.FileURL, "https://cdn.example.com/uploads/7/"))
	assert.True(t, strings.HasSuffix(asset.FileURL, ".png"))

	key := strings.TrimPrefix(asset.FileURL, "https://cdn.example.com/")
	assert.Equal(t, pngHeader, store.objects[key])
	assert.Equal(t, "image/png", store.types[key])
}

func TestUploadRejectsUnknownFiles(t *testing.T) {
	store := newFakeS3()
	svc := NewMediaService(testS3Config, store, store, newFakeMediaAssets())

	_, err := svc.Upload(context.Background(), 7, "notes.txt", []byte("just some text"))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, store.objects)
}

func TestRemoveDeletesRowAndObject(t *testing.T) {
	store := newFakeS3()
	assets := newFakeMediaAssets()
	svc := NewMediaService(testS3Config, store, store, assets)
	ctx := context.Background()

	asset, err := svc.Upload(ctx, 7, "photo.png", pngHeader)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Remove(ctx, 8, asset.ID), ErrNotFound)
	require.NoError(t, svc.Remove(ctx, 7, asset.ID))
	assert.Empty(t, assets.assets)
	require.Len(t, store.deleted, 1)
	assert.True(t, strings.HasPrefix(store.deleted[0], "uploads/7/"))
}

func TestPresign(t *testing.T) {
	store := newFakeS3()
	svc := NewMediaService(testS3Config, store, store, newFakeMediaAssets())

	resp, err := svc.Presign(context.Background(), 7, &transfer.PresignRequest{FileName: "clip.MP4", FileType: "video/mp4"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Key, "uploads/7/"))
	assert.True(t, strings.HasSuffix(resp.Key, ".mp4"))
	assert.Equal(t, "https://signed.example.com/"+resp.Key, resp.UploadURL)
	assert.Equal(t, "https://cdn.example.com/"+resp.Key, resp.FileURL)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	_, err = svc.Presign(context.Background(), 7, &transfer.PresignRequest{FileName: "a.exe", FileType: "application/octet-stream"})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
