package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stp/internal/config"
)

// fakeBlobClient keeps blobs in memory and fails like the service does
type fakeBlobClient struct {
	containers map[string]bool
	blobs      map[string][]byte
	uploadErr  error
}

func newFakeBlobClient() *fakeBlobClient {
	return &fakeBlobClient{containers: make(map[string]bool), blobs: make(map[string][]byte)}
}

func serviceError(code bloberror.Code, status int) error {
	return &azcore.ResponseError{ErrorCode: string(code), StatusCode: status}
}

func (f *fakeBlobClient) CreateContainer(ctx context.Context, name string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error) {
	if f.containers[name] {
		return azblob.CreateContainerResponse{}, serviceError(bloberror.ContainerAlreadyExists, http.StatusConflict)
	}
	f.containers[name] = true
	return azblob.CreateContainerResponse{}, nil
}

func (f *fakeBlobClient) UploadBuffer(ctx context.Context, container, name string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	if f.uploadErr != nil {
		return azblob.UploadBufferResponse{}, f.uploadErr
	}
	f.blobs[container+"/"+name] = append([]byte(nil), buffer...)
	return azblob.UploadBufferResponse{}, nil
}

func (f *fakeBlobClient) DownloadStream(ctx context.Context, container, name string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error) {
	data, ok := f.blobs[container+"/"+name]
	if !ok {
		return azblob.DownloadStreamResponse{}, serviceError(bloberror.BlobNotFound, http.StatusNotFound)
	}
	return azblob.DownloadStreamResponse{
		DownloadResponse: blob.DownloadResponse{Body: io.NopCloser(bytes.NewReader(data))},
	}, nil
}

func TestBlobStorage(t *testing.T) {
	fake := newFakeBlobClient()
	s := &BlobStorage{client: fake, container: "stp-results"}

	t.Run("load before any publish", func(t *testing.T) {
		_, err := s.Load()
		assert.ErrorContains(t, err, "no runs published to stp-results")
	})

	t.Run("publishes run and latest", func(t *testing.T) {
		results, failures := sampleRun()
		output := NewOutput(results, failures, time.Minute, 2)
		require.NoError(t, s.SaveOutput(output))

		assert.Contains(t, fake.blobs, "stp-results/runs/"+output.Meta.RunID+".json")
		assert.Contains(t, fake.blobs, "stp-results/latest.json")

		loaded, err := s.Load()
		require.NoError(t, err)
		assert.Equal(t, output.Meta.RunID, loaded.Meta.RunID)
		assert.Len(t, loaded.Details, 3)
	})

	t.Run("existing container is tolerated", func(t *testing.T) {
		results, failures := sampleRun()
		require.NoError(t, s.Save(results, failures, time.Second, 1))
		assert.Len(t, fake.blobs, 3)
	})

	t.Run("upload errors are returned", func(t *testing.T) {
		fake.uploadErr = serviceError(bloberror.AuthorizationFailure, http.StatusForbidden)
		defer func() { fake.uploadErr = nil }()

		err := s.SaveOutput(NewOutput(nil, nil, 0, 1))
		assert.ErrorContains(t, err, "upload stp-results/runs/")
		assert.True(t, bloberror.HasCode(err, bloberror.AuthorizationFailure))
	})
}

func TestNewBlobStorage(t *testing.T) {
	cfg := config.New()
	_, err := NewBlobStorage(cfg)
	assert.ErrorContains(t, err, "STP_BLOB_CONNECTION_STRING")

	cfg.Blob.ConnectionString = "DefaultEndpointsProtocol=https;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;EndpointSuffix=core.windows.net"
	s, err := NewBlobStorage(cfg)
	require.NoError(t, err)
	assert.Equal(t, "stp-results", s.container)
}
