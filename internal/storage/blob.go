package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/sirupsen/logrus"

	"stp/internal/config"
	"stp/internal/domain"
)

// LatestBlob always holds the most recently published run
const LatestBlob = "latest.json"

const blobTimeout = 2 * time.Minute

// blobAPI is the part of *azblob.Client the sink uses
type blobAPI interface {
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
	DownloadStream(ctx context.Context, containerName string, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
}

// BlobStorage publishes runs to an Azure Blob Storage container as
// runs/<run-id>.json plus latest.json
type BlobStorage struct {
	client    blobAPI
	container string
}

// NewBlobStorage creates a BlobStorage from the configured connection string
func NewBlobStorage(cfg *config.Config) (*BlobStorage, error) {
	if cfg.Blob.ConnectionString == "" {
		return nil, errors.New("blob results sink requires STP_BLOB_CONNECTION_STRING")
	}
	client, err := azblob.NewClientFromConnectionString(cfg.Blob.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}
	return &BlobStorage{client: client, container: cfg.Blob.Container}, nil
}

// Save publishes a new run
func (s *BlobStorage) Save(results []domain.ClassResult, failures []domain.TestFailure, duration time.Duration, workers int) error {
	return s.SaveOutput(NewOutput(results, failures, duration, workers))
}

// SaveOutput uploads output under its run id and as the latest run
func (s *BlobStorage) SaveOutput(output *domain.TestResultsOutput) error {
	ctx, cancel := context.WithTimeout(context.Background(), blobTimeout)
	defer cancel()

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	if _, err := s.client.CreateContainer(ctx, s.container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %s: %w", s.container, err)
	}

	for _, name := range []string{RunBlobName(output.Meta.RunID), LatestBlob} {
		if _, err := s.client.UploadBuffer(ctx, s.container, name, data, nil); err != nil {
			return fmt.Errorf("upload %s/%s: %w", s.container, name, err)
		}
	}
	logrus.WithFields(logrus.Fields{"sink": "blob", "container": s.container, "run": output.Meta.RunID}).Debug("results saved")
	return nil
}

// Load downloads the latest published run
func (s *BlobStorage) Load() (*domain.TestResultsOutput, error) {
	ctx, cancel := context.WithTimeout(context.Background(), blobTimeout)
	defer cancel()

	resp, err := s.client.DownloadStream(ctx, s.container, LatestBlob, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("no runs published to %s", s.container)
		}
		return nil, fmt.Errorf("download %s/%s: %w", s.container, LatestBlob, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", s.container, LatestBlob, err)
	}
	var output domain.TestResultsOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &output, nil
}

// RunBlobName is the blob a run is archived under
func RunBlobName(runID string) string {
	return "runs/" + runID + ".json"
}
