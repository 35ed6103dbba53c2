package storage

import (
	"context"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"

	"github.com/pageweaver/pageweaver/internal/config"
)

// AzureStore is a blob-storage-backed ObjectStore for production
// deployments. Authentication goes through the default Azure credential
// chain (environment, workload identity, managed identity, CLI).
type AzureStore struct {
	client    *azblob.Client
	container string
	log       *zap.Logger
}

// NewAzureStore connects to the configured storage account.
func NewAzureStore(cfg config.AzureStorageConfig, logger *zap.Logger) (*AzureStore, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, storageErr("connect", cfg.AccountURL, err)
	}

	client, err := azblob.NewClient(cfg.AccountURL, cred, nil)
	if err != nil {
		return nil, storageErr("connect", cfg.AccountURL, err)
	}

	return &AzureStore{
		client:    client,
		container: cfg.Container,
		log:       logger.Named("storage.azure"),
	}, nil
}

func (s *AzureStore) Put(ctx context.Context, key string, data []byte) error {
	if _, err := s.client.UploadBuffer(ctx, s.container, key, data, nil); err != nil {
		return storageErr("put", key, err)
	}
	return nil
}

func (s *AzureStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, storageErr("get", key, err)
	}
	return data, nil
}

func (s *AzureStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.blobClient(key).GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, storageErr("exists", key, err)
	}
	return true, nil
}

func (s *AzureStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, storageErr("list", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	return keys, nil
}

func (s *AzureStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return ErrNotFound
		}
		return storageErr("delete", key, err)
	}
	return nil
}

func (s *AzureStore) LastModified(ctx context.Context, key string) (time.Time, error) {
	props, err := s.blobClient(key).GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, storageErr("stat", key, err)
	}
	if props.LastModified == nil {
		return time.Time{}, nil
	}
	return *props.LastModified, nil
}

func (s *AzureStore) blobClient(key string) *blob.Client {
	return s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(key)
}
