package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// azblobStore reads a Zarr hierarchy from an Azure Blob Storage container.
type azblobStore struct {
	client     *azblob.Client
	account    string
	serviceURL string
	container  string
	prefix    string
}

type azblobStoreConfig struct {
	Account   string
	Container string
	Prefix    string
	Endpoint  string // Optional service URL, e.g. an Azurite emulator
	Anonymous bool
}

func newAzblobStore(cfg azblobStoreConfig) (*azblobStore, error) {
	serviceURL := cfg.Endpoint
	if serviceURL == "" {
		if cfg.Account == "" {
			return nil, fmt.Errorf("an Azure storage account is required (set AZURE_STORAGE_ACCOUNT or storage.azure_account)")
		}
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.Account)
	}

	var (
		client *azblob.Client
		err    error
	)
	if cfg.Anonymous {
		client, err = azblob.NewClientWithNoCredential(serviceURL, nil)
	} else {
		var cred *azidentity.DefaultAzureCredential
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	return &azblobStore{
		client:     client,
		account:    cfg.Account,
		serviceURL: serviceURL,
		container:  cfg.Container,
		prefix:     strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *azblobStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, joinKey(s.prefix, key), nil)
	if err != nil {
		if isAzureNotFound(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrKeyNotFound)
		}
		return nil, fmt.Errorf("azure download %s failed: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("azure read %s failed: %w", key, err)
	}
	return data, nil
}

func (s *azblobStore) List(ctx context.Context, prefix string) ([]string, error) {
	full := joinKey(s.prefix, prefix)
	if full != "" {
		full += "/"
	}
	pager := s.client.ServiceClient().NewContainerClient(s.container).
		NewListBlobsHierarchyPager("/", &container.ListBlobsHierarchyOptions{
			Prefix: to.Ptr(full),
		})

	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure list %s failed: %w", full, err)
		}
		for _, p := range page.Segment.BlobPrefixes {
			if p.Name == nil {
				continue
			}
			if name := childName(full, *p.Name); name != "" {
				names = append(names, name)
			}
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			if name := childName(full, *item.Name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func (s *azblobStore) String() string {
	return "az://" + joinKey(s.container, s.prefix)
}

func (s *azblobStore) Locator() string {
	return s.String() + " account=" + s.account + " endpoint=" + s.serviceURL
}

func isAzureNotFound(err error) bool {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return true
	}
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
