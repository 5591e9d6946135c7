//go:build !gcp

package dataset

import (
	"context"
	"fmt"
)

func newGCSStore(context.Context, gcsStoreConfig) (Store, error) {
	return nil, fmt.Errorf("GCS storage is not enabled in this build (use -tags gcp)")
}
