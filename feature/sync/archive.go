package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"netbox-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// archivePrefix is where run reports live inside the bucket.
const archivePrefix = "reports"

// Archive stores finished run reports as JSON objects. Archiving is
// best effort: a storage outage must never fail the sync run itself,
// callers log the returned error and move on.
type Archive struct {
	client    storage.Client
	bucket    string
	retention int
	log       *zap.Logger
}

// NewArchive returns an archive writing to the given bucket, keeping at
// most retention reports per collection (zero keeps everything).
func NewArchive(client storage.Client, bucket string, retention int, log *zap.Logger) *Archive {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archive{client: client, bucket: bucket, retention: retention, log: log}
}

// Ensure creates the report bucket when it does not exist yet.
func (a *Archive) Ensure(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("archive: check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("archive: create bucket %s: %w", a.bucket, err)
	}
	return nil
}

func objectName(collection, runID string) string {
	return fmt.Sprintf("%s/%s/%s.json", archivePrefix, collection, runID)
}

// Store writes one report and prunes old ones past the retention limit.
func (a *Archive) Store(ctx context.Context, report *RunReport) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: encode report %s: %w", report.RunID, err)
	}

	name := objectName(report.Collection, report.RunID)
	_, err = a.client.PutObject(ctx, a.bucket, name,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("archive: store %s: %w", name, err)
	}

	a.prune(ctx, report.Collection)
	return nil
}

// List returns the archived run ids for a collection, newest first.
func (a *Archive) List(ctx context.Context, collection string) ([]string, error) {
	infos, err := a.list(ctx, collection)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		id := strings.TrimSuffix(strings.TrimPrefix(info.Key, archivePrefix+"/"+collection+"/"), ".json")
		ids = append(ids, id)
	}
	return ids, nil
}

// Get loads one archived report.
func (a *Archive) Get(ctx context.Context, collection, runID string) (*RunReport, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, objectName(collection, runID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("archive: get report %s: %w", runID, err)
	}
	defer obj.Close()

	var report RunReport
	if err := json.NewDecoder(obj).Decode(&report); err != nil {
		return nil, fmt.Errorf("archive: decode report %s: %w", runID, err)
	}
	return &report, nil
}

// list returns the collection's report objects, newest first.
func (a *Archive) list(ctx context.Context, collection string) ([]minio.ObjectInfo, error) {
	var infos []minio.ObjectInfo
	opts := minio.ListObjectsOptions{
		Prefix:    archivePrefix + "/" + collection + "/",
		Recursive: true,
	}
	for info := range a.client.ListObjects(ctx, a.bucket, opts) {
		if info.Err != nil {
			return nil, fmt.Errorf("archive: list %s reports: %w", collection, info.Err)
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastModified.After(infos[j].LastModified)
	})
	return infos, nil
}

// prune drops the oldest reports beyond the retention limit. Failures
// are logged only; pruning is housekeeping, not part of the run.
func (a *Archive) prune(ctx context.Context, collection string) {
	if a.retention <= 0 {
		return
	}

	infos, err := a.list(ctx, collection)
	if err != nil {
		a.log.Warn("report pruning failed", zap.String("collection", collection), zap.Error(err))
		return
	}

	for _, info := range infos[min(a.retention, len(infos)):] {
		if err := a.client.RemoveObject(ctx, a.bucket, info.Key, minio.RemoveObjectOptions{}); err != nil {
			a.log.Warn("report pruning failed",
				zap.String("object", info.Key),
				zap.Error(err))
		}
	}
}
