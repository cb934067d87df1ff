package bundle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/singleflight"
)

// S3BundleLoader reads a bundle from an S3 prefix. It reuses a preconfigured
// s3.Client, so it works against AWS as well as S3-compatible storage like
// MinIO.
type S3BundleLoader struct {
	bucket string
	prefix string
	client *s3.Client

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewS3BundleLoaderParams defines the configuration for an S3BundleLoader.
//
// Bucket is the S3 bucket holding the bundle. Prefix is the key prefix the
// bundle files live under, without a trailing slash ("exports/show-42").
type NewS3BundleLoaderParams struct {
	Bucket string
	Prefix string
	Client *s3.Client
}

// NewS3BundleLoader creates a loader for the bundle stored under the given
// bucket and prefix.
func NewS3BundleLoader(params NewS3BundleLoaderParams) *S3BundleLoader {
	return &S3BundleLoader{
		bucket: params.Bucket,
		prefix: strings.TrimSuffix(params.Prefix, "/"),
		client: params.Client,
		cache:  make(map[string][]byte),
	}
}

func (l *S3BundleLoader) key(name string) string {
	if l.prefix == "" {
		return name
	}
	return path.Join(l.prefix, name)
}

// ReadFile fetches a bundle file from S3. Results are cached. A missing key
// is reported with an error wrapping fs.ErrNotExist.
func (l *S3BundleLoader) ReadFile(ctx context.Context, name string) ([]byte, error) {
	l.cacheMu.RLock()
	if cached, ok := l.cache[name]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(name, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[name]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(l.key(name)),
		})
		if err != nil {
			var noSuchKey *types.NoSuchKey
			if errors.As(err, &noSuchKey) {
				return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
			}
			return nil, err
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, err
		}

		data := buf.Bytes()

		l.cacheMu.Lock()
		l.cache[name] = data
		l.cacheMu.Unlock()

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// ListEventFiles lists the per-episode event files under the events/ prefix,
// sorted by name.
func (l *S3BundleLoader) ListEventFiles(ctx context.Context) ([]string, error) {
	eventPrefix := l.key("events") + "/"

	var names []string
	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(l.bucket),
		Prefix: aws.String(eventPrefix),
	}

	for {
		listOutput, err := l.client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return nil, fmt.Errorf("failed to list event files under %s: %w", eventPrefix, err)
		}

		for _, obj := range listOutput.Contents {
			if obj.Key == nil {
				continue
			}
			name := *obj.Key
			if l.prefix != "" {
				name = strings.TrimPrefix(name, l.prefix+"/")
			}
			if !isYAMLFile(name) {
				continue
			}
			names = append(names, name)
		}

		if listOutput.IsTruncated != nil && *listOutput.IsTruncated {
			listInput.ContinuationToken = listOutput.NextContinuationToken
		} else {
			break
		}
	}

	sort.Strings(names)

	return names, nil
}
