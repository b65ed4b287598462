package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/linecard/edgepack/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"
)

const (
	DigestMetadataKey  = "blake3"
	DefaultContentType = "text/html"
	deleteBatchSize    = 1000
)

type Report struct {
	Uploaded  []string
	Deleted   []string
	Unchanged []string
}

type localObject struct {
	key    string
	path   string
	size   int64
	digest string
}

// Sync makes s3://bucket/prefix mirror localDir: new and changed files are
// uploaded, remote keys with no local counterpart are deleted.
func (s Service) Sync(ctx context.Context, localDir, remote string) (Report, error) {
	var report Report

	bucket, prefix, ok := util.ParseBucketUrl(remote)
	if !ok {
		return report, fmt.Errorf("invalid bucket url %q, expected s3://bucket/prefix", remote)
	}

	locals, err := s.scan(ctx, localDir, prefix)
	if err != nil {
		return report, err
	}

	remotes, err := s.list(ctx, bucket, prefix)
	if err != nil {
		return report, err
	}

	var mu sync.Mutex
	record := func(list *[]string, key string) {
		mu.Lock()
		*list = append(*list, key)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit())

	for _, local := range locals {
		local := local
		g.Go(func() error {
			changed, err := s.changed(gctx, bucket, local, remotes)
			if err != nil {
				return err
			}

			if !changed {
				record(&report.Unchanged, local.key)
				return nil
			}

			if err := s.upload(gctx, bucket, local); err != nil {
				return err
			}

			record(&report.Uploaded, local.key)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	var stale []string
	for key := range remotes {
		if _, exists := locals[key]; !exists {
			stale = append(stale, key)
		}
	}
	sort.Strings(stale)

	if err := s.delete(ctx, bucket, stale); err != nil {
		return report, err
	}
	report.Deleted = stale

	sort.Strings(report.Uploaded)
	sort.Strings(report.Unchanged)

	log.Info().
		Str("remote", remote).
		Int("uploaded", len(report.Uploaded)).
		Int("deleted", len(report.Deleted)).
		Int("unchanged", len(report.Unchanged)).
		Msg("synced")

	return report, nil
}

// ContentType derives a Content-Type from the key's extension.
func ContentType(key string) string {
	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		return contentType
	}
	return DefaultContentType
}

func (s Service) limit() int {
	if s.Concurrency < 1 {
		return 1
	}
	return s.Concurrency
}

func (s Service) scan(ctx context.Context, localDir, prefix string) (map[string]localObject, error) {
	var files []localObject

	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		// Symlinked files are uploaded with their target's content.
		if d.Type()&fs.ModeSymlink != 0 {
			if info, err = os.Stat(p); err != nil {
				log.Warn().Err(err).Str("path", p).Msg("skipping dangling symlink")
				return nil
			}
		}

		if !info.Mode().IsRegular() {
			log.Warn().Str("path", p).Str("mode", info.Mode().String()).Msg("skipping entry that is not a regular file")
			return nil
		}

		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}

		files = append(files, localObject{
			key:  path.Join(prefix, filepath.ToSlash(rel)),
			path: p,
			size: info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", localDir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit())

	for i := range files {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			digest, err := Digest(files[i].path)
			if err != nil {
				return err
			}
			files[i].digest = digest
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	locals := make(map[string]localObject, len(files))
	for _, f := range files {
		locals[f.key] = f
	}

	return locals, nil
}

// Digest is the hex blake3 sum stored alongside each uploaded object.
func Digest(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s Service) list(ctx context.Context, bucket, prefix string) (map[string]int64, error) {
	remotes := map[string]int64{}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix + "/")
	}

	paginator := s3.NewListObjectsV2Paginator(s.Client.S3, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
		}

		for _, object := range page.Contents {
			remotes[aws.ToString(object.Key)] = aws.ToInt64(object.Size)
		}
	}

	return remotes, nil
}

func (s Service) changed(ctx context.Context, bucket string, local localObject, remotes map[string]int64) (bool, error) {
	size, exists := remotes[local.key]
	if !exists || size != local.size {
		return true, nil
	}

	head, err := s.Client.S3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(local.key),
	})
	if err != nil {
		return false, fmt.Errorf("head s3://%s/%s: %w", bucket, local.key, err)
	}

	return head.Metadata[DigestMetadataKey] != local.digest, nil
}

func (s Service) upload(ctx context.Context, bucket string, local localObject) error {
	f, err := os.Open(local.path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.Client.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(local.key),
		Body:          f,
		ContentLength: aws.Int64(local.size),
		ContentType:   aws.String(ContentType(local.key)),
		Metadata:      map[string]string{DigestMetadataKey: local.digest},
	})

	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", bucket, local.key, err)
	}

	log.Debug().Str("key", local.key).Msg("uploaded")
	return nil
}

func (s Service) delete(ctx context.Context, bucket string, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))

		var objects []types.ObjectIdentifier
		for _, key := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := s.Client.S3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})

		if err != nil {
			return fmt.Errorf("delete from s3://%s: %w", bucket, err)
		}

		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("delete s3://%s/%s: %s", bucket, aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}

	return nil
}
