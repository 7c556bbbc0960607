/*
Copyright © 2024 the slstr authors.
This file is part of slstr.

slstr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

slstr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with slstr.  If not, see <http://www.gnu.org/licenses/>.
*/

package datastore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/sirupsen/logrus"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/gcsblob"
	"gocloud.dev/blob/s3blob"
	"gocloud.dev/gcp"
)

// IsBlob returns whether the given location represents blob storage
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(location string) bool {
	return strings.HasPrefix(location, "gs://") || strings.HasPrefix(location, "s3://") || strings.HasPrefix(location, "file://")
}

// OpenBucket returns the blob storage bucket for location, which must be
// in the format 'provider://name/prefix', along with the key prefix
// inside the bucket. The accepted providers are "file" for the local
// filesystem, where the whole location names a directory and the prefix
// is empty, "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, location string) (*blob.Bucket, string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, "", fmt.Errorf("datastore: opening bucket: %v", err)
	}
	prefix := strings.Trim(u.Path, "/")
	var b *blob.Bucket
	switch u.Scheme {
	case "file":
		dir := filepath.FromSlash(u.Host + u.Path)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, "", fmt.Errorf("datastore: opening bucket: %v", err)
		}
		b, err = fileblob.OpenBucket(dir, nil)
		prefix = ""
	case "gs":
		b, err = gsBucket(ctx, u.Hostname())
	case "s3":
		b, err = s3Bucket(ctx, u.Hostname())
	default:
		return nil, "", fmt.Errorf("datastore: invalid storage provider %q", u.Scheme)
	}
	if err != nil {
		return nil, "", fmt.Errorf("datastore: opening bucket %s: %v", location, err)
	}
	return b, prefix, nil
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, c, name, nil)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "ap-southeast-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name, nil)
}

// Archive copies src, a file or a SAFE directory, to dst. dst is either a
// local directory or a blob storage location accepted by OpenBucket.
// The base name of src is kept.
func Archive(ctx context.Context, dst, src string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("datastore: archiving: %w", err)
	}
	base := filepath.Dir(src)
	var files []string
	err := filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("datastore: archiving %s: %v", src, err)
	}

	log := logrus.WithFields(logrus.Fields{"src": src, "dst": dst, "files": len(files)})
	if !IsBlob(dst) {
		for _, f := range files {
			rel, err := filepath.Rel(base, f)
			if err != nil {
				return err
			}
			if err := copyFile(filepath.Join(dst, rel), f); err != nil {
				return err
			}
		}
		log.Info("datastore: archived to directory")
		return nil
	}

	bucket, prefix, err := OpenBucket(ctx, dst)
	if err != nil {
		return err
	}
	defer bucket.Close()
	for _, f := range files {
		rel, err := filepath.Rel(base, f)
		if err != nil {
			return err
		}
		key := path.Join(prefix, filepath.ToSlash(rel))
		if err := writeBlob(ctx, bucket, key, f); err != nil {
			return err
		}
	}
	log.Info("datastore: archived to blob storage")
	return nil
}

func copyFile(dst, src string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("datastore: archiving %s: %v", src, err)
	}
	r, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("datastore: archiving %s: %v", src, err)
	}
	defer r.Close()
	w, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("datastore: archiving %s: %v", src, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("datastore: archiving %s: %v", src, err)
	}
	return w.Close()
}

// writeBlob copies the file src to key in bucket.
func writeBlob(ctx context.Context, bucket *blob.Bucket, key, src string) error {
	r, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("datastore: archiving %s: %v", src, err)
	}
	defer r.Close()
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("datastore: creating writer for blob %s: %v", key, err)
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("datastore: copying blob %s: %v", key, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("datastore: writing blob %s: %v", key, err)
	}
	return nil
}

// ReadBlob returns the contents of the blob at key in the storage
// location.
func ReadBlob(ctx context.Context, location, key string) ([]byte, error) {
	bucket, prefix, err := OpenBucket(ctx, location)
	if err != nil {
		return nil, err
	}
	defer bucket.Close()
	b, err := bucket.ReadAll(ctx, path.Join(prefix, key))
	if err != nil {
		return nil, fmt.Errorf("datastore: reading blob key %s: %v", key, err)
	}
	return b, nil
}
