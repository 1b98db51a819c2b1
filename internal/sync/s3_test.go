package sync

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3DestinationWrite(t *testing.T) {
	fake := &fakeS3{}
	dest := &S3Destination{client: fake, bucket: "exports", key: "litgraph/catalog.jsonl"}

	if err := dest.Write(context.Background(), []byte("{}\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if aws.ToString(fake.in.Bucket) != "exports" || aws.ToString(fake.in.Key) != "litgraph/catalog.jsonl" {
		t.Fatalf("put to %s/%s", aws.ToString(fake.in.Bucket), aws.ToString(fake.in.Key))
	}
	if aws.ToString(fake.in.ContentType) != "application/x-ndjson" {
		t.Fatalf("content type = %q", aws.ToString(fake.in.ContentType))
	}
	if got := fake.in.Metadata["litgraph-records"]; got != "1" {
		t.Fatalf("records metadata = %q", got)
	}
	if fake.in.ChecksumSHA256 == nil {
		t.Fatal("checksum not set")
	}
	if string(fake.body) != "{}\n" {
		t.Fatalf("body = %q", fake.body)
	}
	if dest.Name() != "s3" {
		t.Fatalf("name = %q", dest.Name())
	}
}

func TestS3DestinationWriteError(t *testing.T) {
	dest := &S3Destination{client: &fakeS3{err: errBoom}, bucket: "b", key: "k"}
	if err := dest.Write(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}
