package mediasource

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/formsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	gotIn   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gotIn = in
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		in         string
		bucket     string
		key        string
		wantErrMsg string
	}{
		{in: "s3://media/forms/1/logo.png", bucket: "media", key: "forms/1/logo.png"},
		{in: "s3://media/", wantErrMsg: "no object key"},
		{in: "s3:///key", wantErrMsg: "not an s3 url"},
		{in: "https://media/key", wantErrMsg: "not an s3 url"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, key, err := ParseS3URL(tt.in)
			if tt.wantErrMsg != "" {
				require.ErrorContains(t, err, tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestS3Source_Fetch(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"media/forms/1/logo.png": "png"}}
	src := NewS3SourceFromClient(fake)

	rc, err := src.Fetch(context.Background(), "s3://media/forms/1/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "png", readAll(t, rc))
	assert.Equal(t, "media", aws.ToString(fake.gotIn.Bucket))
	assert.Equal(t, "forms/1/logo.png", aws.ToString(fake.gotIn.Key))

	_, err = src.Fetch(context.Background(), "s3://media/missing")
	require.ErrorIs(t, err, common.ErrTransferFailure)
	assert.Contains(t, err.Error(), "NoSuchKey")

	_, err = src.Fetch(context.Background(), "s3://media")
	require.ErrorIs(t, err, common.ErrTransferFailure)
}

func TestNewS3Source_AppliesOptions(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew
	})

	var lo awsconfig.LoadOptions
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{Region: lo.Region}, nil
	}

	var so s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&so)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	src, err := NewS3Source(context.Background(), S3Options{
		Region:       "eu-central-1",
		BaseEndpoint: "http://127.0.0.1:9000",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
	})
	require.NoError(t, err)
	require.NotNil(t, src)

	assert.Equal(t, "eu-central-1", lo.Region)
	require.NotNil(t, lo.Credentials)
	creds, err := lo.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minioadmin", creds.AccessKeyID)

	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(so.BaseEndpoint))
	assert.True(t, so.UsePathStyle)
}

func TestNewS3Source_LoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("boom")
	}

	_, err := NewS3Source(context.Background(), S3Options{Region: "us-east-1"})
	require.ErrorContains(t, err, "boom")
}
