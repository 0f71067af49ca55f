package inttest

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/localstack"
	"github.com/stretchr/testify/require"
)

const s3Region = "eu-west-1"

// SetupS3 starts localstack with only S3 enabled and creates an empty bucket. The returned client
// talks to localstack using path style addressing.
func SetupS3(t *testing.T, bucket string) *s3.Client {
	t.Helper()

	container, err := gnomock.Start(
		localstack.Preset(
			localstack.WithServices(localstack.S3),
			localstack.WithVersion("2.1.0"),
		),
	)
	require.NoError(t, err, "failed to start localstack")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop localstack") })

	client := s3.NewFromConfig(aws.Config{
		Region:      s3Region,
		Credentials: credentials.NewStaticCredentialsProvider("test", "test", ""),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("http://%s/", container.Address(localstack.APIPort)))
		o.UsePathStyle = true
	})

	_, err = client.CreateBucket(context.Background(), &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
		CreateBucketConfiguration: &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s3Region),
		},
	})
	require.NoErrorf(t, err, "failed to create bucket %q", bucket)

	return client
}
