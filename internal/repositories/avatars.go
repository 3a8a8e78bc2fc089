package repositories

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	AvatarClient        *s3.Client
	AvatarBucketName    string
	AvatarPublicBaseURL string
)

// InitAvatarStore initializes the S3-compatible client used for profile
// pictures, using static credentials and the R2 custom endpoint.
func InitAvatarStore(accessKey, secretKey, accountID, bucketName, region, publicBaseURL string) error {
	AvatarBucketName = bucketName
	AvatarPublicBaseURL = strings.TrimSuffix(publicBaseURL, "/")
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)

	cfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		Region:      region,
	}

	AvatarClient = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	log.Println("Successfully initialized avatar store client")

	return nil
}

// UploadAvatar stores an image under key and returns its public URL.
func UploadAvatar(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := AvatarClient.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(AvatarBucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", AvatarPublicBaseURL, key), nil
}
