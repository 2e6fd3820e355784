package blockstore

import (
	"bytes"
	"context"
	"io/ioutil"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/dberrors"
)

// s3API is the slice of the S3 SDK this store actually calls, narrowed so
// tests can substitute a fake.
type s3API interface {
	GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error)
	PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error)
}

// S3Store stores one block per S3 object, keyed by the CID's textual form.
// This is the "cloud-backed store" the pluggable BlockStore contract
// anticipates: the core never knows it isn't talking to LevelDB.
type S3Store struct {
	bucket string
	svc    s3API
}

func NewS3Store(bucket, region, accessKey, secretKey string) (*S3Store, error) {
	creds := credentials.NewEnvCredentials()
	if accessKey != "" {
		creds = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}
	sess, err := session.NewSession(&aws.Config{Region: &region, Credentials: creds})
	if err != nil {
		return nil, err
	}
	return &S3Store{bucket: bucket, svc: s3.New(sess)}, nil
}

func (s *S3Store) Get(ctx context.Context, c cid.CID) (Block, error) {
	out, err := s.svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(c.String()),
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return Block{}, dberrors.NewNotFoundError("block %s", c)
		}
		return Block{}, err
	}
	defer out.Body.Close()

	data, err := ioutil.ReadAll(out.Body)
	if err != nil {
		return Block{}, err
	}
	return Block{CID: c, Bytes: data}, nil
}

func (s *S3Store) Put(ctx context.Context, b Block) error {
	_, err := s.svc.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(b.CID.String()),
		Body:   bytes.NewReader(b.Bytes),
	})
	return err
}
