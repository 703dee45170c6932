package oss

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	aliyun "github.com/aliyun/aliyun-oss-go-sdk/oss"

	"hoa_backend/internals/configs"
)

type OSSProofStore struct {
	Bucket     *aliyun.Bucket
	Endpoint   string
	BucketName string
	PublicBase string
	Prefix     string
	WebP       WebPOptions
}

func NewOSSProofStoreFromEnv(prefix string) (*OSSProofStore, error) {
	endpoint := strings.TrimSpace(configs.GetEnv("ALI_OSS_ENDPOINT"))
	ak := strings.TrimSpace(configs.GetEnv("ALI_OSS_ACCESS_KEY"))
	sk := strings.TrimSpace(configs.GetEnv("ALI_OSS_SECRET_KEY"))
	sts := strings.TrimSpace(configs.GetEnv("ALI_OSS_SECURITY_TOKEN"))
	bucketName := strings.TrimSpace(configs.GetEnv("ALI_OSS_BUCKET"))
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var opts []aliyun.ClientOption
	if sts != "" {
		opts = append(opts, aliyun.SecurityToken(sts))
	}
	client, err := aliyun.New(endpoint, ak, sk, opts...)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	if loc, err := client.GetBucketLocation(bucketName); err != nil {
		if se, ok := err.(aliyun.ServiceError); ok && se.StatusCode == 403 {
			log.Printf("[WARN] OSS: skip location check (bucket=%s): access denied", bucketName)
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		log.Printf("[INFO] OSS bucket %s location: %s", bucketName, loc)
	}

	return &OSSProofStore{
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: bucketName,
		PublicBase: strings.TrimRight(configs.GetEnv("ALI_OSS_PUBLIC_BASE"), "/"),
		Prefix:     strings.Trim(prefix, "/"),
		WebP:       WebPOptionsFromEnv(),
	}, nil
}

func (s *OSSProofStore) SaveProof(ctx context.Context, dir string, fh *multipart.FileHeader) (string, error) {
	p, err := prepareProof(fh, s.WebP)
	if err != nil {
		return "", err
	}
	key := joinKey(s.Prefix, dir, p.name)
	err = s.Bucket.PutObject(key, bytes.NewReader(p.data),
		aliyun.WithContext(ctx),
		aliyun.ContentType(p.contentType),
		aliyun.ContentDisposition("inline"),
		aliyun.CacheControl("private, max-age=86400"),
	)
	if err != nil {
		return "", fmt.Errorf("oss put %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

func (s *OSSProofStore) PublicURL(key string) string {
	if s.PublicBase != "" {
		return s.PublicBase + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, end, key)
}

func joinKey(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(strings.TrimSpace(p), "/"); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, "/")
}
