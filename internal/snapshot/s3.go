package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/tybalex/otto8-log-tool/internal/model"
)

// S3Config holds workspace bucket parameters for remote snapshot storage.
type S3Config struct {
	BucketURL    string
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UseSSL       bool
}

// S3Store persists the snapshot document in an S3-compatible workspace bucket
// using the AWS CLI (`aws s3 cp`). This keeps the initial tool dependency-free
// in Go code.
type S3Store struct {
	bucket    string
	keyPrefix string
	cfg       S3Config
}

const snapshotObjectName = "snapshot.json"

// NewS3Store constructs a store from an S3 bucket URL and static credentials.
// BucketURL format: s3://bucket/prefix (prefix optional).
func NewS3Store(cfg S3Config) (*S3Store, error) {
	bucket, prefix, err := parseS3BucketURL(cfg.BucketURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("s3: access key and secret key are required")
	}
	if _, err := exec.LookPath("aws"); err != nil {
		return nil, fmt.Errorf("s3: aws cli not found in PATH")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	return &S3Store{
		bucket:    bucket,
		keyPrefix: prefix,
		cfg:       cfg,
	}, nil
}

func (s *S3Store) objectURL() string {
	key := snapshotObjectName
	if s.keyPrefix != "" {
		key = path.Join(s.keyPrefix, key)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

func (s *S3Store) Save(ctx context.Context, snap *model.Snapshot) error {
	if snap == nil {
		return errors.New("s3: nil snapshot")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("s3: marshal snapshot: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "logtool-snapshot-*")
	if err != nil {
		return fmt.Errorf("s3: temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	localPath := filepath.Join(tmpDir, snapshotObjectName)
	if err := os.WriteFile(localPath, payload, 0644); err != nil {
		return fmt.Errorf("s3: stage snapshot: %w", err)
	}
	return s.copy(ctx, localPath, s.objectURL())
}

func (s *S3Store) Load(ctx context.Context) (*model.Snapshot, error) {
	tmpDir, err := os.MkdirTemp("", "logtool-snapshot-*")
	if err != nil {
		return nil, fmt.Errorf("s3: temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	localPath := filepath.Join(tmpDir, snapshotObjectName)
	if err := s.copy(ctx, s.objectURL(), localPath); err != nil {
		// The CLI reports a missing object as a 404 in its output.
		if strings.Contains(err.Error(), "404") || strings.Contains(err.Error(), "Not Found") {
			return nil, ErrNotFound
		}
		return nil, err
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("s3: read downloaded snapshot: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("s3: parse snapshot: %w", err)
	}
	return &snap, nil
}

func (s *S3Store) copy(ctx context.Context, src, dst string) error {
	args := []string{"s3", "cp", src, dst, "--region", s.cfg.Region, "--only-show-errors"}
	if endpoint := normalizeEndpoint(s.cfg.Endpoint, s.cfg.UseSSL); endpoint != "" {
		args = append(args, "--endpoint-url", endpoint)
	}

	cmd := exec.CommandContext(ctx, "aws", args...)
	cmd.Env = append(os.Environ(),
		"AWS_ACCESS_KEY_ID="+s.cfg.AccessKey,
		"AWS_SECRET_ACCESS_KEY="+s.cfg.SecretKey,
		"AWS_DEFAULT_REGION="+s.cfg.Region,
	)
	if strings.TrimSpace(s.cfg.SessionToken) != "" {
		cmd.Env = append(cmd.Env, "AWS_SESSION_TOKEN="+s.cfg.SessionToken)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("s3 copy command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func normalizeEndpoint(endpoint string, useSSL bool) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ""
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	scheme := "https://"
	if !useSSL {
		scheme = "http://"
	}
	return scheme + endpoint
}

func parseS3BucketURL(raw string) (bucket string, prefix string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("s3: parse bucket-url: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("s3: bucket-url must use s3:// scheme")
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", "", fmt.Errorf("s3: bucket-url missing bucket name")
	}

	prefix = strings.Trim(strings.TrimSpace(u.Path), "/")
	return u.Host, prefix, nil
}
