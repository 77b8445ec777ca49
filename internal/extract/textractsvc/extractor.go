// Package textractsvc extracts document text through the AWS Textract
// service. Latency and availability of the call are outside our control;
// it is not retried.
package textractsvc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

type Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type Extractor struct {
	client *textract.Client
	log    logger.Logger
}

func New(ctx context.Context, cfg Config, log logger.Logger) (*Extractor, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := textract.NewFromConfig(awsCfg, func(o *textract.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Extractor{client: client, log: log}, nil
}

func (e *Extractor) CanExtract(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".png", ".jpg", ".jpeg", ".tiff":
		return true
	}
	return false
}

func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	result, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: data},
	})
	if err != nil {
		return "", fmt.Errorf("textract %s: %w", filepath.Base(path), err)
	}

	var lines []string
	for _, block := range result.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (e *Extractor) Close() error {
	return nil
}
