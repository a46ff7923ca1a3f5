package reading

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/papyrusai/papyrus/internal/image"
)

// TextractConfig configures the AWS Textract backend.
type TextractConfig struct {
	Region     string
	AccessKey  string
	SecretKey  string
	HEICTarget string
}

// textractAPI is the slice of the Textract client this reader uses.
type textractAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// TextractReader extracts printed text with AWS Textract. Unlike the chat
// backends it performs plain line detection; the prompt is not sent
// anywhere, so this variant suits printed pages rather than interpretive
// transcription.
type TextractReader struct {
	client textractAPI
	img    *image.Normalized
}

// NewTextractReader builds the AWS client and normalizes the image.
func NewTextractReader(ctx context.Context, cfg TextractConfig, imagePath string) (*TextractReader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	if cfg.HEICTarget == "" {
		cfg.HEICTarget = "png"
	}
	img, err := image.Normalize(imagePath, cfg.HEICTarget)
	if err != nil {
		return nil, err
	}

	return &TextractReader{
		client: textract.NewFromConfig(awsCfg),
		img:    img,
	}, nil
}

func (r *TextractReader) Read(ctx context.Context) (string, error) {
	out, err := r.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{
			Bytes: r.img.Bytes,
		},
	})
	if err != nil {
		return "", &BackendError{Backend: "textract", Reason: "detect document text failed", Body: err.Error()}
	}

	lines := make([]string, 0, len(out.Blocks))
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, aws.ToString(block.Text))
		}
	}
	return strings.Join(lines, "\n"), nil
}

// TextractFactory binds a configuration into a per-image Factory.
func TextractFactory(ctx context.Context, cfg TextractConfig) Factory {
	return func(_ string, imagePath string) (Reader, error) {
		return NewTextractReader(ctx, cfg, imagePath)
	}
}
