package reading

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papyrusai/papyrus/internal/image"
)

type fakeTextract struct {
	out *textract.DetectDocumentTextOutput
	err error
}

func (f *fakeTextract) DetectDocumentText(context.Context, *textract.DetectDocumentTextInput, ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error) {
	return f.out, f.err
}

func TestTextractReaderJoinsLineBlocks(t *testing.T) {
	r := &TextractReader{
		client: &fakeTextract{
			out: &textract.DetectDocumentTextOutput{
				Blocks: []types.Block{
					{BlockType: types.BlockTypePage},
					{BlockType: types.BlockTypeLine, Text: aws.String("first line")},
					{BlockType: types.BlockTypeWord, Text: aws.String("ignored")},
					{BlockType: types.BlockTypeLine, Text: aws.String("second line")},
				},
			},
		},
		img: &image.Normalized{Bytes: []byte("img"), MIME: "image/png"},
	}

	text, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line", text)
}

func TestTextractReaderWrapsAPIFailure(t *testing.T) {
	r := &TextractReader{
		client: &fakeTextract{err: errors.New("throttled")},
		img:    &image.Normalized{Bytes: []byte("img"), MIME: "image/png"},
	}

	_, err := r.Read(context.Background())
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "textract", be.Backend)
	assert.Contains(t, be.Body, "throttled")
}
