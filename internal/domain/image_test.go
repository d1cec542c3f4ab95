package domain

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUploadSize(t *testing.T) {
	const mb = 1024 * 1024

	tests := []struct {
		name      string
		size      int64
		isPro     bool
		wantCode  string
		wantLimit string
		wantSize  string
	}{
		{name: "small free upload", size: 2 * mb},
		{name: "exactly at free ceiling", size: 25 * mb},
		{name: "free user over ceiling", size: 30 * mb, wantCode: ETOOLARGE, wantLimit: "25MB", wantSize: "30.00MB"},
		{name: "pro user over free ceiling", size: 30 * mb, isPro: true},
		{name: "pro user over hard ceiling", size: 51 * mb, isPro: true, wantCode: ETOOLARGE, wantLimit: "50MB", wantSize: "51.00MB"},
		{name: "empty upload", size: 0, wantCode: EINVALID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUploadSize(tt.size, tt.isPro)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ErrorCode(err))
			if tt.wantLimit != "" {
				details := ErrorDetails(err)
				assert.Equal(t, tt.wantLimit, details["limit"])
				assert.Equal(t, tt.wantSize, details["fileSize"])
			}
		})
	}
}

func TestParseDataURI(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	encoded := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name     string
		input    string
		wantType string
		wantErr  bool
	}{
		{name: "with prefix", input: "data:image/jpeg;base64," + encoded, wantType: "image/jpeg"},
		{name: "bare payload", input: encoded},
		{name: "surrounding whitespace", input: "  " + encoded + "\n"},
		{name: "empty", input: "", wantErr: true},
		{name: "not base64", input: "data:image/png;base64,***", wantErr: true},
		{name: "missing base64 marker", input: "data:image/png," + encoded, wantErr: true},
		{name: "missing comma", input: "data:image/png;base64", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, data, err := ParseDataURI(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, EINVALID, ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, ct)
			assert.Equal(t, raw, data)
		})
	}
}

func TestImage_DataURIRoundTrip(t *testing.T) {
	img := &Image{Data: []byte("jpeg-bytes"), ContentType: OutputContentType}

	uri := img.DataURI()
	require.Contains(t, uri, "data:image/jpeg;base64,")

	ct, data, err := ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, img.ContentType, ct)
	assert.Equal(t, img.Data, data)
}

func TestImage_Empty(t *testing.T) {
	var img *Image
	assert.True(t, img.IsEmpty())
	assert.Equal(t, "", img.DataURI())
	assert.Equal(t, "", DataURI("image/jpeg", nil))
}

func TestPresetFor(t *testing.T) {
	assert.Equal(t, 400, PresetFor(ImagePurposeAvatar).MaxWidth)
	assert.Equal(t, 75, PresetFor(ImagePurposeAvatar).Quality)
	assert.Equal(t, PresetFor(ImagePurposeFood), PresetFor(ImagePurpose("banner")))
}
