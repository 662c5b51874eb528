package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUpload(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		convID   string
		filename string
		wantErr  bool
	}{
		{name: "valid", header: "conv-1:photo.png", convID: "conv-1", filename: "photo.png"},
		{name: "filename keeps later colons", header: "conv-1:a:b.txt", convID: "conv-1", filename: "a:b.txt"},
		{name: "missing separator", header: "conv-1", wantErr: true},
		{name: "empty filename", header: "conv-1:", wantErr: true},
		{name: "empty conversation", header: ":photo.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			convID, filename, err := ParseUpload(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedHeader)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.convID, convID)
			assert.Equal(t, tt.filename, filename)
		})
	}
}

func TestChunkHeaderRoundTrip(t *testing.T) {
	h := ChunkHeader{AttachmentID: "att-9", Seq: 41, Last: true}
	parsed, err := ParseChunk(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	h = ChunkHeader{AttachmentID: "att-9", Seq: 0}
	parsed, err = ParseChunk(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestParseChunkMalformed(t *testing.T) {
	for _, header := range []string{"", "att-9", "att-9:1", "att-9:x:0", "att-9:-1:0", "att-9:1:2", ":1:0"} {
		_, err := ParseChunk(header)
		assert.ErrorIs(t, err, ErrMalformedHeader, "header %q", header)
	}
}

func TestParseArrow(t *testing.T) {
	from, to, err := ParseArrow("bob->carol")
	require.NoError(t, err)
	assert.Equal(t, "bob", from)
	assert.Equal(t, "carol", to)

	for _, header := range []string{"", "bob", "->carol", "bob->"} {
		_, _, err := ParseArrow(header)
		assert.ErrorIs(t, err, ErrMalformedHeader, "header %q", header)
	}
}

func TestFileTagRoundTrip(t *testing.T) {
	tag := FileTag{Name: "photo.png", Size: 10000, AttachmentID: "att-1"}
	content := FormatFileTag(tag)
	assert.Equal(t, "[FILE]photo.png|10000|att-1", content)
	assert.True(t, IsFileTag(content))

	parsed, err := ParseFileTag(content)
	require.NoError(t, err)
	assert.Equal(t, tag, parsed)
}

func TestParseFileTagFieldCount(t *testing.T) {
	// The tail is a fixed 3-field split: anything else is a protocol error.
	tests := []string{
		"[FILE]photo.png|10000",
		"[FILE]photo.png",
		"[FILE]photo.png|10000|att-1|extra",
		"[FILE]photo.png|ten|att-1",
		"[FILE]|10000|att-1",
		"photo.png|10000|att-1",
	}
	for _, content := range tests {
		_, err := ParseFileTag(content)
		assert.ErrorIs(t, err, ErrMalformedHeader, "content %q", content)
	}
}

func TestFileMetaRoundTrip(t *testing.T) {
	meta := FileMeta{Sender: "alice", Name: "photo.png", Size: 10000, AttachmentID: "att-1", HasThumb: true}
	payload := FormatFileMeta(meta)
	assert.Equal(t, "alice|photo.png|10000|att-1|T", payload)

	parsed, err := ParseFileMeta(payload)
	require.NoError(t, err)
	assert.Equal(t, meta, parsed)

	meta.HasThumb = false
	parsed, err = ParseFileMeta(FormatFileMeta(meta))
	require.NoError(t, err)
	assert.False(t, parsed.HasThumb)
}

func TestParseFileMetaMalformed(t *testing.T) {
	for _, payload := range []string{"", "alice|a.png|1|att-1", "alice|a.png|1|att-1|X", "alice|a.png|big|att-1|T"} {
		_, err := ParseFileMeta(payload)
		assert.ErrorIs(t, err, ErrMalformedHeader, "payload %q", payload)
	}
}

func TestRoutedHeader(t *testing.T) {
	sender, convID, err := ParseRouted(FormatRouted("alice", "conv-1"))
	require.NoError(t, err)
	assert.Equal(t, "alice", sender)
	assert.Equal(t, "conv-1", convID)
}
