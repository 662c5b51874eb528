package protocol

// Every composite header and tagged content string used on the wire is parsed
// and formatted here, so malformed input is caught in one place instead of in
// scattered split calls inside the dispatch loop.

import (
	"fmt"
	"strconv"
	"strings"
)

// FileTagPrefix marks a persisted message whose content describes an attachment.
const FileTagPrefix = "[FILE]"

// ParseUpload splits a FILE upload header "<convID>:<filename>". The first
// colon is the separator; both fields must be non-empty.
func ParseUpload(header string) (convID, filename string, err error) {
	convID, filename, ok := strings.Cut(header, ":")
	if !ok || convID == "" || filename == "" {
		return "", "", fmt.Errorf("%w: upload header %q", ErrMalformedHeader, header)
	}
	return convID, filename, nil
}

// FormatUpload builds a FILE upload header.
func FormatUpload(convID, filename string) string {
	return convID + ":" + filename
}

// ChunkHeader is the decoded form of a FILE_CHUNK header "<id>:<seq>:<last>".
type ChunkHeader struct {
	AttachmentID string
	Seq          int
	Last         bool
}

func (c ChunkHeader) String() string {
	last := "0"
	if c.Last {
		last = "1"
	}
	return c.AttachmentID + ":" + strconv.Itoa(c.Seq) + ":" + last
}

// ParseChunk decodes a FILE_CHUNK header.
func ParseChunk(header string) (ChunkHeader, error) {
	parts := strings.Split(header, ":")
	if len(parts) != 3 || parts[0] == "" {
		return ChunkHeader{}, fmt.Errorf("%w: chunk header %q", ErrMalformedHeader, header)
	}
	seq, err := strconv.Atoi(parts[1])
	if err != nil || seq < 0 {
		return ChunkHeader{}, fmt.Errorf("%w: chunk seq %q", ErrMalformedHeader, parts[1])
	}
	switch parts[2] {
	case "0":
		return ChunkHeader{AttachmentID: parts[0], Seq: seq}, nil
	case "1":
		return ChunkHeader{AttachmentID: parts[0], Seq: seq, Last: true}, nil
	}
	return ChunkHeader{}, fmt.Errorf("%w: chunk last flag %q", ErrMalformedHeader, parts[2])
}

// ParseArrow splits a friend-packet header "<from>-><to>".
func ParseArrow(header string) (from, to string, err error) {
	from, to, ok := strings.Cut(header, "->")
	if !ok || from == "" || to == "" {
		return "", "", fmt.Errorf("%w: arrow header %q", ErrMalformedHeader, header)
	}
	return from, to, nil
}

// FormatArrow builds a friend-packet header.
func FormatArrow(from, to string) string {
	return from + "->" + to
}

// ParseRouted splits an outbound chat header "<sender>:<convID>".
func ParseRouted(header string) (sender, convID string, err error) {
	sender, convID, ok := strings.Cut(header, ":")
	if !ok || sender == "" || convID == "" {
		return "", "", fmt.Errorf("%w: routed header %q", ErrMalformedHeader, header)
	}
	return sender, convID, nil
}

// FormatRouted builds an outbound chat header.
func FormatRouted(sender, convID string) string {
	return sender + ":" + convID
}

// FileTag is the structured content of a persisted file message,
// "[FILE]<name>|<size>|<attachmentID>".
type FileTag struct {
	Name         string
	Size         int64
	AttachmentID string
}

// FormatFileTag builds the inline file tag stored as message content.
func FormatFileTag(t FileTag) string {
	return FileTagPrefix + t.Name + "|" + strconv.FormatInt(t.Size, 10) + "|" + t.AttachmentID
}

// IsFileTag reports whether content carries the file tag prefix.
func IsFileTag(content string) bool {
	return strings.HasPrefix(content, FileTagPrefix)
}

// ParseFileTag decodes a file-tagged content string. The tail is a fixed
// 3-field split; anything with fewer or more fields is a malformed-protocol
// error, not silently ignored.
func ParseFileTag(content string) (FileTag, error) {
	if !IsFileTag(content) {
		return FileTag{}, fmt.Errorf("%w: missing %s prefix", ErrMalformedHeader, FileTagPrefix)
	}
	parts := strings.Split(content[len(FileTagPrefix):], "|")
	if len(parts) != 3 {
		return FileTag{}, fmt.Errorf("%w: file tag has %d fields, want 3", ErrMalformedHeader, len(parts))
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || size < 0 {
		return FileTag{}, fmt.Errorf("%w: file tag size %q", ErrMalformedHeader, parts[1])
	}
	if parts[0] == "" || parts[2] == "" {
		return FileTag{}, fmt.Errorf("%w: empty file tag field", ErrMalformedHeader)
	}
	return FileTag{Name: parts[0], Size: size, AttachmentID: parts[2]}, nil
}

// FileMeta is the FILE_META payload "<sender>|<name>|<size>|<id>|<T|F>",
// announced to a conversation after an upload completes.
type FileMeta struct {
	Sender       string
	Name         string
	Size         int64
	AttachmentID string
	HasThumb     bool
}

// FormatFileMeta encodes a FILE_META payload.
func FormatFileMeta(m FileMeta) string {
	thumb := "F"
	if m.HasThumb {
		thumb = "T"
	}
	return m.Sender + "|" + m.Name + "|" + strconv.FormatInt(m.Size, 10) + "|" + m.AttachmentID + "|" + thumb
}

// ParseFileMeta decodes a FILE_META payload.
func ParseFileMeta(s string) (FileMeta, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 5 {
		return FileMeta{}, fmt.Errorf("%w: file meta has %d fields, want 5", ErrMalformedHeader, len(parts))
	}
	size, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || size < 0 {
		return FileMeta{}, fmt.Errorf("%w: file meta size %q", ErrMalformedHeader, parts[2])
	}
	var hasThumb bool
	switch parts[4] {
	case "T":
		hasThumb = true
	case "F":
	default:
		return FileMeta{}, fmt.Errorf("%w: file meta thumb flag %q", ErrMalformedHeader, parts[4])
	}
	return FileMeta{
		Sender:       parts[0],
		Name:         parts[1],
		Size:         size,
		AttachmentID: parts[3],
		HasThumb:     hasThumb,
	}, nil
}
