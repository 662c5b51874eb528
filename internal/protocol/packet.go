package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Kind identifies what a packet carries and how its header is shaped.
type Kind uint32

const (
	KindLogin Kind = iota
	KindAck
	KindMsg
	KindPM
	KindGroupMsg
	KindFile
	KindFileMeta
	KindGetFile
	KindFileChunk
	KindGetThumb
	KindFileThumb
	KindUserList
	KindGetUserList
	KindConvList
	KindJoinConv
	KindGetHistory
	KindHistory
	KindCreateGroup
	KindAvatarUpload
	KindGetAvatar
	KindAvatarData
	KindFriendRequest
	KindFriendAccept
	KindFriendReject
	KindFriendPendingList

	kindEnd
)

var kindNames = [...]string{
	"LOGIN", "ACK", "MSG", "PM", "GROUP_MSG",
	"FILE", "FILE_META", "GET_FILE", "FILE_CHUNK", "GET_THUMB", "FILE_THUMB",
	"USERLIST", "GET_USERLIST", "CONV_LIST", "JOIN_CONV",
	"GET_HISTORY", "HISTORY", "CREATE_GROUP",
	"AVATAR_UPLOAD", "GET_AVATAR", "AVATAR_DATA",
	"FRIEND_REQUEST", "FRIEND_ACCEPT", "FRIEND_REJECT", "FRIEND_PENDING_LIST",
}

func (k Kind) String() string {
	if k < kindEnd {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint32(k))
}

// Valid reports whether k is a kind this protocol version defines.
func (k Kind) Valid() bool { return k < kindEnd }

// Packet is the logical unit of the wire protocol. The header carries routing
// metadata whose shape depends on Kind (see headers.go); the payload carries
// message text or raw file bytes and may be empty for control packets.
type Packet struct {
	Kind    Kind
	Header  string
	Payload []byte
}

// Frame layout, big-endian:
//
//	[1B version][4B kind][4B header-len][header][4B payload-len][payload]
const (
	Version = 0x01

	MaxHeaderLen  = 64 << 10 // 64 KiB
	MaxPayloadLen = 64 << 20 // 64 MiB
)

// Write encodes p as a single frame onto w.
func Write(w io.Writer, p *Packet) error {
	if len(p.Header) > MaxHeaderLen {
		return fmt.Errorf("%w: header %d bytes", ErrFrameTooLarge, len(p.Header))
	}
	if len(p.Payload) > MaxPayloadLen {
		return fmt.Errorf("%w: payload %d bytes", ErrFrameTooLarge, len(p.Payload))
	}

	buf := make([]byte, 0, 13+len(p.Header)+len(p.Payload))
	buf = append(buf, Version)
	buf = binary.BigEndian.AppendUint32(buf, uint32(p.Kind))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.Header)))
	buf = append(buf, p.Header...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.Payload)))
	buf = append(buf, p.Payload...)

	_, err := w.Write(buf)
	return err
}

// Read decodes one frame from r. io.EOF is returned untouched when the
// stream ends cleanly before the version byte; any mid-frame truncation
// surfaces as io.ErrUnexpectedEOF.
func Read(r io.Reader) (*Packet, error) {
	var ver [1]byte
	if _, err := io.ReadFull(r, ver[:]); err != nil {
		return nil, err
	}
	if ver[0] != Version {
		return nil, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrBadVersion, ver[0], Version)
	}

	var fixed [8]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, unexpected(err)
	}
	kind := Kind(binary.BigEndian.Uint32(fixed[0:4]))
	headerLen := binary.BigEndian.Uint32(fixed[4:8])
	if headerLen > MaxHeaderLen {
		return nil, fmt.Errorf("%w: header %d bytes", ErrFrameTooLarge, headerLen)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, unexpected(err)
	}

	var plen [4]byte
	if _, err := io.ReadFull(r, plen[:]); err != nil {
		return nil, unexpected(err)
	}
	payloadLen := binary.BigEndian.Uint32(plen[:])
	if payloadLen > MaxPayloadLen {
		return nil, fmt.Errorf("%w: payload %d bytes", ErrFrameTooLarge, payloadLen)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, unexpected(err)
		}
	}

	return &Packet{Kind: kind, Header: string(header), Payload: payload}, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
