package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// CurrentSchemaVersion is the leading byte written by Encode.
const CurrentSchemaVersion uint8 = 1

const maxUsernameBytes = 255

// Encode serializes tok for storage. Layout (big-endian):
//
//	version(1) | len(username)(1) | username | createdAt(8, unix nanos) | expiresAt(8, unix nanos)
//
// The token value is the storage key and is not repeated in the blob.
func Encode(tok Token) ([]byte, error) {
	if len(tok.Username) > maxUsernameBytes {
		return nil, errors.New("username too long")
	}

	var buf bytes.Buffer
	buf.Grow(2 + len(tok.Username) + 16)

	buf.WriteByte(CurrentSchemaVersion)
	buf.WriteByte(byte(len(tok.Username)))
	buf.WriteString(tok.Username)

	if err := binary.Write(&buf, binary.BigEndian, tok.CreatedAt.UnixNano()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, tok.ExpiresAt.UnixNano()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a blob written by Encode. The returned token has no Value;
// callers fill it from the storage key.
func Decode(data []byte) (Token, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return Token{}, err
	}
	if version != CurrentSchemaVersion {
		return Token{}, fmt.Errorf("unsupported token schema version %d", version)
	}

	userLen, err := reader.ReadByte()
	if err != nil {
		return Token{}, err
	}
	username := make([]byte, userLen)
	if _, err := io.ReadFull(reader, username); err != nil {
		return Token{}, err
	}

	var created, expires int64
	if err := binary.Read(reader, binary.BigEndian, &created); err != nil {
		return Token{}, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expires); err != nil {
		return Token{}, err
	}
	if reader.Len() != 0 {
		return Token{}, errors.New("trailing bytes after token record")
	}

	return Token{
		Username:  string(username),
		CreatedAt: time.Unix(0, created),
		ExpiresAt: time.Unix(0, expires),
	}, nil
}
