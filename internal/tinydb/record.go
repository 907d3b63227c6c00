package tinydb

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	UsernameSize = 32
	EmailSize    = 255

	idSize       = 4
	usernameSize = UsernameSize + 1 // one terminator byte is always reserved
	emailSize    = EmailSize + 1

	idOffset       = 0
	usernameOffset = idOffset + idSize
	emailOffset    = usernameOffset + usernameSize

	// RecordSize is the fixed width of a serialized record.
	RecordSize = idSize + usernameSize + emailSize
)

// Record is the single row type stored in the table. ID doubles as the B-tree key.
type Record struct {
	ID       uint32
	Username string
	Email    string
}

// Validate checks that text fields fit their fixed widths.
func (r Record) Validate() error {
	if len(r.Username) > UsernameSize {
		return fmt.Errorf("%w: username is %d bytes, max %d", ErrInvalidRecord, len(r.Username), UsernameSize)
	}
	if len(r.Email) > EmailSize {
		return fmt.Errorf("%w: email is %d bytes, max %d", ErrInvalidRecord, len(r.Email), EmailSize)
	}
	if strings.IndexByte(r.Username, 0) >= 0 || strings.IndexByte(r.Email, 0) >= 0 {
		return fmt.Errorf("%w: text fields cannot contain NUL bytes", ErrInvalidRecord)
	}
	return nil
}

// Marshal serializes the record into buf, which must be at least RecordSize long.
// Unused bytes of the text fields are zeroed.
func (r Record) Marshal(buf []byte) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if len(buf) < RecordSize {
		buf = make([]byte, RecordSize)
	}
	buf = buf[:RecordSize]

	marshalUint32(buf, r.ID, idOffset)
	serializeString(r.Username, buf[usernameOffset:usernameOffset+usernameSize])
	serializeString(r.Email, buf[emailOffset:emailOffset+emailSize])

	return buf, nil
}

// UnmarshalRecord decodes a record serialized by Marshal.
func UnmarshalRecord(buf []byte, r *Record) error {
	if len(buf) < RecordSize {
		return fmt.Errorf("%w: record buffer is %d bytes, need %d", ErrOutOfBounds, len(buf), RecordSize)
	}
	r.ID = unmarshalUint32(buf, idOffset)
	r.Username = deserializeToString(buf[usernameOffset : usernameOffset+usernameSize])
	r.Email = deserializeToString(buf[emailOffset : emailOffset+emailSize])
	return nil
}

func (r Record) String() string {
	return fmt.Sprintf("(%d, %s, %s)", r.ID, r.Username, r.Email)
}

func serializeString(s string, field []byte) {
	n := copy(field, s)
	clear(field[n:])
}

func deserializeToString(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

func marshalUint32(buf []byte, n uint32, i uint64) []byte {
	buf[i+0] = byte(n >> 0)
	buf[i+1] = byte(n >> 8)
	buf[i+2] = byte(n >> 16)
	buf[i+3] = byte(n >> 24)
	return buf
}

func unmarshalUint32(buf []byte, i uint64) uint32 {
	return 0 |
		(uint32(buf[i+0]) << 0) |
		(uint32(buf[i+1]) << 8) |
		(uint32(buf[i+2]) << 16) |
		(uint32(buf[i+3]) << 24)
}
