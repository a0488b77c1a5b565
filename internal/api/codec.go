package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEMsgpack selects msgpack bodies through Accept and Content-Type.
const MIMEMsgpack = "application/msgpack"

func wantsMsgpack(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEMsgpack)
}

// respond writes v as msgpack when the client asked for it, else JSON.
func respond(c echo.Context, status int, v interface{}) error {
	if wantsMsgpack(c) {
		data, err := msgpack.Marshal(v)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(status, MIMEMsgpack, data)
	}
	return c.JSON(status, v)
}

// bind decodes the request body as msgpack or JSON by Content-Type.
func bind(c echo.Context, v interface{}) error {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, MIMEMsgpack) {
		if err := msgpack.NewDecoder(c.Request().Body).Decode(v); err != nil {
			return NewBadRequestError("invalid msgpack body", err)
		}
		return nil
	}
	if err := c.Bind(v); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	return nil
}

// CategoryCounts is an ordered category -> count object. Both codecs write
// its keys in slice order, which plain Go maps cannot guarantee.
type CategoryCounts []CategoryCount

type CategoryCount struct {
	Category string
	Count    int
}

func (cc CategoryCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range cc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Category)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", c.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (cc CategoryCounts) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(cc)); err != nil {
		return err
	}
	for _, c := range cc {
		if err := enc.EncodeString(c.Category); err != nil {
			return err
		}
		if err := enc.EncodeInt(int64(c.Count)); err != nil {
			return err
		}
	}
	return nil
}

var _ msgpack.CustomEncoder = CategoryCounts(nil)

