package datastores

import (
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
)

// ConfirmToken is a random [uuid.UUID] that uses [base64.RawURLEncoding]
// to marshal to and from text. It authorizes exactly one pending deletion.
type ConfirmToken uuid.UUID

func newConfirmToken() ConfirmToken { return ConfirmToken(uuid.Must(uuid.NewRandom())) }

// ParseConfirmToken decodes the text form produced by [ConfirmToken.String].
func ParseConfirmToken(s string) (ConfirmToken, error) {
	var token ConfirmToken
	return token, token.UnmarshalText([]byte(s))
}

func (ConfirmToken) encoding() *base64.Encoding { return base64.RawURLEncoding }

func (t ConfirmToken) encodedLen() int {
	return t.encoding().EncodedLen(len(t))
}

func (t ConfirmToken) String() string { return t.encoding().EncodeToString(t[:]) }

func (t ConfirmToken) AppendText(b []byte) ([]byte, error) {
	return t.encoding().AppendEncode(b, t[:]), nil
}

func (t ConfirmToken) MarshalText() ([]byte, error) {
	return t.AppendText(nil)
}

func (t *ConfirmToken) UnmarshalText(b []byte) error {
	if len(b) != t.encodedLen() {
		return errors.New("invalid length")
	}
	_, err := t.encoding().Decode(t[:], b)
	return err
}
