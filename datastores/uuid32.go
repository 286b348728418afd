package datastores

import (
	"encoding/base32"

	"github.com/google/uuid"
)

// uuid32 is [uuid.UUID] but uses [base32] for its text form.
type uuid32 struct{ uuid.UUID }

var uuid32Encoding = base32.StdEncoding.WithPadding(base32.NoPadding) //nolint: gochecknoglobals,nolintlint

func (id *uuid32) initV4() *uuid32 { id.UUID = uuid.Must(uuid.NewRandom()); return id }

// String returns the base32 text form, not the canonical uuid form.
func (id uuid32) String() string { return uuid32Encoding.EncodeToString(id.UUID[:]) }
