package datastores

import (
	"encoding/json"
	"fmt"
)

// EncodeContacts renders contacts in the slot format: a JSON array
// indented with two spaces.
func EncodeContacts(contacts []Contact) ([]byte, error) {
	if contacts == nil {
		contacts = []Contact{}
	}
	return json.MarshalIndent(contacts, "", "  ")
}

// DecodeContacts parses the slot format. The payload is rejected as a whole
// when any entry lacks an id, a name or a phone, or when ids repeat.
func DecodeContacts(b []byte) ([]Contact, error) {
	var contacts []Contact
	if err := json.Unmarshal(b, &contacts); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}

	seen := make(map[ContactID]struct{}, len(contacts))
	for i := range contacts {
		c := &contacts[i]
		switch {
		case c.ID.IsZero():
			return nil, fmt.Errorf("decode contacts: entry %d: missing id", i)
		case c.Name == "" || c.Phone == "":
			return nil, fmt.Errorf("decode contacts: entry %d: %w", i, ErrInvalidContact)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("decode contacts: entry %d: duplicate id %s", i, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return contacts, nil
}
