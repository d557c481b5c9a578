package extract

import "fmt"

// AnchorError reports that a key-value strategy's anchor text was not
// located in the document. It is never fatal: the field is left unset and
// may still be satisfied by another document in the same session.
type AnchorError struct {
	Field string
	Key   string
}

func (e *AnchorError) Error() string {
	return fmt.Sprintf("anchor %q for field %q not found", e.Key, e.Field)
}
