// Package identifier centralizes allow-list validation of untrusted
// schema-object names (database, schema, table). SQL Server requires these
// names to appear positionally in SQL text rather than as bound parameters,
// so this check is the sole injection defense for identifier slots.
package identifier

import (
	"errors"
	"fmt"
	"regexp"
)

// MaxLength matches the SQL Server sysname bound.
const MaxLength = 128

// pattern is the allow-list: letters, digits, underscore; must start with a
// letter or underscore.
var pattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate returns nil if name is safe to interpolate into SQL text as a
// schema-object name. Every template shares this single check.
func Validate(name string) error {
	if name == "" {
		return errors.New("identifier is empty")
	}
	if len(name) > MaxLength {
		return fmt.Errorf("identifier exceeds %d characters", MaxLength)
	}
	if !pattern.MatchString(name) {
		return fmt.Errorf("identifier %q must match %s", name, pattern.String())
	}
	return nil
}
