package auth

import "fmt"

// CodeGenerator assigns employee codes at signup. The formatting rules live
// behind this interface so deployments can plug their own scheme.
type CodeGenerator interface {
	Generate(seq int64) string
}

// SequentialCodes issues zero-padded codes from the employee count.
type SequentialCodes struct {
	Prefix string
}

// Generate renders the code for the given sequence number.
func (g SequentialCodes) Generate(seq int64) string {
	prefix := g.Prefix
	if prefix == "" {
		prefix = "EMP"
	}
	return fmt.Sprintf("%s%04d", prefix, seq)
}
