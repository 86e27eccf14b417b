package compiler

// Compile runs the full pipeline over one source file: lex, parse, allocate
// registers, generate ARM assembly. It returns the assembly listing or the
// first error from any phase.
func Compile(src string) (string, error) {
	tokens, err := Lex(src)
	if err != nil {
		return "", err
	}

	unit, err := Parse(tokens, src)
	if err != nil {
		return "", err
	}

	if err := Allocate(unit); err != nil {
		return "", err
	}

	return Generate(unit)
}
