package langtest

import (
	"testing"

	"github.com/nalgeon/be"
)

const sampleDoc = "# Guide\n" +
	"\n" +
	"Some prose.\n" +
	"\n" +
	"## Example: return a constant\n" +
	"\n" +
	"```bcl\n" +
	"fun main(): int { return 7; }\n" +
	"```\n" +
	"\n" +
	"```asm\n" +
	"mov r0, #7\n" +
	"pop {pc}\n" +
	"```\n" +
	"\n" +
	"## Example: no expectations\n" +
	"\n" +
	"```bcl\n" +
	"fun main(): int { return 0; }\n" +
	"```\n"

func TestExtractExamples(t *testing.T) {
	examples, err := ExtractExamples([]byte(sampleDoc))
	be.Err(t, err, nil)
	be.Equal(t, len(examples), 2)

	first := examples[0]
	be.Equal(t, first.Name, "return a constant")
	be.Equal(t, first.Source, "fun main(): int { return 7; }\n")
	be.Equal(t, first.Expect, []string{"mov r0, #7", "pop {pc}"})

	second := examples[1]
	be.Equal(t, second.Name, "no expectations")
	be.Equal(t, len(second.Expect), 0)
}

func TestExtractIgnoresFencesOutsideExamples(t *testing.T) {
	doc := "# Guide\n\n```bcl\nfun stray(): int { return 1; }\n```\n"
	examples, err := ExtractExamples([]byte(doc))
	be.Err(t, err, nil)
	be.Equal(t, len(examples), 0)
}

func TestExtractMissingSourceFence(t *testing.T) {
	doc := "## Example: broken\n\n```asm\nmov r0, #1\n```\n"
	_, err := ExtractExamples([]byte(doc))
	be.Err(t, err, "has no bcl fence")
}

func TestExtractDuplicateSourceFence(t *testing.T) {
	doc := "## Example: doubled\n\n```bcl\nfun a(): int { return 1; }\n```\n\n```bcl\nfun b(): int { return 2; }\n```\n"
	_, err := ExtractExamples([]byte(doc))
	be.Err(t, err, "more than one bcl fence")
}

func TestExtractBlankAsmLinesDropped(t *testing.T) {
	doc := "## Example: spaced\n\n```bcl\nfun main(): int { return 0; }\n```\n\n```asm\n\nmov r0, #0\n\n```\n"
	examples, err := ExtractExamples([]byte(doc))
	be.Err(t, err, nil)
	be.Equal(t, examples[0].Expect, []string{"mov r0, #0"})
}
