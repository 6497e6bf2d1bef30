package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// RenderCode prints source code to stdout with terminal syntax highlighting.
// When highlighting fails (unknown language, unsupported terminal) the code
// is printed plain so output is never lost.
func RenderCode(code string, language string, theme string) {
	if language == "" {
		language = "text"
	}
	if err := quick.Highlight(os.Stdout, code, language, "terminal256", theme); err != nil {
		fmt.Print(code)
	}
	if !strings.HasSuffix(code, "\n") {
		fmt.Println()
	}
}
