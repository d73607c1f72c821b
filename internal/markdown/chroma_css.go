package markdown

import (
	"bytes"
	"html/template"
	"strings"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// Code blocks follow the visitor's colour scheme; Bootstrap's light and dark
// palettes are closest to these two styles.
var colorSchemes = []struct {
	media string
	style string
}{
	{media: "(prefers-color-scheme: light)", style: "github"},
	{media: "(prefers-color-scheme: dark)", style: "github-dark"},
}

var chromaCSS = sync.OnceValue(func() template.CSS {
	var out strings.Builder
	for _, scheme := range colorSchemes {
		css := styleCSS(scheme.style)
		if css == "" {
			continue
		}
		out.WriteString("@media " + scheme.media + " {\n")
		out.WriteString(css)
		out.WriteString("}\n")
	}
	return template.CSS(out.String())
})

// ChromaCSS returns the highlighting rules for the classes emitted by ToHTML.
func ChromaCSS() template.CSS {
	return chromaCSS()
}

func styleCSS(name string) string {
	style := styles.Get(name)
	if style == nil {
		style = styles.Fallback
	}

	var buffer bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buffer, style); err != nil {
		return ""
	}
	return buffer.String()
}
