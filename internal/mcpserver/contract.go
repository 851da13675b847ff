package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/folio/internal/doctype"
)

const documentRules = `
## Rules

1. A document is identified by its directory, title and type. The file name
   is always ` + "`<title>.<extension>`" + `.
2. Titles and directory names must be a single path segment: no slashes,
   no ` + "`..`" + `, no control characters.
3. Files with other extensions may live in the library (imports keep them)
   but they are not documents and cannot be opened or searched.
4. Importing never overwrites. A clashing name gets the lowest free numeric
   suffix before the extension, e.g. ` + "`report_1.txt`" + `.
5. Markdown documents may start with YAML frontmatter; ` + "`title`" + ` and
   ` + "`tags`" + ` are used for display and search. HTML documents take their
   display title from ` + "`<title>`" + ` or the first ` + "`<h1>`" + `.
6. Pass the ` + "`checksum`" + ` returned by read_document as ` + "`if_match`" + `
   to save_document to refuse overwriting concurrent edits.
`

// DocumentTypes renders the supported document types and naming rules as
// Markdown for LLM consumers.
func DocumentTypes() string {
	var b strings.Builder
	b.WriteString("# Folio Document Types\n\n")
	b.WriteString("| type | extension |\n|------|-----------|\n")
	for _, t := range doctype.All() {
		fmt.Fprintf(&b, "| %s | .%s |\n", t, t.Extension())
	}
	b.WriteString(documentRules)
	return b.String()
}
