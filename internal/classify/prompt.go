package classify

import (
	"fmt"
	"strings"
)

// maxPromptTextChars bounds how much extracted text reaches the model.
const maxPromptTextChars = 2000

// BuildPrompt renders the classification prompt for a document.
func BuildPrompt(text, fileName string) string {
	excerpt := truncateUTF8(strings.TrimSpace(text), maxPromptTextChars)

	var b strings.Builder
	b.WriteString("Eres un clasificador de documentos para un archivo institucional.\n")
	b.WriteString("Analiza el documento y responde SOLO con un objeto JSON con esta forma:\n")
	b.WriteString(`{"category":"...","confidence":0.0,"tags":["..."],"summary":"...","language":"es|en","priority":"low|medium|high|urgent","classificationLevel":"public|internal|confidential|secret"}` + "\n\n")
	fmt.Fprintf(&b, "category debe ser una de: %s\n", strings.Join(Categories, ", "))
	b.WriteString("confidence es un número entre 0 y 1.\n")
	b.WriteString("summary: máximo 200 caracteres. tags: máximo 10.\n\n")
	fmt.Fprintf(&b, "Nombre de archivo: %s\n", fileName)
	if excerpt != "" {
		fmt.Fprintf(&b, "Texto del documento:\n%s\n", excerpt)
	} else {
		b.WriteString("El documento no tiene texto extraído; clasifica por el nombre de archivo.\n")
	}
	return b.String()
}
