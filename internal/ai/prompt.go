package ai

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/docquery-cli/internal/utils"
)

// BuildPrompt assembles a question prompt that nudges the model toward
// single-paragraph, delimiter-free answers suitable for tabular export.
// maxDocTokens caps the embedded document text; zero means no cap.
func BuildPrompt(documentText, question string, maxDocTokens int) string {
	if maxDocTokens > 0 {
		documentText = utils.TruncateToTokenLimit(documentText, maxDocTokens)
	}
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant that answers questions based on the provided document content.\n\n")
	sb.WriteString("Document Content:\n")
	sb.WriteString(documentText)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Question: %s\n\n", question)
	sb.WriteString("Please provide a clear, concise answer based on the document content. Format your response as follows:\n")
	sb.WriteString("- Use complete sentences but be concise\n")
	sb.WriteString("- Write in a single paragraph without line breaks\n")
	sb.WriteString("- If listing multiple items, separate them with semicolons (;) not bullet points\n")
	sb.WriteString("- Keep the answer focused and to-the-point\n")
	sb.WriteString("- If the answer cannot be found in the document, state \"Information not found in document\"\n")
	sb.WriteString("- Do not use markdown formatting, bullet points, or numbered lists\n\n")
	sb.WriteString("Answer:")
	return sb.String()
}
