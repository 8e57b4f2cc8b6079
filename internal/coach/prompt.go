package coach

import (
	"fmt"
	"strings"

	"github.com/markis/bizcoach/internal/segment"
)

// Roles of a conversation turn.
const (
	RoleUser    = "user"
	RolePartner = "partner"
)

// Turn is one line of earlier conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Prompt is what a Producer sends to the model.
type Prompt struct {
	System string
	User   string
}

// blockInstructions describes what the model writes under each tag.
var blockInstructions = map[segment.Field]string{
	segment.FieldNext:         "your reply as the role-play partner, 1–2 sentences, continuing the scenario.",
	segment.FieldNextJP:       "a natural Japanese translation of your reply.",
	segment.FieldRefactored:   "rewrite the user's utterance into natural, situation-appropriate business English. Same intent, similar length.",
	segment.FieldRefactoredJP: "a natural Japanese translation of the rewritten utterance.",
	segment.FieldAnalysis:     "two or three short markdown bullet points from an HR perspective: why the rewrite works and any behavior or tone note for the scenario.",
	segment.FieldNote:         "one or two short sentences from an HR perspective: why this wording works and any behavior/tone note for the scenario.",
}

var blockCounts = map[int]string{1: "one", 2: "two", 3: "three", 4: "four", 5: "five", 6: "six"}

// Prompter builds prompts whose tag contract matches the parser's schema.
type Prompter struct {
	schema segment.Schema
	scenes *Catalogue
}

func NewPrompter(schema segment.Schema, scenes *Catalogue) *Prompter {
	return &Prompter{schema: schema, scenes: scenes}
}

// Schema returns the schema the prompts ask for.
func (p *Prompter) Schema() segment.Schema {
	return p.schema
}

// SystemPrompt returns the instruction set for a scene. Unknown scenes get the base prompt.
func (p *Prompter) SystemPrompt(sceneID string) string {
	tags := p.schema.Tags()
	n := blockCounts[len(tags)]
	if n == "" {
		n = fmt.Sprint(len(tags))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a business English coach and HR communication expert. "+
		"Output ONLY the following %s blocks in order. No greeting, no preamble, no explanation. "+
		"Start immediately with the first tag.\n", n)
	for _, sec := range p.schema.Sections {
		fmt.Fprintf(&b, "\n%s\n(One block: %s)\n", sec.Tag, blockInstructions[sec.Field])
	}
	fmt.Fprintf(&b, "\nRules: Do not output anything before %s. Do not output anything after the %s content. "+
		"No \"Sure.\", \"Here is.\", or similar. Only the %s tags and their content.",
		tags[0], tags[len(tags)-1], n)

	if scene, ok := p.scenes.Lookup(sceneID); ok {
		fmt.Fprintf(&b, "\n\nCurrent scenario: %s", scene.Context)
		if scene.Focus != "" {
			fmt.Fprintf(&b, "\nCoaching focus: %s", scene.Focus)
		}
	}
	return b.String()
}

// Build returns the prompt for one conversational turn.
func (p *Prompter) Build(sceneID, message string, history []Turn) Prompt {
	var b strings.Builder

	if scene, ok := p.scenes.Lookup(sceneID); ok {
		b.WriteString(scene.Context)
		if scene.Focus != "" {
			fmt.Fprintf(&b, "\n\nCoaching: %s", scene.Focus)
		}
	} else {
		b.WriteString("Business conversation.")
	}
	b.WriteString("\n\n")

	if len(history) > 0 {
		for _, h := range history {
			speaker := "Partner"
			if h.Role == RoleUser {
				speaker = "User"
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, h.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User (refactor and respond): %q\n\n", strings.TrimSpace(message))

	tags := p.schema.Tags()
	fmt.Fprintf(&b, "Output only %s", tags[0])
	for i, tag := range tags[1:] {
		if i == len(tags)-2 {
			fmt.Fprintf(&b, ", then %s", tag)
		} else {
			fmt.Fprintf(&b, ", %s", tag)
		}
	}
	b.WriteString(" with their content. Nothing else.")

	return Prompt{System: p.SystemPrompt(sceneID), User: b.String()}
}
