package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/skillprobe/internal/question"
)

const systemPrompt = `You write questions that assess how well a learner knows a subject.

Rules:
- Write exactly one question that tests all of the given subtopics at the requested difficulty.
- The question must be self-contained. Do not refer to earlier questions.
- MultipleChoice: give exactly 4 distinct options with exactly one correct. Put its 0-based index in correct_index as a string. Distractors should reflect common misconceptions.
- ShortAnswer: the learner answers in a sentence or two. Put a concise model answer in reference_answer.
- Coding: ask for a complete Python 3 program that reads its input from stdin and prints the result to stdout. Give at least 10 test_cases. Each expected_output is the exact stdout, compared after trimming surrounding whitespace. Cover edge cases.
- Leave fields that do not apply to the question type empty.
- Choose time_limit_seconds appropriate to the type and difficulty.
- Do not repeat any question from the "already asked" list.`

// buildUserMessage constructs the user message from the input and config limits.
func buildUserMessage(input GenerateInput, cfg Config) string {
	var b strings.Builder

	if input.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", input.Topic)
	}
	fmt.Fprintf(&b, "Subtopics: %s\n", strings.Join(input.Spec.Tags, ", "))
	fmt.Fprintf(&b, "Question type: %s\n", input.Spec.Type)
	fmt.Fprintf(&b, "Difficulty: %s\n", input.Spec.Difficulty)
	if input.Spec.Type == question.TypeCoding {
		fmt.Fprintf(&b, "Minimum test cases: %d\n", question.MinTestCases)
	}

	b.WriteString("\nAlready asked in this session:\n")
	b.WriteString(buildDedup(input.PriorQuestions, cfg.MaxPriorQuestions))

	return b.String()
}

// buildDedup formats prior questions for the prompt, keeping the most
// recent max. Returns "None" when there are none.
func buildDedup(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
