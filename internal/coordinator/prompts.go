package coordinator

import (
	"fmt"
	"sort"
	"strings"
)

// contextMaxChars bounds how much of each prior answer feeds forward in
// sequential mode.
const contextMaxChars = 500

type contextEntry struct {
	provider string
	text     string
}

// sequentialPrompt enriches the original prompt with truncated digests of
// the answers produced so far.
func sequentialPrompt(prompt string, history []contextEntry) string {
	if len(history) == 0 {
		return prompt
	}

	var parts []string
	for _, entry := range history {
		text := entry.text
		if len(text) > contextMaxChars {
			text = text[:contextMaxChars] + "..."
		}
		parts = append(parts, fmt.Sprintf("[Context from %s]: %s", entry.provider, text))
	}

	return fmt.Sprintf(
		"%s\n\nPrevious agent responses for context:\n%s\n\nPlease provide your response, building on or complementing the above if relevant.",
		prompt, strings.Join(parts, "\n\n"))
}

// consensusPrompt asks the synthesis provider to merge the answer set.
func consensusPrompt(prompt string, order []string, responses map[string]string) string {
	names := append([]string(nil), order...)
	if len(names) == 0 {
		for name := range responses {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	var parts []string
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("Response from %s:\n%s", name, responses[name]))
	}

	return fmt.Sprintf(
		"Original question: %s\n\n"+
			"Multiple AI agents provided the following responses:\n\n%s\n\n"+
			"Please provide a synthesized consensus that:\n"+
			"1. Identifies common themes and agreements\n"+
			"2. Notes significant disagreements or different perspectives\n"+
			"3. Provides a balanced, comprehensive answer\n"+
			"4. Highlights which aspects have strong agreement vs. debate",
		prompt, strings.Join(parts, "\n\n"))
}

// debatePrompt shows a provider the other providers' previous answers and
// asks it to refine its position. The provider's own answer is excluded.
func debatePrompt(prompt, self string, prev map[string]string) string {
	names := make([]string, 0, len(prev))
	for name := range prev {
		if name != self {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("[%s's previous response]: %s", name, prev[name]))
	}

	return fmt.Sprintf(
		"Original prompt: %s\n\nOther agents' responses:\n%s\n\nPlease refine your position, considering the above perspectives.",
		prompt, strings.Join(parts, "\n\n"))
}

// specialistPrompt frames the prompt from an assigned role's perspective.
func specialistPrompt(prompt, role string) string {
	return fmt.Sprintf(
		"You are acting as a %s. Approach the following from that specific perspective:\n\n%s",
		role, prompt)
}

// planningPrompt opens the build pipeline: architecture before code.
func planningPrompt(task string) string {
	return fmt.Sprintf(
		"You are planning a software build. Task:\n%s\n\n"+
			"Propose an architecture and implementation plan: the files to create, "+
			"the responsibilities of each, and the order to build them in. "+
			"Do not write the implementation yet.",
		task)
}

// implementationPrompt turns the agreed plan into code.
func implementationPrompt(task, plan string) string {
	return fmt.Sprintf(
		"Implement the following task according to the agreed plan.\n\n"+
			"Task:\n%s\n\nAgreed plan:\n%s\n\n"+
			"Write the complete files. Put each file in its own fenced code block "+
			"and name the file on the line before the block, like: Create `path/name.py`:",
		task, plan)
}

// reviewPrompt asks for a verdict on the produced artifacts.
func reviewPrompt(task string, files []string) string {
	return fmt.Sprintf(
		"Review the implementation of this task:\n%s\n\n"+
			"Files produced: %s\n\n"+
			"Identify bugs, missing pieces and deviations from the task. "+
			"Be specific about which file each issue is in.",
		task, strings.Join(files, ", "))
}

// revisePrompt asks for corrected versions of rejected artifacts.
func revisePrompt(task string, rejected []string, feedback string) string {
	return fmt.Sprintf(
		"The following files failed verification: %s\n\n"+
			"Task:\n%s\n\nReview feedback:\n%s\n\n"+
			"Provide corrected, complete versions of the failed files. "+
			"Put each file in its own fenced code block and name the file on the "+
			"line before the block.",
		strings.Join(rejected, ", "), task, feedback)
}
