package checks

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"protoval/domain/protocol"
	"protoval/domain/validation"
)

// timelinePattern matches "<n> <unit> <relation> <anchor>", e.g.
// "14 days prior to randomization". The relation alternation lists
// "prior to" before "to" so the longer form wins.
var timelinePattern = regexp.MustCompile(
	`(?i)\b(\d+)\s+(days?|weeks?|months?|years?)\s+(prior\s+to|after|from|to)\s+(\w+)`)

var unitDays = map[string]int{
	"day":   1,
	"week":  7,
	"month": 30,
	"year":  365,
}

type timelineMention struct {
	raw     string
	days    int
	section string
}

// extractMentions pulls every timeline mention out of text in order of
// appearance. Mentions that fail to parse are dropped without comment.
func extractMentions(text, section string) []timelineMention {
	var mentions []timelineMention
	for _, m := range timelinePattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		unit := strings.TrimSuffix(strings.ToLower(m[2]), "s")
		factor, ok := unitDays[unit]
		if !ok {
			continue
		}
		mentions = append(mentions, timelineMention{
			raw:     strings.TrimSpace(m[0]),
			days:    value * factor,
			section: section,
		})
	}
	return mentions
}

// CheckTimeline scans a single text for timeline mentions and flags
// every adjacent pair whose first duration is not shorter than the
// second. The comparison follows order of mention only; it does not
// try to infer whether two mentions describe the same schedule, so the
// result is a prompt for review rather than a verdict.
func CheckTimeline(text string) []validation.Issue {
	return timelineIssues(extractMentions(text, ""))
}

// CheckDocumentTimeline runs the timeline scan across all sections in
// document order, so mentions in consecutive sections are compared as
// neighbours too.
func CheckDocumentTimeline(doc *protocol.Document) []validation.Issue {
	var mentions []timelineMention
	for _, name := range doc.Names() {
		content, _ := doc.Get(name)
		mentions = append(mentions, extractMentions(content, name)...)
	}
	return timelineIssues(mentions)
}

func timelineIssues(mentions []timelineMention) []validation.Issue {
	var issues []validation.Issue
	for i := 1; i < len(mentions); i++ {
		first, second := mentions[i-1], mentions[i]
		if first.days < second.days {
			continue
		}
		location := second.section
		if first.section != second.section {
			location = first.section + ", " + second.section
		}
		issues = append(issues, validation.Issue{
			Type:     validation.IssueTimelineInconsistent,
			Severity: validation.SeverityMajor,
			Message: fmt.Sprintf("Timeline mentions out of sequence: %q appears before %q",
				first.raw, second.raw),
			Location:   location,
			Suggestion: "Check whether these durations are stated in the intended order",
		})
	}
	return issues
}
