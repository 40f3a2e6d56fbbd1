package assistant

import (
	"fmt"
	"strings"

	"github.com/pimtong/fieldworks-backend/internal/jobs"
	"github.com/pimtong/fieldworks-backend/internal/projects"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
)

// Reply is one outbound chat message.
type Reply struct {
	Text           string
	RemoveKeyboard bool
}

const dateFormat = "Mon 02 Jan 2006"

func welcomeReply() Reply {
	return Reply{Text: "Welcome to the Fieldworks assistant.\nPlease log in with your portal account.\n\nWhat is your *username*?", RemoveKeyboard: true}
}

func usernamePrompt() Reply {
	return Reply{Text: "What is your *username*?"}
}

func passwordPrompt() Reply {
	return Reply{Text: "And your *password*?"}
}

func loginSuccessReply(fullName string) Reply {
	return Reply{Text: fmt.Sprintf("Logged in as *%s*. Ask me about your jobs, e.g. _what do I have today?_", escapeMarkdown(fullName))}
}

func loginFailedReply() Reply {
	return Reply{Text: "That username and password did not match. Let's try again."}
}

func helpReply() Reply {
	return Reply{Text: strings.Join([]string{
		"I can help with your field work schedule. Try:",
		"- _what do I have today?_",
		"- _show job 12_",
		"- _mark job 12 as completed_",
		"- _which projects are active?_",
	}, "\n")}
}

func rateLimitedReply() Reply {
	return Reply{Text: "I'm handling too many requests right now. Please try again in a minute."}
}

func failureReply() Reply {
	return Reply{Text: "Sorry, something went wrong on my side. Please try again."}
}

func jobNotFoundReply() Reply {
	return Reply{Text: "I couldn't find that job for you."}
}

func passwordPortalReply(portalURL string) Reply {
	return Reply{Text: fmt.Sprintf("You can change your password in the web portal:\n%s", portalURL)}
}

func statusIcon(status enums.JobStatus) string {
	switch status {
	case enums.JobStatusPending:
		return "⏳"
	case enums.JobStatusAssigned:
		return "📋"
	case enums.JobStatusInProgress:
		return "🔧"
	case enums.JobStatusCompleted:
		return "✅"
	case enums.JobStatusCancelled:
		return "🚫"
	}
	return "•"
}

func mapLink(lat, long *string) string {
	if lat == nil || long == nil {
		return ""
	}
	return fmt.Sprintf("https://maps.google.com/?q=%s,%s", *lat, *long)
}

func assigneeLine(assignments []jobs.AssignmentDTO) string {
	var names []string
	for _, assignment := range assignments {
		switch {
		case assignment.TechnicianName != nil:
			names = append(names, escapeMarkdown(*assignment.TechnicianName))
		case assignment.TeamName != nil:
			names = append(names, "team "+escapeMarkdown(*assignment.TeamName))
		}
	}
	return strings.Join(names, ", ")
}

func productLine(productType, model *string) string {
	var parts []string
	if productType != nil && *productType != "" {
		parts = append(parts, escapeMarkdown(*productType))
	}
	if model != nil && *model != "" {
		parts = append(parts, escapeMarkdown(*model))
	}
	return strings.Join(parts, " ")
}

func jobListReply(list []jobs.JobDTO, total int64, shown int) Reply {
	if len(list) == 0 {
		return Reply{Text: "No jobs found matching your criteria."}
	}

	var sb strings.Builder
	if total == 1 {
		sb.WriteString("*1 job*\n")
	} else {
		fmt.Fprintf(&sb, "*%d jobs*\n", total)
	}

	for i, job := range list {
		if i >= shown {
			break
		}
		fmt.Fprintf(&sb, "\n%s #%d %s [%s]\n", statusIcon(job.Status), job.ID, escapeMarkdown(job.Title), job.Status)
		fmt.Fprintf(&sb, "    %s", job.ScheduledDate.Format(dateFormat))
		if job.ScheduledTime != nil {
			fmt.Fprintf(&sb, " %s", *job.ScheduledTime)
		}
		fmt.Fprintf(&sb, " · %s", escapeMarkdown(job.CustomerName))
		sb.WriteString("\n")
		if names := assigneeLine(job.Assignments); names != "" {
			fmt.Fprintf(&sb, "    %s\n", names)
		}
		if product := productLine(job.ProductType, job.Model); product != "" {
			fmt.Fprintf(&sb, "    %s\n", product)
		}
		if link := mapLink(job.LocationLat, job.LocationLong); link != "" {
			fmt.Fprintf(&sb, "    [map](%s)\n", link)
		}
	}

	if int64(shown) < total {
		fmt.Fprintf(&sb, "\n_Showing %d of %d. Narrow the date range to see the rest._", shown, total)
	}
	return Reply{Text: strings.TrimRight(sb.String(), "\n")}
}

func jobDetailReply(detail *jobs.JobDetailDTO) Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *#%d %s* [%s]\n", statusIcon(detail.Status), detail.ID, escapeMarkdown(detail.Title), detail.Status)
	fmt.Fprintf(&sb, "Type: %s\n", detail.JobType)
	fmt.Fprintf(&sb, "Scheduled: %s", detail.ScheduledDate.Format(dateFormat))
	if detail.ScheduledTime != nil {
		fmt.Fprintf(&sb, " %s", *detail.ScheduledTime)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Customer: %s, %s\n", escapeMarkdown(detail.CustomerName), detail.CustomerPhone)
	fmt.Fprintf(&sb, "Address: %s\n", escapeMarkdown(detail.CustomerAddress))
	if link := mapLink(detail.LocationLat, detail.LocationLong); link != "" {
		fmt.Fprintf(&sb, "[Open in maps](%s)\n", link)
	}
	if product := productLine(detail.ProductType, detail.Model); product != "" {
		fmt.Fprintf(&sb, "Product: %s\n", product)
	}
	if detail.ProjectName != nil {
		fmt.Fprintf(&sb, "Project: %s\n", escapeMarkdown(*detail.ProjectName))
	}
	if detail.Description != nil && *detail.Description != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", escapeMarkdown(*detail.Description))
	}

	if len(detail.Assignments) > 0 {
		sb.WriteString("Assigned to:")
		for _, assignment := range detail.Assignments {
			switch {
			case assignment.TechnicianName != nil:
				fmt.Fprintf(&sb, " %s", escapeMarkdown(*assignment.TechnicianName))
			case assignment.TeamName != nil:
				fmt.Fprintf(&sb, " team %s", escapeMarkdown(*assignment.TeamName))
			}
		}
		sb.WriteString("\n")
	}
	return Reply{Text: strings.TrimRight(sb.String(), "\n")}
}

func jobUpdatedReply(detail *jobs.JobDetailDTO) Reply {
	return Reply{Text: fmt.Sprintf("Success: job *#%d %s* is now *%s*.", detail.ID, escapeMarkdown(detail.Title), detail.Status)}
}

func jobUpdateFailedReply(reason string) Reply {
	return Reply{Text: fmt.Sprintf("Failed: %s.", reason)}
}

func loginCancelledReply() Reply {
	return Reply{Text: "Login cancelled. Send /start when you want to link your account.", RemoveKeyboard: true}
}

func projectListReply(list []projects.ProjectDTO) Reply {
	if len(list) == 0 {
		return Reply{Text: "No projects found."}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d active projects*\n", len(list))
	for _, project := range list {
		fmt.Fprintf(&sb, "\n#%d %s\n", project.ID, escapeMarkdown(project.Name))
		fmt.Fprintf(&sb, "    %d jobs, %.0f%% complete\n", project.JobCount, project.CompletionPercentage)
	}
	return Reply{Text: strings.TrimRight(sb.String(), "\n")}
}

// progressBar renders a ten-segment completion gauge.
func progressBar(percentage float64) string {
	filled := int(percentage / 10)
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)
}

func projectDetailReply(project projects.ProjectDTO, jobList []jobs.JobDTO) Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*#%d %s*\n", project.ID, escapeMarkdown(project.Name))
	if project.CustomerName != nil && *project.CustomerName != "" {
		fmt.Fprintf(&sb, "Customer: %s\n", escapeMarkdown(*project.CustomerName))
	}
	fmt.Fprintf(&sb, "%s %.0f%% (%d of %d jobs done)\n",
		progressBar(project.CompletionPercentage), project.CompletionPercentage,
		project.CompletedJobCount, project.JobCount)

	if len(jobList) > 0 {
		sb.WriteString("\nJobs:\n")
		for _, job := range jobList {
			fmt.Fprintf(&sb, "%s #%d %s, %s\n",
				statusIcon(job.Status), job.ID, escapeMarkdown(job.Title),
				job.ScheduledDate.Format(dateFormat))
		}
	}
	return Reply{Text: strings.TrimRight(sb.String(), "\n")}
}

// escapeMarkdown neutralizes the Markdown control characters Telegram
// parses, so user-provided names cannot break the message formatting.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", `\_`,
		"*", `\*`,
		"`", "\\`",
		"[", `\[`,
	)
	return replacer.Replace(s)
}
