package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/vidtube-api/pkg/mailer"
	mailtpl "github.com/oksasatya/vidtube-api/pkg/mailer/templates"
)

// EnsureRecipientAndEmail makes sure templates can always address the recipient.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}

// NormalizeTemplate lowercases the template name and falls back to Data["Type"] when the name is empty.
func NormalizeTemplate(job *mailer.EmailJob) {
	name := strings.ToLower(strings.TrimSpace(job.Template))
	if name == "" && job.Data != nil {
		if t, ok := job.Data["Type"]; ok {
			name = strings.ToLower(fmt.Sprintf("%v", t))
		}
	}
	if mailtpl.Known(name) {
		job.Template = name
	} else {
		job.Template = ""
	}
}

// SubjectFallback is used for raw jobs that carry no subject of their own.
func SubjectFallback(job *mailer.EmailJob) string {
	if s := strings.TrimSpace(job.Subject); s != "" {
		return s
	}
	return "Notification"
}
