package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

// placeholderPattern matches {{key}} tokens, tolerating inner whitespace
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// CustomMessagePreviewText is substituted for the reserved
// custom_message key in preview contexts. Send-time generation
// receives authored content for this key from the caller.
const CustomMessagePreviewText = "[Your personalized message will appear here]"

// RenderTemplate substitutes {{key}} placeholders in tmpl from data.
// It is total: it never fails, and placeholders whose key is absent or
// empty are left intact so unresolved tokens stay visible to the user
// instead of silently collapsing to empty strings.
func RenderTemplate(tmpl string, data map[string]string) string {
	if tmpl == "" {
		return ""
	}
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		key := placeholderPattern.FindStringSubmatch(token)[1]
		value, ok := data[key]
		if !ok || value == "" {
			return token
		}
		return value
	})
}

// FlattenValue coerces an arbitrary stored value to a flat string for
// substitution. Structured objects prefer a human-readable name/title
// field over a serialized dump.
func FlattenValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]interface{}:
		for _, key := range []string{"name", "title", "label"} {
			if s, ok := val[key].(string); ok && s != "" {
				return s
			}
		}
		parts := make([]string, 0, len(val))
		for k, inner := range val {
			parts = append(parts, fmt.Sprintf("%s=%v", k, inner))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// BuildTemplateData assembles the substitution mapping for one lead:
// lead attributes plus the workspace sender identity. When
// personalization is disabled on the campaign only the sender and
// campaign keys are exposed, so every recipient gets identical copy.
func BuildTemplateData(lead *models.Lead, workspace *models.Workspace, personalized bool) map[string]string {
	data := map[string]string{
		"sender_name": workspace.SenderName,
	}
	if !personalized {
		return data
	}
	if lead != nil {
		data["name"] = lead.Name
		data["company"] = lead.Company
		data["position"] = lead.Position
		data["industry"] = lead.Industry
		data["location"] = lead.Location
	}
	return data
}

// RenderMessage renders the subject and body slots of a campaign for
// one lead with a shared data mapping. The rendered subject is exposed
// to the body under the "subject" key for follow-up style templates.
func RenderMessage(campaign *models.Campaign, lead *models.Lead, workspace *models.Workspace, preview bool) (subject, body string) {
	data := BuildTemplateData(lead, workspace, campaign.PersonalizationEnabled)
	if preview {
		data["custom_message"] = CustomMessagePreviewText
	}

	subject = RenderTemplate(campaign.SubjectTemplate, data)
	data["subject"] = subject
	body = RenderTemplate(campaign.BodyTemplate, data)
	return subject, body
}

// RenderFollowUp renders the follow-up slots, falling back to the
// primary templates when no dedicated follow-up template is set
func RenderFollowUp(campaign *models.Campaign, lead *models.Lead, workspace *models.Workspace) (subject, body string) {
	subjectTmpl := campaign.FollowUpSubjectTemplate
	bodyTmpl := campaign.FollowUpBodyTemplate
	if subjectTmpl == "" {
		subjectTmpl = "Re: " + campaign.SubjectTemplate
	}
	if bodyTmpl == "" {
		bodyTmpl = campaign.BodyTemplate
	}

	data := BuildTemplateData(lead, workspace, campaign.PersonalizationEnabled)
	data["subject"] = RenderTemplate(campaign.SubjectTemplate, data)

	return RenderTemplate(subjectTmpl, data), RenderTemplate(bodyTmpl, data)
}
