// internal/service/template_service.go
package service

import (
	"fmt"
	"math/rand"
	"regexp"

	"github.com/relaycrm/outreach-backend/internal/model"
)

var mergeFieldPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// RenderTemplate substitutes {{field}} tokens from data. Tokens with no
// known value are left verbatim so a broken template is visible in the sent
// mail instead of silently losing content. Rendering is deterministic.
func RenderTemplate(template string, data map[string]string) string {
	return mergeFieldPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := mergeFieldPattern.FindStringSubmatch(token)[1]
		if value, ok := data[name]; ok {
			return value
		}
		return token
	})
}

// MergeFields builds the flat field mapping for one contact.
func MergeFields(contact *model.Contact) map[string]string {
	return map[string]string{
		"first_name": contact.FirstName,
		"last_name":  contact.LastName,
		"email":      contact.Email,
		"title":      contact.Title,
		"company":    contact.Company,
	}
}

// Subject A/B variants. The draw happens at send time, per attempt; the
// chosen variant is recorded on the queue item.
const (
	SubjectVariantA = "A"
	SubjectVariantB = "B"
)

// PickSubject chooses between the template's primary and alternate subject
// with an unweighted coin flip. Templates without an alternate always get A.
func PickSubject(tpl *model.MessageTemplate, rng *rand.Rand) (string, string) {
	if tpl.SubjectB == nil || *tpl.SubjectB == "" {
		return tpl.Subject, SubjectVariantA
	}
	if rng.Intn(2) == 1 {
		return *tpl.SubjectB, SubjectVariantB
	}
	return tpl.Subject, SubjectVariantA
}

// AppendSignature tacks the org's default signature onto the rendered bodies.
func AppendSignature(bodyHTML, bodyText string, org *model.OrgSettings) (string, string) {
	if org.SignatureHTML != "" {
		bodyHTML += "<br/>" + org.SignatureHTML
	}
	if org.SignatureText != "" {
		bodyText += "\n\n" + org.SignatureText
	}
	return bodyHTML, bodyText
}

// AppendComplianceFooter adds the one-click unsubscribe link and the org's
// physical mailing address beneath the HTML body. Callers skip it when the
// template opted out via skip_footer.
func AppendComplianceFooter(bodyHTML, unsubscribeURL, postalAddress string) string {
	return bodyHTML + fmt.Sprintf(
		`<div style="margin-top:24px;font-size:11px;color:#888">`+
			`<a href="%s">Unsubscribe</a><br/>%s</div>`,
		unsubscribeURL, postalAddress,
	)
}
