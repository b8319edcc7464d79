package service

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/relaycrm/outreach-backend/internal/model"
)

func TestRenderTemplateSubstitutesKnownFields(t *testing.T) {
	got := RenderTemplate("Hi {{first_name}} {{last_name}}!", map[string]string{
		"first_name": "Sam",
		"last_name":  "Reed",
	})
	if got != "Hi Sam Reed!" {
		t.Errorf("expected 'Hi Sam Reed!', got %q", got)
	}
}

func TestRenderTemplateKeepsUnknownTokensVerbatim(t *testing.T) {
	got := RenderTemplate("Hi {{first_name}}, re {{deal_size}}", map[string]string{
		"first_name": "Sam",
	})
	if got != "Hi Sam, re {{deal_size}}" {
		t.Errorf("expected unknown token preserved, got %q", got)
	}
}

func TestRenderTemplateIsDeterministic(t *testing.T) {
	tpl := "{{a}} {{b}} {{missing}} {{a}}"
	data := map[string]string{"a": "x", "b": "y"}

	first := RenderTemplate(tpl, data)
	second := RenderTemplate(tpl, data)
	if first != second {
		t.Errorf("two renders differ: %q vs %q", first, second)
	}
}

func TestRenderTemplateAllowsWhitespaceInTokens(t *testing.T) {
	got := RenderTemplate("Hi {{ first_name }}", map[string]string{"first_name": "Ana"})
	if got != "Hi Ana" {
		t.Errorf("expected 'Hi Ana', got %q", got)
	}
}

func TestPickSubjectWithoutAlternate(t *testing.T) {
	tpl := &model.MessageTemplate{Subject: "Primary"}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		subject, variant := PickSubject(tpl, rng)
		if subject != "Primary" || variant != SubjectVariantA {
			t.Fatalf("expected always variant A, got %q/%q", subject, variant)
		}
	}
}

func TestPickSubjectCoinFlipsBetweenVariants(t *testing.T) {
	alt := "Alternate"
	tpl := &model.MessageTemplate{Subject: "Primary", SubjectB: &alt}
	rng := rand.New(rand.NewSource(7))

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		subject, variant := PickSubject(tpl, rng)
		seen[variant] = true
		switch variant {
		case SubjectVariantA:
			if subject != "Primary" {
				t.Fatalf("variant A returned %q", subject)
			}
		case SubjectVariantB:
			if subject != "Alternate" {
				t.Fatalf("variant B returned %q", subject)
			}
		default:
			t.Fatalf("unexpected variant %q", variant)
		}
	}
	if !seen[SubjectVariantA] || !seen[SubjectVariantB] {
		t.Error("100 draws never produced both variants")
	}
}

func TestAppendComplianceFooter(t *testing.T) {
	got := AppendComplianceFooter("<p>Body</p>", "http://app.test/unsubscribe?token=abc", "Acme Inc, 100 Main St")

	if !strings.HasPrefix(got, "<p>Body</p>") {
		t.Error("footer must be appended, not replace the body")
	}
	if !strings.Contains(got, "http://app.test/unsubscribe?token=abc") {
		t.Error("footer is missing the unsubscribe link")
	}
	if !strings.Contains(got, "Acme Inc, 100 Main St") {
		t.Error("footer is missing the postal address")
	}
}

func TestAppendSignature(t *testing.T) {
	org := &model.OrgSettings{SignatureHTML: "<b>Acme</b>", SignatureText: "Acme"}

	html, text := AppendSignature("<p>Hi</p>", "Hi", org)
	if !strings.Contains(html, "<b>Acme</b>") {
		t.Error("HTML signature not appended")
	}
	if !strings.Contains(text, "Acme") {
		t.Error("text signature not appended")
	}

	// Empty signatures leave the bodies untouched.
	html, text = AppendSignature("<p>Hi</p>", "Hi", &model.OrgSettings{})
	if html != "<p>Hi</p>" || text != "Hi" {
		t.Error("empty signatures must not modify the bodies")
	}
}
