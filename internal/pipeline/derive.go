package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName derives a customer display name from an account id:
// underscores become spaces and each word is title-cased, so the record
// reads well in the Orb UI ("acme_corp" -> "Acme Corp").
func DisplayName(accountID string) string {
	caser := cases.Title(language.English)
	return caser.String(strings.ReplaceAll(accountID, "_", " "))
}

// PlaceholderEmail synthesizes a dummy contact email for a created
// customer ("acme_corp" -> "admin@acme-corp.com").
func PlaceholderEmail(accountID string) string {
	return fmt.Sprintf("admin@%s.com", strings.ReplaceAll(accountID, "_", "-"))
}
