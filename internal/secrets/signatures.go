package secrets

import (
	"regexp"

	"github.com/gitsensei/sensei/pkg/models"
)

// Signature is a pattern for a known credential format. Group selects the
// submatch holding the secret value; 0 means the whole match.
type Signature struct {
	Name    string
	Kind    models.FindingKind
	Pattern *regexp.Regexp
	Group   int
}

// DefaultSignatures are evaluated in order; specific formats come before the
// generic assignment patterns so a line is attributed to the most precise rule.
var DefaultSignatures = []Signature{
	{Name: "aws-access-key", Kind: models.KindAPIKey, Pattern: regexp.MustCompile(`\b(?:AKIA|ASIA|ABIA|ACCA)[0-9A-Z]{16}\b`)},
	{Name: "aws-secret-key", Kind: models.KindAPIKey, Pattern: regexp.MustCompile(`(?i)aws_secret_access_key\s*[=:]\s*['"]?([A-Za-z0-9/+=]{40})['"]?`), Group: 1},
	{Name: "github-token", Kind: models.KindToken, Pattern: regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36}\b`)},
	{Name: "github-pat", Kind: models.KindToken, Pattern: regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9]{22}_[A-Za-z0-9]{59}\b`)},
	{Name: "gitlab-token", Kind: models.KindToken, Pattern: regexp.MustCompile(`\bglpat-[A-Za-z0-9\-_]{20}\b`)},
	{Name: "slack-token", Kind: models.KindToken, Pattern: regexp.MustCompile(`\bxox[baprs]-[0-9A-Za-z\-]{10,250}`)},
	{Name: "slack-webhook", Kind: models.KindToken, Pattern: regexp.MustCompile(`https://hooks\.slack\.com/services/T[A-Z0-9]+/B[A-Z0-9]+/[A-Za-z0-9]+`)},
	{Name: "discord-webhook", Kind: models.KindToken, Pattern: regexp.MustCompile(`https://discord(?:app)?\.com/api/webhooks/[0-9]+/[A-Za-z0-9_\-]+`)},
	{Name: "google-api-key", Kind: models.KindAPIKey, Pattern: regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}`)},
	{Name: "heroku-api-key", Kind: models.KindAPIKey, Pattern: regexp.MustCompile(`(?i)heroku[_-]?api[_-]?key\s*[=:]\s*['"]?([A-Fa-f0-9-]{36})['"]?`), Group: 1},
	{Name: "npm-token", Kind: models.KindToken, Pattern: regexp.MustCompile(`\bnpm_[A-Za-z0-9]{36}\b`)},
	{Name: "pypi-token", Kind: models.KindToken, Pattern: regexp.MustCompile(`\bpypi-[A-Za-z0-9_\-]{60,}`)},
	{Name: "anthropic-api-key", Kind: models.KindAPIKey, Pattern: regexp.MustCompile(`\bsk-ant-[A-Za-z0-9\-_]{90,}`)},
	{Name: "openai-api-key", Kind: models.KindAPIKey, Pattern: regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9]{48}\b`)},
	{Name: "jwt", Kind: models.KindToken, Pattern: regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-.+/]*`)},
	{Name: "private-key", Kind: models.KindPrivateKey, Pattern: regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?: BLOCK)?-----`)},
	{Name: "bearer-token", Kind: models.KindToken, Pattern: regexp.MustCompile(`(?i)\bbearer\s+([A-Za-z0-9_\-.=]{20,})`), Group: 1},
	{Name: "basic-auth", Kind: models.KindPassword, Pattern: regexp.MustCompile(`(?i)\bbasic\s+([A-Za-z0-9+/=]{20,})`), Group: 1},
	{Name: "url-credentials", Kind: models.KindPassword, Pattern: regexp.MustCompile(`[a-z][a-z0-9+.\-]*://[^\s:/@]+:([^\s:/@]{6,})@`), Group: 1},
	{Name: "generic-api-key", Kind: models.KindAPIKey, Pattern: regexp.MustCompile(`(?i)\b[A-Z0-9_]*(?:API|SECRET|PRIVATE|ACCESS)[_-]?KEY['"]?\s*[=:]+\s*['"]([^'"\s]{8,})['"]`), Group: 1},
	{Name: "generic-token", Kind: models.KindToken, Pattern: regexp.MustCompile(`(?i)\b[A-Z0-9_]*(?:TOKEN|SECRET)['"]?\s*[=:]+\s*['"]([^'"\s]{8,})['"]`), Group: 1},
	{Name: "generic-password", Kind: models.KindPassword, Pattern: regexp.MustCompile(`(?i)\b[A-Z0-9_]*(?:PASSWORD|PASSWD|PWD)['"]?\s*[=:]+\s*['"]([^'"\s]{6,})['"]`), Group: 1},
	{Name: "env-api-key", Kind: models.KindAPIKey, Pattern: regexp.MustCompile(`(?i)^\s*(?:export\s+)?[A-Z0-9_]*(?:API|SECRET|PRIVATE|ACCESS)_?KEY=([^\s'"]{8,})\s*$`), Group: 1},
	{Name: "env-token", Kind: models.KindToken, Pattern: regexp.MustCompile(`(?i)^\s*(?:export\s+)?[A-Z0-9_]*(?:TOKEN|SECRET)=([^\s'"]{8,})\s*$`), Group: 1},
	{Name: "env-password", Kind: models.KindPassword, Pattern: regexp.MustCompile(`(?i)^\s*(?:export\s+)?[A-Z0-9_]*(?:PASSWORD|PASSWD|PWD)=([^\s'"]{6,})\s*$`), Group: 1},
}

// placeholderRe matches values that are clearly not real credentials
var placeholderRe = regexp.MustCompile(`(?i)^(?:x{4,}|\*{4,}|\.{3,}|changeme|change_me|password|secret|redacted|null|none|undefined|<[^>]*>|\$\{[^}]*\}|\$[A-Z_]+|\{\{.*\}\}|.*example.*|your[_\-].*|dummy.*|fake.*)$`)

// IsPlaceholder reports whether a matched value looks like a template or sample
func IsPlaceholder(value string) bool {
	return placeholderRe.MatchString(value)
}
