package ai

import (
	"github.com/gitsensei/sensei/internal/commitmsg"
	"github.com/gitsensei/sensei/internal/llm"
	"github.com/gitsensei/sensei/pkg/models"
)

// Normalize cleans raw provider output and splits it into subject, body and
// footer. Empty output or text without a subject/body/footer shape is a
// malformed_output provider error.
func Normalize(provider, raw string) (models.CommitProposal, error) {
	cleaned, err := llm.CleanResponse(raw)
	if err != nil {
		return models.CommitProposal{}, &models.ProviderError{Provider: provider, Reason: models.ReasonMalformedOutput, Err: err}
	}

	p, err := commitmsg.Parse(cleaned.Text)
	if err != nil {
		return models.CommitProposal{}, &models.ProviderError{Provider: provider, Reason: models.ReasonMalformedOutput, Err: err}
	}
	p.Source = models.SourceProvider
	return p, nil
}
